package commerce

// Color is the severity tag attached to a status for display.
type Color string

const (
	ColorNone   Color = ""
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
)

// Payment statuses with special meaning.
const (
	PaymentStatusPublish = "publish"
)

var orderColors = map[string]Color{
	"publish":             ColorGreen,
	"edd_subscription":    ColorGreen,
	"refunded":            ColorRed,
	"revoked":             ColorRed,
	"cancelled":           ColorOrange,
	"failed":              ColorOrange,
	"preapproval":         ColorOrange,
	"preapproval_pending": ColorOrange,
}

var licenseColors = map[string]Color{
	"active":   ColorGreen,
	"disabled": ColorRed,
	"expired":  ColorOrange,
}

var subscriptionColors = map[string]Color{
	"active":    ColorGreen,
	"trialling": ColorGreen,
	"cancelled": ColorRed,
	"expired":   ColorOrange,
}

// OrderColor maps a raw payment status to its color. Unknown statuses map to ColorNone.
func OrderColor(status string) Color {
	return orderColors[status]
}

// LicenseColor maps a raw license status to its color.
func LicenseColor(status string) Color {
	return licenseColors[status]
}

// SubscriptionColor maps a raw subscription status to its color.
func SubscriptionColor(status string) Color {
	return subscriptionColors[status]
}
