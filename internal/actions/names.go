package actions

import "fmt"

// Actions that signed links in the sidebar can request.
const (
	ResendReceipt  = "resend_purchase_receipt"
	DeactivateSite = "deactivate_site_license"

	ParamPaymentID = "payment_id"
	ParamLicenseID = "license_id"
	ParamSiteURL   = "site_url"
)

// required lists the parameters each known action must carry.
var required = map[string][]string{
	ResendReceipt:  {ParamPaymentID},
	DeactivateSite: {ParamLicenseID, ParamSiteURL},
}

// Known reports whether name is an action this service queues.
func Known(name string) bool {
	_, ok := required[name]
	return ok
}

// Validate checks that name is known and params carry its required parameters.
func Validate(name string, params map[string]string) error {
	keys, ok := required[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	for _, k := range keys {
		if params[k] == "" {
			return fmt.Errorf("%w: %s requires %q", ErrMissingParam, name, k)
		}
	}
	return nil
}
