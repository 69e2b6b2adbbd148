package aggregate

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders amount in the standard precision of the ISO 4217
// currency code, e.g. "USD 1,234.50". Unknown codes fall back to two decimals.
func FormatAmount(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		if code == "" {
			return printer.Sprintf("%.2f", amount)
		}
		return fmt.Sprintf("%s %s", code, printer.Sprintf("%.2f", amount))
	}
	scale, _ := currency.Standard.Rounding(unit)
	return fmt.Sprintf("%s %s", unit, printer.Sprintf(fmt.Sprintf("%%.%df", scale), amount))
}
