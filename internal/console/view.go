package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/deskpanel/internal/aggregate"
	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Render draws the view as boxed sections in the same order as the sidebar.
func Render(view aggregate.View, theme Theme) string {
	blocks := []string{
		theme.Title.Render("deskpanel lookup: " + strings.Join(view.Emails, ", ")),
		box(theme, "Customers", customers(view, theme)),
	}
	if view.LicensingAvailable {
		blocks = append(blocks, box(theme, "Licenses", licenses(view.Licenses, theme)))
	}
	blocks = append(blocks, box(theme, "Orders", orders(view.Orders, theme)))
	if view.RecurringAvailable {
		blocks = append(blocks, box(theme, "Subscriptions", subscriptions(view.Subscriptions, theme)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func box(theme Theme, title string, lines []string) string {
	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{theme.Section.Render(title)}, lines...)...)
	return theme.Border.Render(content)
}

func customers(view aggregate.View, theme Theme) []string {
	if len(view.Customers) == 0 {
		return []string{theme.Dim.Render("No customer found for " + strings.Join(view.Emails, " or ") + ".")}
	}
	lines := make([]string, 0, len(view.Customers))
	for _, c := range view.Customers {
		line := fmt.Sprintf("%s #%d  %s", c.Name, c.ID, theme.Dim.Render(strings.Join(c.Emails, ", ")))
		if c.AdminURL != "" {
			line += "  " + theme.Dim.Render(c.AdminURL)
		}
		lines = append(lines, line)
	}
	return lines
}

func licenses(list []commerce.License, theme Theme) []string {
	if len(list) == 0 {
		return []string{theme.Dim.Render("No licenses found.")}
	}
	var lines []string
	for _, l := range list {
		lines = append(lines, licenseLine(l, theme, ""))
		for _, site := range l.Sites {
			lines = append(lines, "    site "+site.URL)
		}
		for _, u := range l.Upgrades {
			offer := u.ProductTitle
			if u.PriceOption != "" {
				offer += " (" + u.PriceOption + ")"
			}
			lines = append(lines, "    upgrade "+offer+" "+u.FormattedPrice)
		}
		for i, child := range l.Children {
			branch := "├─ "
			if i == len(l.Children)-1 {
				branch = "└─ "
			}
			lines = append(lines, licenseLine(child, theme, "  "+branch))
		}
	}
	return lines
}

func licenseLine(l commerce.License, theme Theme, prefix string) string {
	limit := "unlimited"
	if l.ActivationLimit > 0 {
		limit = fmt.Sprint(l.ActivationLimit)
	}
	return fmt.Sprintf("%s%s  %s  %d / %s  expires %s",
		prefix,
		theme.Key.Render(l.Key),
		theme.Status(l.Color).Render(l.Status),
		l.ActivationCount, limit,
		l.ExpirationLabel,
	)
}

func orders(list []commerce.Order, theme Theme) []string {
	if len(list) == 0 {
		return []string{theme.Dim.Render("No payments found.")}
	}
	var lines []string
	for _, o := range list {
		method := o.PaymentMethod.Label
		if o.PaymentMethod.URL != "" {
			method += " " + theme.Dim.Render(o.PaymentMethod.URL)
		}
		lines = append(lines, fmt.Sprintf("#%d  %s  %s  %s  %s",
			o.ID,
			o.Date.Format("2006-01-02"),
			o.FormattedAmount,
			theme.Status(o.Color).Render(o.Status),
			method,
		))
		for _, item := range o.Items {
			title := item.Title
			if item.PriceOption != "" {
				title += " (" + item.PriceOption + ")"
			}
			if item.License != nil {
				title += "  " + theme.Key.Render(item.License.Key)
			}
			lines = append(lines, "    "+title)
		}
	}
	return lines
}

func subscriptions(list []commerce.Subscription, theme Theme) []string {
	if len(list) == 0 {
		return []string{theme.Dim.Render("No subscriptions found.")}
	}
	lines := make([]string, 0, len(list))
	for _, s := range list {
		lines = append(lines, fmt.Sprintf("#%d  %s  %s", s.ID, s.ProductTitle, theme.Status(s.Color).Render(s.Status)))
	}
	return lines
}
