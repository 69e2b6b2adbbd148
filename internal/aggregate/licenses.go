package aggregate

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/mattjoyce/deskpanel/internal/actions"
	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// ExpirationLayout formats license expiration dates.
const ExpirationLayout = "2006-01-02"

// NoExpiration is shown for licenses that do not expire.
const NoExpiration = "-"

// Licenses returns the grouped licenses of customers, newest first.
func (a *Aggregator) Licenses(ctx context.Context, customers []commerce.Customer) []commerce.License {
	if !a.licensingAvailable() {
		return nil
	}

	var all []commerce.License
	for _, c := range customers {
		ls, err := a.stores.Licenses.LicensesByCustomer(ctx, c.ID)
		if err != nil {
			a.logger.Warn("license lookup failed", "customer_id", c.ID, "error", err)
			continue
		}
		all = append(all, ls...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	grouped := Group(all)
	for i := range grouped {
		grouped[i] = a.decorateLicense(ctx, grouped[i], true)
		for j := range grouped[i].Children {
			grouped[i].Children[j] = a.decorateLicense(ctx, grouped[i].Children[j], false)
		}
	}
	return grouped
}

// decorateLicense fills the display fields of l. Sites and upgrade offers are
// only looked up for top-level licenses.
func (a *Aggregator) decorateLicense(ctx context.Context, l commerce.License, topLevel bool) commerce.License {
	l.Color = commerce.LicenseColor(l.Status)
	l.ExpirationLabel = ExpirationLabel(l)
	l.AdminURL = a.adminLink("licenses", l.ID)
	if !topLevel {
		return l
	}

	sites, err := a.stores.Licenses.Sites(ctx, l.ID)
	if err != nil {
		a.logger.Warn("license sites lookup failed", "license_id", l.ID, "error", err)
	}
	l.Sites = make([]commerce.Site, 0, len(sites))
	for _, s := range sites {
		link := a.signedLink(actions.DeactivateSite, map[string]string{
			actions.ParamLicenseID: strconv.FormatInt(l.ID, 10),
			actions.ParamSiteURL:   s,
		})
		l.Sites = append(l.Sites, commerce.Site{URL: SiteURL(s), DeactivateLink: link})
	}

	if l.Expired(a.cfg.Now()) {
		return l
	}
	offers, err := a.stores.Licenses.UpgradeOffers(ctx, l.ID)
	if err != nil {
		a.logger.Warn("upgrade offers lookup failed", "license_id", l.ID, "error", err)
		return l
	}
	l.Upgrades = make([]commerce.UpgradeOffer, 0, len(offers))
	for _, o := range offers {
		o.FormattedPrice = FormatAmount(o.Price, o.Currency)
		l.Upgrades = append(l.Upgrades, o)
	}
	return l
}

// ExpirationLabel is the display form of the license expiration.
func ExpirationLabel(l commerce.License) string {
	if l.Lifetime || l.ExpiresAt == nil {
		return NoExpiration
	}
	return l.ExpiresAt.Format(ExpirationLayout)
}

// SiteURL returns site with an https scheme when it has none.
func SiteURL(site string) string {
	if site == "" || strings.Contains(site, "://") {
		return site
	}
	return "https://" + site
}

// Group arranges licenses into top-level licenses with their children, sorted
// by descending id.
//
// Nesting is one level deep: a child is filed under the top-level ancestor of
// its parent, never under another child. A child whose top-level ancestor is
// not among licenses becomes a top-level entry itself. Group does not modify
// its input.
func Group(licenses []commerce.License) []commerce.License {
	parentOf := make(map[int64]int64, len(licenses))
	for _, l := range licenses {
		parentOf[l.ID] = l.ParentID
	}
	root := func(id int64) int64 {
		for steps := 0; steps <= len(licenses); steps++ {
			p, ok := parentOf[id]
			if !ok || p == 0 {
				return id
			}
			id = p
		}
		return id
	}

	type entry struct {
		license  commerce.License
		present  bool
		children []commerce.License
	}
	entries := make(map[int64]*entry, len(licenses))
	var order []int64
	get := func(id int64) *entry {
		e, ok := entries[id]
		if !ok {
			e = &entry{}
			entries[id] = e
			order = append(order, id)
		}
		return e
	}

	for _, l := range licenses {
		l.Children = nil
		if l.ParentID == 0 {
			e := get(l.ID)
			e.license = l
			e.present = true
			continue
		}
		e := get(root(l.ParentID))
		e.children = append(e.children, l)
	}

	out := make([]commerce.License, 0, len(order))
	for _, id := range order {
		e := entries[id]
		if e.present {
			l := e.license
			l.Children = e.children
			out = append(out, l)
			continue
		}
		out = append(out, e.children...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
