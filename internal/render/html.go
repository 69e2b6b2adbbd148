package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"
)

const sidebarTemplates = `
{{- define "customers" -}}
<div class="section customers">
{{- range .Customers -}}
<h4 class="customer">{{if .AdminURL}}<a target="_blank" href="{{.AdminURL}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</h4>
{{- else -}}
<p class="no-data">No customer found for {{template "emails" .Emails}}.</p>
{{- end -}}
</div>
{{- end -}}

{{- define "emails" -}}
{{range $i, $e := .}}{{if $i}} or {{end}}<strong>{{$e}}</strong>{{end}}
{{- end -}}

{{- define "licenses" -}}
<div class="section licenses">
<h5>Licenses</h5>
{{- if .Licenses -}}
<ul class="licenses">
{{- range .Licenses -}}
<li>{{template "license" .}}</li>
{{- end -}}
</ul>
{{- else -}}
<p class="no-data">No licenses found.</p>
{{- end -}}
</div>
{{- end -}}

{{- define "license" -}}
<div class="license">
{{- if .AdminURL}}<a target="_blank" href="{{.AdminURL}}">{{.Key}}</a>{{else}}<code>{{.Key}}</code>{{end}}
<span class="status {{.Color}}">{{.Status}}</span>
<span class="activations">{{.ActivationCount}} / {{limit .ActivationLimit}}</span>
<span class="expires">Expires {{.ExpirationLabel}}</span>
{{- if .Sites -}}
<ul class="sites">
{{- range .Sites -}}
<li><a target="_blank" href="{{.URL}}">{{.URL}}</a>{{if .DeactivateLink}} <a class="deactivate" href="{{.DeactivateLink}}">Deactivate</a>{{end}}</li>
{{- end -}}
</ul>
{{- end -}}
{{- if .Upgrades -}}
<ul class="upgrades">
{{- range .Upgrades -}}
<li><a target="_blank" href="{{.PurchaseURL}}">{{.ProductTitle}}{{if .PriceOption}} ({{.PriceOption}}){{end}}</a> {{.FormattedPrice}}</li>
{{- end -}}
</ul>
{{- end -}}
{{- if .Children -}}
<ul class="child-licenses">
{{- range .Children -}}
<li>{{template "license" .}}</li>
{{- end -}}
</ul>
{{- end -}}
</div>
{{- end -}}

{{- define "orders" -}}
<div class="section orders">
<h5>Orders</h5>
{{- if .Orders -}}
<ul class="orders">
{{- range .Orders -}}
<li class="order">
{{- if .AdminURL}}<a target="_blank" href="{{.AdminURL}}">#{{.ID}}</a>{{else}}#{{.ID}}{{end}}
<span class="amount">{{.FormattedAmount}}</span>
<span class="status {{.Color}}">{{.Status}}</span>
<span class="date">{{date .Date}}</span>
<span class="method">{{if .PaymentMethod.URL}}<a target="_blank" href="{{.PaymentMethod.URL}}">{{.PaymentMethod.Label}}</a>{{else}}{{.PaymentMethod.Label}}{{end}}</span>
{{- if .Items -}}
<ul class="items">
{{- range .Items -}}
<li>{{.Title}}{{if .PriceOption}} ({{.PriceOption}}){{end}}
{{- range .Files}} <a target="_blank" href="{{.URL}}">{{.Name}}</a>{{end}}
{{- with .License}}{{template "license" .}}{{end}}
{{- range .ChildLicenses}}{{template "license" .}}{{end -}}
</li>
{{- end -}}
</ul>
{{- end -}}
{{- if .ResendReceiptLink}}<a class="resend" href="{{.ResendReceiptLink}}">Resend receipt</a>{{end -}}
</li>
{{- end -}}
</ul>
{{- else -}}
<p class="no-data">No payments found for {{template "emails" .Emails}}.</p>
{{- end -}}
</div>
{{- end -}}

{{- define "subscriptions" -}}
<div class="section subscriptions">
<h5>Subscriptions</h5>
{{- if .Subscriptions -}}
<ul class="subscriptions">
{{- range .Subscriptions -}}
<li>{{if .AdminURL}}<a target="_blank" href="{{.AdminURL}}">{{.ProductTitle}}</a>{{else}}{{.ProductTitle}}{{end}} <span class="status {{.Color}}">{{.Status}}</span></li>
{{- end -}}
</ul>
{{- else -}}
<p class="no-data">No subscriptions found.</p>
{{- end -}}
</div>
{{- end -}}
`

// HTMLRenderer renders sections with html/template.
type HTMLRenderer struct {
	tpl *template.Template
}

// NewHTMLRenderer parses the section templates.
func NewHTMLRenderer() *HTMLRenderer {
	funcs := template.FuncMap{
		"date":  formatDate,
		"limit": formatLimit,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("sidebar").Funcs(funcs).Parse(sidebarTemplates)),
	}
}

// Render executes the template of section with data.
func (r *HTMLRenderer) Render(section Section, data any) (string, error) {
	if r.tpl.Lookup(string(section)) == nil {
		return "", fmt.Errorf("unknown section %q", section)
	}
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, string(section), data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatLimit(limit int) string {
	if limit <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(limit)
}
