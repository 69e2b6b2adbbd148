// Package payload decodes the ticket and customer document a helpdesk posts to
// the sidebar endpoint.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the body is not a JSON object.
var ErrMalformed = errors.New("malformed payload")

// Request is the inbound sidebar document.
type Request struct {
	Ticket   Ticket   `json:"ticket"`
	Customer Customer `json:"customer"`
}

// Ticket identifies the support conversation the sidebar is shown for.
type Ticket struct {
	ID      ID     `json:"id"`
	Number  ID     `json:"number"`
	Subject string `json:"subject"`
}

// Customer is the helpdesk's view of the person who opened the ticket.
type Customer struct {
	ID        ID       `json:"id"`
	FirstName string   `json:"fname"`
	LastName  string   `json:"lname"`
	Email     string   `json:"email"`
	Emails    []string `json:"emails"`
}

// ID is a numeric identifier that helpdesks send either as a JSON number or
// as a string.
type ID int64

// UnmarshalJSON accepts 42, "42" and null. Any other value decodes to zero
// so an odd identifier never rejects the whole payload.
func (id *ID) UnmarshalJSON(b []byte) error {
	*id = 0
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = ID(n)
	}
	return nil
}

// Parse decodes raw into a Request.
func Parse(raw []byte) (*Request, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformed
	}
	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &req, nil
}

// DefaultFixtureEmail is used by Fixture when no email is configured.
const DefaultFixtureEmail = "user@example.com"

// Fixture returns a fixed request for local development of the sidebar.
func Fixture(email string) *Request {
	if email == "" {
		email = DefaultFixtureEmail
	}
	return &Request{
		Ticket: Ticket{
			ID:      123456789,
			Number:  12345,
			Subject: "I need help using your plugin",
		},
		Customer: Customer{
			ID:        987654321,
			FirstName: "Firstname",
			LastName:  "Lastname",
			Email:     email,
			Emails:    []string{email},
		},
	}
}

// Emails returns customer.email followed by customer.emails with empty values
// dropped. Duplicates are kept.
func (r *Request) Emails() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, 1+len(r.Customer.Emails))
	if r.Customer.Email != "" {
		out = append(out, r.Customer.Email)
	}
	for _, e := range r.Customer.Emails {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// HasEmail reports whether the request names at least one customer email.
func (r *Request) HasEmail() bool {
	return len(r.Emails()) > 0
}

// licenseKeyLength is the length of keys issued by the licensing integration.
const licenseKeyLength = 32

// LicenseKeyCandidate returns the last word of the ticket subject when it has
// the shape of a license key.
func (r *Request) LicenseKeyCandidate() (string, bool) {
	if r == nil {
		return "", false
	}
	words := strings.Fields(r.Ticket.Subject)
	if len(words) == 0 {
		return "", false
	}
	last := words[len(words)-1]
	if len(last) != licenseKeyLength {
		return "", false
	}
	return last, true
}

// DisplayName joins the customer's first and last name.
func (r *Request) DisplayName() string {
	return strings.TrimSpace(r.Customer.FirstName + " " + r.Customer.LastName)
}
