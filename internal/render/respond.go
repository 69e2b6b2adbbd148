package render

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Response is the envelope the helpdesk expects from the sidebar endpoint.
type Response struct {
	HTML string `json:"html"`
}

// Respond writes html as the sidebar response with status, or 200 when status
// is zero. The body is encoded in full before anything is written.
func Respond(w http.ResponseWriter, html string, status int) error {
	if status == 0 {
		status = http.StatusOK
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Response{HTML: html}); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
