// Package signing authenticates helpdesk requests and signs outbound action URLs.
//
// Signatures are HMAC-SHA256 over the RFC 8785 canonical form of a JSON value, so
// key order and insignificant whitespace of the payload never change the result.
// Verification always compares in constant time.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gowebpki/jcs"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Signer signs and verifies payloads with a shared secret.
type Signer struct {
	secret    []byte
	actionURL string
	clock     Clock
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock replaces the wall clock used for URL expiry.
func WithClock(c Clock) Option {
	return func(s *Signer) { s.clock = c }
}

// WithActionURL sets the base URL that signed action URLs point to.
func WithActionURL(base string) Option {
	return func(s *Signer) { s.actionURL = base }
}

// New returns a Signer for secret.
func New(secret string, opts ...Option) *Signer {
	s := &Signer{
		secret: []byte(secret),
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errEmptySecret = errors.New("signing secret is empty")

// Sign returns the base64 HMAC-SHA256 signature of the canonical form of payload.
// Raw JSON ([]byte, json.RawMessage) is canonicalized as is; any other value is
// marshalled to JSON first.
func (s *Signer) Sign(payload any) (string, error) {
	mac, err := s.mac(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(mac), nil
}

// Verify reports whether provided is a valid signature of payload.
// It never returns an error: an empty signature, an undecodable signature or a
// payload that cannot be canonicalized all verify as false.
func (s *Signer) Verify(payload any, provided string) bool {
	if provided == "" {
		return false
	}
	actual, err := parseSignature(provided)
	if err != nil {
		return false
	}
	expected, err := s.mac(payload)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, actual)
}

func (s *Signer) mac(payload any) ([]byte, error) {
	if len(s.secret) == 0 {
		return nil, errEmptySecret
	}
	canonical, err := Canonicalize(payload)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Canonicalize returns the RFC 8785 canonical JSON form of payload.
func Canonicalize(payload any) ([]byte, error) {
	var raw []byte
	switch v := payload.(type) {
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return canonical, nil
}

// parseSignature decodes a signature in one of the supported formats:
//   - "sha256=<hex>"
//   - "<hex>" (64 characters)
//   - "<base64>" (standard encoding, as sent by helpdesk providers)
func parseSignature(signature string) ([]byte, error) {
	signature = strings.TrimSpace(signature)
	if hexSig, ok := strings.CutPrefix(signature, "sha256="); ok {
		return hex.DecodeString(hexSig)
	}
	if len(signature) == hex.EncodedLen(sha256.Size) {
		if b, err := hex.DecodeString(signature); err == nil {
			return b, nil
		}
	}
	return base64.StdEncoding.DecodeString(signature)
}
