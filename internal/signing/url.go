package signing

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Query parameters reserved by signed action URLs.
const (
	ParamAction    = "action"
	ParamExpiresAt = "expiresAt"
	ParamSignature = "signature"
)

// Action is a signed request to perform a named action later.
type Action struct {
	Name      string
	Params    map[string]string
	ExpiresAt time.Time
	Signature string
}

// actionMessage is the value that gets signed for an action URL.
type actionMessage struct {
	Action    string            `json:"action"`
	Params    map[string]string `json:"params"`
	ExpiresAt int64             `json:"expiresAt"`
}

// SignedURL builds a URL for action on the configured action base URL. The URL
// carries params, an expiry ttl from now and the signature over all of them.
func (s *Signer) SignedURL(action string, params map[string]string, ttl time.Duration) (string, error) {
	if action == "" {
		return "", errors.New("action name is empty")
	}
	if s.actionURL == "" {
		return "", errors.New("action base URL is not configured")
	}
	for k := range params {
		if isReserved(k) {
			return "", fmt.Errorf("action parameter %q is reserved", k)
		}
	}

	u, err := url.Parse(s.actionURL)
	if err != nil {
		return "", fmt.Errorf("parse action base URL: %w", err)
	}
	// Every query key of a verified URL is treated as a signed parameter.
	if u.RawQuery != "" {
		return "", errors.New("action base URL must not carry a query")
	}

	expiresAt := s.clock.Now().Add(ttl).Unix()
	sig, err := s.Sign(actionMessage{Action: action, Params: nonNil(params), ExpiresAt: expiresAt})
	if err != nil {
		return "", fmt.Errorf("sign action: %w", err)
	}

	q := u.Query()
	q.Set(ParamAction, action)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set(ParamExpiresAt, strconv.FormatInt(expiresAt, 10))
	q.Set(ParamSignature, sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// VerifyURL reports whether values carry an unexpired, correctly signed action.
func (s *Signer) VerifyURL(values url.Values) bool {
	_, ok := s.VerifyAction(values)
	return ok
}

// VerifyURLString is VerifyURL for a full URL string.
func (s *Signer) VerifyURLString(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return s.VerifyURL(u.Query())
}

// VerifyAction parses the action carried by values and verifies it. The action
// is returned only when it is valid.
func (s *Signer) VerifyAction(values url.Values) (Action, bool) {
	act, err := ParseAction(values)
	if err != nil {
		return Action{}, false
	}
	if s.clock.Now().Unix() > act.ExpiresAt.Unix() {
		return Action{}, false
	}
	msg := actionMessage{Action: act.Name, Params: act.Params, ExpiresAt: act.ExpiresAt.Unix()}
	if !s.Verify(msg, act.Signature) {
		return Action{}, false
	}
	return act, true
}

// ParseAction extracts an Action from URL query values without verifying it.
// Every query key other than the reserved ones is an action parameter.
func ParseAction(values url.Values) (Action, error) {
	name := values.Get(ParamAction)
	if name == "" {
		return Action{}, errors.New("missing action")
	}
	sig := values.Get(ParamSignature)
	if sig == "" {
		return Action{}, errors.New("missing signature")
	}
	exp, err := strconv.ParseInt(values.Get(ParamExpiresAt), 10, 64)
	if err != nil {
		return Action{}, fmt.Errorf("invalid expiresAt: %w", err)
	}

	params := make(map[string]string)
	for k, v := range values {
		if isReserved(k) || len(v) == 0 {
			continue
		}
		params[k] = v[0]
	}

	return Action{
		Name:      name,
		Params:    params,
		ExpiresAt: time.Unix(exp, 0).UTC(),
		Signature: sig,
	}, nil
}

func isReserved(key string) bool {
	return key == ParamAction || key == ParamExpiresAt || key == ParamSignature
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
