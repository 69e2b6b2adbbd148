package signing

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSignVerifyProperties checks that a signature verifies exactly the payload
// and secret it was produced from.
func TestSignVerifyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	build := func(keys, values []string) map[string]string {
		obj := make(map[string]string)
		for i := 0; i < len(keys) && i < len(values); i++ {
			obj[keys[i]] = values[i]
		}
		return obj
	}

	properties.Property("signature over a payload verifies", prop.ForAll(
		func(secret string, keys, values []string) bool {
			s := New("k" + secret)
			body, err := json.Marshal(build(keys, values))
			if err != nil {
				return false
			}
			sig, err := s.Sign(body)
			if err != nil {
				return false
			}
			return s.Verify(body, sig)
		},
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("changing a value invalidates the signature", prop.ForAll(
		func(key, value string) bool {
			s := New("secret")
			sig, err := s.Sign(map[string]string{key: value})
			if err != nil {
				return false
			}
			return !s.Verify(map[string]string{key: value + "x"}, sig)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("a different secret never verifies", prop.ForAll(
		func(a, b string, keys, values []string) bool {
			if a == b {
				return true
			}
			payload := build(keys, values)
			sig, err := New("k" + a).Sign(payload)
			if err != nil {
				return false
			}
			return !New("k" + b).Verify(payload, sig)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
