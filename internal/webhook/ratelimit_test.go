package webhook

import (
	"testing"
	"time"
)

func TestIPLimiterSweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(RateLimit{RPS: 1, Burst: 1}, nil)
	l.now = func() time.Time { return now }

	if !l.allow("192.0.2.1") {
		t.Fatal("first request should pass")
	}
	if l.allow("192.0.2.1") {
		t.Fatal("second request in the same instant should be limited")
	}

	now = now.Add(visitorTTL + time.Second)
	l.sweep()
	if len(l.visitors) != 0 {
		t.Fatalf("visitors = %d, want 0 after sweep", len(l.visitors))
	}
	if !l.allow("192.0.2.1") {
		t.Fatal("request after sweep should pass")
	}
}

func TestClientIP(t *testing.T) {
	cases := map[string]string{
		"192.0.2.1:4000":   "192.0.2.1",
		"192.0.2.1":        "192.0.2.1",
		"[2001:db8::1]:80": "2001:db8::1",
		"[2001:db8::1]":    "2001:db8::1",
	}
	for in, want := range cases {
		if got := clientIP(in); got != want {
			t.Errorf("clientIP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewIPLimiterDisabled(t *testing.T) {
	if newIPLimiter(RateLimit{}, nil) != nil {
		t.Fatal("rps 0 should disable the limiter")
	}
}
