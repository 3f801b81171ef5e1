package ratelimit

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_BurstThenRefuse(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d refused within burst", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("attempt past burst allowed")
	}
	if !l.Allow("other") {
		t.Error("keys must not share a bucket")
	}
}

func TestLimiter_Refills(t *testing.T) {
	now := time.Now()
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }
	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected refusal after burst")
	}
	now = now.Add(31 * time.Second)
	if !l.Allow("k") {
		t.Error("expected a token after half the window")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Hour)
	l.Allow("k")
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset must restore the budget")
	}
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Now()
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(5 * time.Minute)
	l.Allow("b")
	if _, ok := l.buckets["a"]; ok {
		t.Error("idle bucket was not swept")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded by private proxy", "203.0.113.9, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.9"},
		{"forwarded by loopback proxy", "203.0.113.9", "", "127.0.0.1:1234", "203.0.113.9"},
		{"real ip from proxy", "", "198.51.100.4", "10.0.0.2:1234", "198.51.100.4"},
		{"forwarded by public peer ignored", "1.2.3.4", "", "192.0.2.7:5555", "192.0.2.7"},
		{"real ip from public peer ignored", "", "1.2.3.4", "192.0.2.7:5555", "192.0.2.7"},
		{"garbage hop from proxy", "not-an-ip", "", "10.0.0.2:1234", "10.0.0.2"},
		{"remote", "", "", "192.0.2.7:5555", "192.0.2.7"},
		{"remote without port", "", "", "192.0.2.7", "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

// A client talking to us directly cannot dodge the per-address bucket by
// rotating X-Forwarded-For.
func TestLoginLimiter_SpoofedForwardedForIgnored(t *testing.T) {
	l := NewLoginLimiter()
	blocked := false
	for i := 0; i < 20; i++ {
		r := httptest.NewRequest("POST", "/login", nil)
		r.RemoteAddr = "192.0.2.50:4000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		if ok, _ := l.Check(r, fmt.Sprintf("user%d@example.com", i)); !ok {
			blocked = true
			break
		}
	}
	if !blocked {
		t.Error("rotating X-Forwarded-For should not reset the address bucket")
	}
}

func TestLoginLimiter_PerAccount(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Hour)
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Alice@Example.com "); !ok {
			t.Fatalf("attempt %d refused", i+1)
		}
	}
	ok, msg := ll.Check(r, "alice@example.com")
	if ok || msg == "" {
		t.Fatalf("third attempt: ok=%v msg=%q, want refusal", ok, msg)
	}

	ll.Succeeded("ALICE@example.com")
	if ok, _ := ll.Check(r, "alice@example.com"); !ok {
		t.Error("Succeeded must clear the account budget")
	}
}

func TestLoginLimiter_PerAddress(t *testing.T) {
	ll := NewLoginLimiterWithConfig(1, time.Hour, 100, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)
	if ok, _ := ll.Check(r, "a@example.com"); !ok {
		t.Fatal("first attempt refused")
	}
	if ok, _ := ll.Check(r, "b@example.com"); ok {
		t.Error("address budget must apply across accounts")
	}
}
