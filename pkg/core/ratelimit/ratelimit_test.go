package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Burst(t *testing.T) {
	l := New(60, 2)
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst of 2 should allow two immediate requests")
	}
	if l.Allow() {
		t.Error("third immediate request should be rejected")
	}
	if d := l.RetryAfter(); d <= 0 || d > 2*time.Second {
		t.Errorf("unexpected retry-after %v", d)
	}
}

func TestKeyedLimiter_SeparateClients(t *testing.T) {
	k := NewKeyed(60, 1, time.Minute)
	if !k.Get("a").Allow() {
		t.Fatal("first request for a should pass")
	}
	if k.Get("a").Allow() {
		t.Error("second request for a should be limited")
	}
	if !k.Get("b").Allow() {
		t.Error("b has its own bucket")
	}
	if k.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", k.Len())
	}
}

func TestKeyedLimiter_Sweep(t *testing.T) {
	k := NewKeyed(60, 1, time.Nanosecond)
	k.Get("a")
	time.Sleep(time.Millisecond)
	if removed := k.Sweep(); removed != 1 || k.Len() != 0 {
		t.Errorf("expected idle key swept, removed=%d len=%d", removed, k.Len())
	}
}

func TestMiddleware(t *testing.T) {
	k := NewKeyed(60, 1, time.Minute)
	rejected := 0
	h := k.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), func(*http.Request) { rejected++ })

	req := httptest.NewRequest(http.MethodPost, "/api/roi/analysis", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rejected != 1 {
		t.Errorf("expected Retry-After and one rejection, got %q / %d", rec.Header().Get("Retry-After"), rejected)
	}

	if rec.Header().Get("X-RateLimit-Remaining") != "" {
		t.Errorf("rejected responses should not report remaining tokens")
	}
}

func TestMiddleware_RemainingHeader(t *testing.T) {
	k := NewKeyed(60, 3, time.Minute)
	h := k.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/roi/analysis", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Errorf("expected 2 remaining, got %q", got)
	}
}

func TestMiddleware_ForwardedForNeedsTrustedProxy(t *testing.T) {
	k := NewKeyed(60, 1, time.Minute)
	h := k.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), nil)

	spoof := func(remote, fwd string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/roi/analysis", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// Untrusted peer: a fresh header value does not buy a fresh bucket.
	if code := spoof("203.0.113.7:4000", "1.1.1.1"); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := spoof("203.0.113.7:4000", "2.2.2.2"); code != http.StatusTooManyRequests {
		t.Errorf("rotated X-Forwarded-For from an untrusted peer: expected 429, got %d", code)
	}

	if err := k.TrustProxies("10.0.0.0/8", "192.168.1.1"); err != nil {
		t.Fatalf("TrustProxies: %v", err)
	}
	if code := spoof("10.1.2.3:4000", "198.51.100.1, 10.1.2.3"); code != http.StatusOK {
		t.Errorf("first client behind trusted proxy: expected 200, got %d", code)
	}
	if code := spoof("10.1.2.3:4000", "198.51.100.2"); code != http.StatusOK {
		t.Errorf("second client behind trusted proxy has its own bucket, got %d", code)
	}
	if code := spoof("192.168.1.1:4000", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("same forwarded client via another trusted proxy: expected 429, got %d", code)
	}

	if err := k.TrustProxies("not-an-ip"); err == nil {
		t.Error("expected an error for an invalid proxy entry")
	}
}
