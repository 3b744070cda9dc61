package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	t.Cleanup(rl.Close)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if do("10.0.0.1:1000") != http.StatusOK || do("10.0.0.1:1000") != http.StatusOK {
		t.Fatal("requests within burst were rejected")
	}
	if do("10.0.0.1:1000") != http.StatusTooManyRequests {
		t.Error("request over burst was allowed")
	}
	// A different client is unaffected.
	if do("10.0.0.2:1000") != http.StatusOK {
		t.Error("second client throttled by first client's bucket")
	}
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	t.Cleanup(rl.Close)

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")

	rl.evictStale(time.Now())
	rl.mu.Lock()
	n := len(rl.visitors)
	rl.mu.Unlock()
	if n != 2 {
		t.Fatalf("fresh buckets evicted: %d left, want 2", n)
	}

	rl.evictStale(time.Now().Add(5 * time.Minute))
	rl.mu.Lock()
	n = len(rl.visitors)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("stale buckets kept: %d left, want 0", n)
	}
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Close()
	rl.Close()
}
