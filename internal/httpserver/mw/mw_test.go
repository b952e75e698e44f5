package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/sink"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestRequireSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "match", secret: "abc", header: "abc", want: http.StatusNoContent},
		{name: "mismatch", secret: "abc", header: "abd", want: http.StatusUnauthorized},
		{name: "missing", secret: "abc", want: http.StatusUnauthorized},
		{name: "unconfigured rejects all", secret: "", header: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireSecret(tt.secret, false, logger.Nop())(ok)
			r := httptest.NewRequest(http.MethodPost, "/post", nil)
			if tt.header != "" {
				r.Header.Set(sink.SecretHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		remote     string
		xff        string
		trustProxy bool
		want       int
	}{
		{name: "empty list passes", remote: "203.0.113.5:1", want: http.StatusNoContent},
		{name: "inside", allowed: []string{"203.0.113.0/24"}, remote: "203.0.113.5:1", want: http.StatusNoContent},
		{name: "outside", allowed: []string{"10.0.0.0/8"}, remote: "203.0.113.5:1", want: http.StatusForbidden},
		{name: "proxy header trusted", allowed: []string{"10.0.0.0/8"}, remote: "127.0.0.1:1", xff: "10.1.2.3", trustProxy: true, want: http.StatusNoContent},
		{name: "proxy header ignored", allowed: []string{"10.0.0.0/8"}, remote: "127.0.0.1:1", xff: "10.1.2.3", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.Nop())(ok)
			r := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimitPerIP(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		PerSecond: 1,
		Burst:     2,
		Now:       func() time.Time { return now },
	})(ok)

	call := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
		r.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	if rec := call("1.1.1.1:1"); rec.Code != http.StatusNoContent || rec.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("first: %d remaining=%s", rec.Code, rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec := call("1.1.1.1:2"); rec.Code != http.StatusNoContent {
		t.Fatalf("second: %d", rec.Code)
	}
	rec := call("1.1.1.1:3")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third: %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}

	if rec := call("2.2.2.2:1"); rec.Code != http.StatusNoContent {
		t.Errorf("other IP should have its own bucket, got %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := call("1.1.1.1:4"); rec.Code != http.StatusNoContent {
		t.Errorf("after refill: %d", rec.Code)
	}
}

func TestRateLimitSweepsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{
		PerSecond:     1,
		Burst:         1,
		SweepInterval: time.Minute,
		IdleTTL:       5 * time.Minute,
		Now:           func() time.Time { return now },
	})

	l.allow("a", now)
	l.allow("b", now)
	if l.size() != 2 {
		t.Fatalf("size = %d, want 2", l.size())
	}

	l.allow("c", now.Add(10*time.Minute))
	if l.size() != 1 {
		t.Errorf("idle visitors should be swept, size = %d", l.size())
	}
}

func TestLogKeepsFirstStatus(t *testing.T) {
	h := Log(logger.Nop(), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}
