package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestAllow_WindowResets(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLimiter(2, time.Minute)
	l.now = c.now

	for i, want := range []bool{true, true, false} {
		if got := l.Allow("a"); got != want {
			t.Errorf("call %d: got %v, want %v", i+1, got, want)
		}
	}
	if !l.Allow("b") {
		t.Error("other keys have their own window")
	}
	if got := l.RetryAfter("a"); got != time.Minute {
		t.Errorf("RetryAfter: got %v, want 1m", got)
	}

	c.t = c.t.Add(time.Minute + time.Second)
	if !l.Allow("a") {
		t.Error("window should have reset")
	}
}

func TestSweep_DropsExpired(t *testing.T) {
	c := &clock{t: time.Now()}
	l := newLimiter(1, time.Second)
	l.now = c.now
	l.Allow("a")
	c.t = c.t.Add(2 * time.Second)
	l.sweep()
	if len(l.windows) != 0 {
		t.Errorf("windows: got %d, want 0", len(l.windows))
	}
}

func TestNewDefaults(t *testing.T) {
	l := newLimiter(0, 0)
	if l.limit != 1 || l.period != time.Minute {
		t.Errorf("got limit %d period %v", l.limit, l.period)
	}
}

func TestWrites(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	defer l.Stop()

	h := Writes(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	do := func(method, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodPost, "198.51.100.1:5000"); rec.Code != http.StatusNoContent {
		t.Fatalf("first POST: got %d", rec.Code)
	}
	rec := do(http.MethodPost, "198.51.100.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if rec := do(http.MethodGet, "198.51.100.1:5002"); rec.Code != http.StatusNoContent {
		t.Errorf("GET should not be limited, got %d", rec.Code)
	}
	if rec := do(http.MethodPost, "198.51.100.2:5000"); rec.Code != http.StatusNoContent {
		t.Errorf("other client: got %d", rec.Code)
	}
}
