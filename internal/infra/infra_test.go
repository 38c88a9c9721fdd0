package infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// ── Cache ──

func TestCacheSetGet(t *testing.T) {
	c := NewCache[int, string](time.Minute)
	c.Set(1, "one")
	got, ok := c.Get(1)
	if !ok || got != "one" {
		t.Fatalf("Get(1) = %q, %v", got, ok)
	}
	if _, ok := c.Get(2); ok {
		t.Error("Get(2) should miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[string, int](time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("k", 7)

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to be expired")
	}
	if _, ok := c.entries["k"]; ok {
		t.Error("expired entry should be removed by Get")
	}
}

func TestCacheSetDropsExpiredEntries(t *testing.T) {
	c := NewCache[int, int](time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	for i := 0; i < 10; i++ {
		c.Set(i, i)
	}

	now = now.Add(2 * time.Minute)
	c.Set(100, 100)
	if len(c.entries) != 1 {
		t.Errorf("entries after Set: got %d, want 1", len(c.entries))
	}
	if got, ok := c.Get(100); !ok || got != 100 {
		t.Errorf("Get(100) = %d, %v", got, ok)
	}
}

func TestCacheDisabledWithZeroTTL(t *testing.T) {
	c := NewCache[int, int](0)
	c.Set(1, 1)
	if _, ok := c.Get(1); ok {
		t.Error("zero TTL cache should never hit")
	}
}

// ── RateLimiter ──

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestRateLimiterRespectsContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	_ = rl.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	rl.pollEvery = 5 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Second)
	for i := 0; i < 100; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
}

// ── DoGet ──

func TestDoGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "fundseeker test@example.com" {
			t.Errorf("User-Agent: got %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, status, err := DoGet(context.Background(), srv.Client(), srv.URL, map[string]string{
		"User-Agent": "fundseeker test@example.com",
	})
	if err != nil {
		t.Fatalf("DoGet error: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if status != http.StatusOK || string(data) != "ok" {
		t.Errorf("got %d %q", status, data)
	}
}

func TestDoGetNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, status, err := DoGet(context.Background(), nil, srv.URL, nil)
	var herr *ErrHTTP
	if !errors.As(err, &herr) {
		t.Fatalf("expected *ErrHTTP, got %v", err)
	}
	if status != http.StatusNotFound || herr.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d / %d", status, herr.StatusCode)
	}
}
