package security

import (
	"context"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/care-scheduling-service/internal/observability"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

func TestMemoryStoreDeniesAboveThreshold(t *testing.T) {
	store := NewMemoryLimiterStore(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := store.Allow(ctx, "ip:10.0.0.1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d within threshold must be allowed", i+1)
		}
	}

	decision, err := store.Allow(ctx, "ip:10.0.0.1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision.Allowed {
		t.Fatal("request above threshold must be denied")
	}
	if decision.RetryAfter <= 0 {
		t.Fatal("denied decision must carry a retry hint")
	}
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryLimiterStore(1, time.Minute)
	ctx := context.Background()

	if d, _ := store.Allow(ctx, "ip:10.0.0.1"); !d.Allowed {
		t.Fatal("first request for key A must pass")
	}
	if d, _ := store.Allow(ctx, "ip:10.0.0.1"); d.Allowed {
		t.Fatal("second request for key A must be denied")
	}
	if d, _ := store.Allow(ctx, "user:42"); !d.Allowed {
		t.Fatal("key B must not share key A's budget")
	}
}

func TestMemoryStoreRefillsAfterWindow(t *testing.T) {
	store := NewMemoryLimiterStore(2, 100*time.Millisecond)
	ctx := context.Background()

	store.Allow(ctx, "ip:10.0.0.9")
	store.Allow(ctx, "ip:10.0.0.9")
	if d, _ := store.Allow(ctx, "ip:10.0.0.9"); d.Allowed {
		t.Fatal("budget must be exhausted")
	}

	time.Sleep(120 * time.Millisecond)
	if d, _ := store.Allow(ctx, "ip:10.0.0.9"); !d.Allowed {
		t.Fatal("budget must refill after the window elapses")
	}
}

func TestMemoryStoreConcurrentExactness(t *testing.T) {
	const threshold = 50
	store := NewMemoryLimiterStore(threshold, time.Minute)
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < threshold*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, err := store.Allow(ctx, "ip:concurrent"); err == nil && d.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != threshold {
		t.Fatalf("expected exactly %d allowed under concurrency, got %d", threshold, allowed)
	}
}

type stubStore struct {
	decision Decision
	err      error
	lastKey  string
}

func (s *stubStore) Allow(_ context.Context, key string) (Decision, error) {
	s.lastKey = key
	return s.decision, s.err
}

func limiterApp(store LimiterStore, threshold int, metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) (err error) {
		defer func() {
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(fiber.Map{"error": fiber.Map{"code": domainErr.Code}})
				err = nil
			}
		}()
		return c.Next()
	})
	app.Use(RateLimit(store, threshold, metrics, zap.NewNop()))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	return app
}

func TestRateLimitMiddlewareSetsHeaders(t *testing.T) {
	store := &stubStore{decision: Decision{Allowed: true, Remaining: 7}}
	app := limiterApp(store, 10, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("unexpected limit header: %q", got)
	}
	if got := resp.Header.Get("X-RateLimit-Remaining"); got != "7" {
		t.Errorf("unexpected remaining header: %q", got)
	}
	if store.lastKey == "" || store.lastKey[:3] != "ip:" {
		t.Errorf("unauthenticated request must be keyed by ip, got %q", store.lastKey)
	}
}

func TestRateLimitMiddlewareDenies(t *testing.T) {
	store := &stubStore{decision: Decision{Allowed: false, RetryAfter: 30 * time.Second}}
	metrics := observability.NewMetrics()
	app := limiterApp(store, 10, metrics)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "30" {
		t.Errorf("unexpected Retry-After: %q", got)
	}
	if len(metrics.Report().RateLimitDenials) != 1 {
		t.Error("denial must be counted")
	}
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	store := &stubStore{err: context.DeadlineExceeded}
	app := limiterApp(store, 10, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("store errors must fail open, got %d", resp.StatusCode)
	}
}
