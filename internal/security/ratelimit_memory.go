package security

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiterStore keeps per-key token buckets in process memory. The
// bucket holds `threshold` tokens refilled over `window`, which approximates
// a sliding window. A janitor drops keys idle for three windows.
type MemoryLimiterStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	limit     rate.Limit
	threshold int
	window    time.Duration
}

type memoryEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiterStore builds a store allowing threshold requests per window.
func NewMemoryLimiterStore(threshold int, window time.Duration) *MemoryLimiterStore {
	if threshold <= 0 {
		threshold = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiterStore{
		entries:   make(map[string]*memoryEntry),
		limit:     rate.Limit(float64(threshold) / window.Seconds()),
		threshold: threshold,
		window:    window,
	}
}

// Allow implements LimiterStore.
func (s *MemoryLimiterStore) Allow(_ context.Context, key string) (Decision, error) {
	lim := s.get(key)

	reservation := lim.Reserve()
	if !reservation.OK() {
		return Decision{Allowed: false, RetryAfter: s.window}, nil
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}

	remaining := int(lim.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}

func (s *MemoryLimiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = time.Now()
		return ent.lim
	}
	lim := rate.NewLimiter(s.limit, s.threshold)
	s.entries[key] = &memoryEntry{lim: lim, lastSeen: time.Now()}
	return lim
}

// StartJanitor periodically drops idle keys until ctx is canceled.
func (s *MemoryLimiterStore) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

func (s *MemoryLimiterStore) cleanup() {
	cutoff := time.Now().Add(-3 * s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}
