package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu               sync.Mutex
	startedAt        time.Time
	requestCount     map[string]int64
	errorCount       map[string]int64
	rateLimitDenials map[string]int64
	totalDurationMS  int64
	totalRequests    int64
}

// Snapshot is a point-in-time copy of the counters for reporting.
type Snapshot struct {
	UptimeSeconds    int64            `json:"uptime_seconds"`
	TotalRequests    int64            `json:"total_requests"`
	AvgLatencyMS     int64            `json:"avg_latency_ms"`
	Requests         map[string]int64 `json:"requests"`
	Errors           map[string]int64 `json:"errors"`
	RateLimitDenials map[string]int64 `json:"rate_limit_denials"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt:        time.Now(),
		requestCount:     make(map[string]int64),
		errorCount:       make(map[string]int64),
		rateLimitDenials: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalRequests++
	m.totalDurationMS += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRateLimitDenial counts requests refused by the rate limiter, keyed by
// the limiter's principal or IP key.
func (m *Metrics) RecordRateLimitDenial(key string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitDenials[key]++
}

// Report returns a copy of the current counters.
func (m *Metrics) Report() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds:    int64(time.Since(m.startedAt).Seconds()),
		TotalRequests:    m.totalRequests,
		Requests:         make(map[string]int64, len(m.requestCount)),
		Errors:           make(map[string]int64, len(m.errorCount)),
		RateLimitDenials: make(map[string]int64, len(m.rateLimitDenials)),
	}
	if m.totalRequests > 0 {
		snap.AvgLatencyMS = m.totalDurationMS / m.totalRequests
	}
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.rateLimitDenials {
		snap.RateLimitDenials[k] = v
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
