package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	windowLength = time.Minute
	staleAfter   = 10 * time.Minute
)

// Limiter counts requests per client in fixed one-minute windows.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	sweep   time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	rejected atomic.Int64
}

type window struct {
	start time.Time
	count int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 120, CleanupInterval: 5 * time.Minute}
}

// NewLimiter starts a limiter with a background sweeper. Stop releases it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	l := &Limiter{
		windows: make(map[string]*window),
		limit:   cfg.RequestsPerMinute,
		sweep:   cfg.CleanupInterval,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow records a request from key and reports whether it is under the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w == nil || now.Sub(w.start) >= windowLength {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}
	w.count++
	if w.count <= l.limit {
		return true
	}
	l.rejected.Add(1)
	return false
}

// RetryAfter is the number of whole seconds until key's window resets.
func (l *Limiter) RetryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if w == nil {
		return 0
	}
	left := windowLength - l.now().Sub(w.start)
	if left <= 0 {
		return 0
	}
	return int(left.Round(time.Second).Seconds())
}

func (l *Limiter) sweepLoop() {
	t := time.NewTicker(l.sweep)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.cleanupStaleEntries()
		}
	}
}

func (l *Limiter) cleanupStaleEntries() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-staleAfter)
	for key, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}

// ActiveClients is the number of clients with a tracked window.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Rejected counts refused requests since the limiter started.
func (l *Limiter) Rejected() int64 { return l.rejected.Load() }

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Middleware refuses requests over the limit with a Retry-After header.
// onLimit writes the refusal body; nil sends a plain 429.
func (l *Limiter) Middleware(clientKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if l.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(max(l.RetryAfter(key), 1)))
			onLimit(w, r)
		})
	}
}
