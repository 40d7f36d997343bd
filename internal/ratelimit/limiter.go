// Package ratelimit implements a fixed-window, per-identifier request
// throttle with pluggable entry storage.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/leadbridge/pkg/logging"
)

const (
	DefaultMax    = 20
	DefaultWindow = time.Minute
)

// ErrLimitExceeded is returned by Check when the identifier is over budget.
var ErrLimitExceeded = errors.New("ratelimit: limit exceeded")

// Entry is the counter state for one identifier during one window.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store persists entries by identifier.
type Store interface {
	Get(ctx context.Context, id string) (Entry, bool, error)
	Set(ctx context.Context, id string, entry Entry) error
}

// Incrementer is implemented by stores that can apply the window reset and
// increment atomically on their side (e.g. across processes).
type Incrementer interface {
	Increment(ctx context.Context, id string, now time.Time, window time.Duration) (Entry, error)
}

// Config tunes a Limiter. Zero values fall back to the defaults.
type Config struct {
	Max    int
	Window time.Duration
	Now    func() time.Time
}

// Decision describes the outcome of a Check.
type Decision struct {
	Allowed bool
	Count   int
	ResetAt time.Time
}

// Limiter enforces at most Max calls per identifier per fixed Window.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	now    func() time.Time
	logger *logging.Logger

	mu sync.Mutex
}

// NewLimiter builds a limiter over store. A nil store gets a fresh MemoryStore.
func NewLimiter(store Store, cfg Config, logger *logging.Logger) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Limiter{
		store:  store,
		max:    cfg.Max,
		window: cfg.Window,
		now:    cfg.Now,
		logger: logger,
	}
}

// Check counts one call for id. It returns ErrLimitExceeded once the count
// for the current window passes Max. The entry is written back even when the
// call is denied. Store failures fail open.
func (l *Limiter) Check(ctx context.Context, id string) (Decision, error) {
	if id == "" {
		id = "unknown"
	}
	now := l.now()

	entry, err := l.increment(ctx, id, now)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request", "error", err, "identifier", id)
		return Decision{Allowed: true}, nil
	}

	decision := Decision{
		Allowed: entry.Count <= l.max,
		Count:   entry.Count,
		ResetAt: entry.ResetAt,
	}
	if !decision.Allowed {
		return decision, ErrLimitExceeded
	}
	return decision, nil
}

func (l *Limiter) increment(ctx context.Context, id string, now time.Time) (Entry, error) {
	if inc, ok := l.store.(Incrementer); ok {
		return inc.Increment(ctx, id, now, l.window)
	}

	// Get/Set stores are only atomic within this process.
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, found, err := l.store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if !found || now.After(entry.ResetAt) {
		entry = Entry{Count: 0, ResetAt: now.Add(l.window)}
	}
	entry.Count++
	if err := l.store.Set(ctx, id, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
