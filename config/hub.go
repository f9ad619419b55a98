// ABOUTME: Broadcast of settings updates to every live engine instance
// ABOUTME: Subscribers are keyed by uuid and called synchronously on the publisher's goroutine

package config

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures hub and watcher construction
type Option func(*options)

type options struct {
	logger   *zap.Logger
	debounce time.Duration
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDebounce sets how long the watcher waits for writes to settle
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Hub fans out settings updates to subscribers
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]func(SettingsUpdate)
	order  []uuid.UUID
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub(opts ...Option) *Hub {
	o := buildOptions(opts)
	return &Hub{
		subs:   make(map[uuid.UUID]func(SettingsUpdate)),
		logger: o.logger,
	}
}

// Subscribe registers fn and returns its id and an unsubscribe func
func (h *Hub) Subscribe(fn func(SettingsUpdate)) (uuid.UUID, func()) {
	id := uuid.New()

	h.mu.Lock()
	h.subs[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	h.logger.Debug("settings subscriber added", zap.Stringer("id", id))

	return id, func() { h.Unsubscribe(id) }
}

// Unsubscribe removes a subscriber; unknown ids are ignored
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[id]; !ok {
		return
	}
	delete(h.subs, id)
	for i, sid := range h.order {
		if sid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Publish delivers u to every subscriber in subscription order
// Returns the number of subscribers reached
func (h *Hub) Publish(u SettingsUpdate) int {
	if u.IsEmpty() {
		return 0
	}

	h.mu.Lock()
	targets := make([]func(SettingsUpdate), 0, len(h.order))
	for _, id := range h.order {
		targets = append(targets, h.subs[id])
	}
	h.mu.Unlock()

	// Called outside the lock so subscribers may unsubscribe
	for _, fn := range targets {
		fn(u)
	}

	h.logger.Debug("settings update published",
		zap.Stringer("update", u),
		zap.Int("subscribers", len(targets)))

	return len(targets)
}

// Len returns the number of subscribers
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
