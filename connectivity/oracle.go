// Package connectivity tracks whether the platform reports itself online.
//
// The Oracle is a plain two-state observer. It never probes the network and
// is never updated from request failures, only from platform signals.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Oracle holds the process-wide online flag.
type Oracle struct {
	online atomic.Bool
	logger *slog.Logger

	mu   sync.Mutex
	subs map[int]func(bool)
	next int
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithLogger sets the logger used for transition messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *Oracle) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Oracle with the given initial state.
func New(online bool, opts ...Option) *Oracle {
	o := &Oracle{
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.online.Store(online)
	return o
}

// IsOnline reports the current state.
func (o *Oracle) IsOnline() bool {
	return o.online.Load()
}

// SetOnline records a platform signal. Subscribers run synchronously and
// only when the state actually changes.
func (o *Oracle) SetOnline(online bool) {
	if o.online.Swap(online) == online {
		return
	}
	if online {
		o.logger.Info("connectivity restored")
	} else {
		o.logger.Warn("connectivity lost")
	}

	o.mu.Lock()
	subs := make([]func(bool), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (o *Oracle) Subscribe(fn func(online bool)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Watch feeds platform signals from events into the Oracle until ctx is
// done or events is closed.
func (o *Oracle) Watch(ctx context.Context, events <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-events:
			if !ok {
				return
			}
			o.SetOnline(online)
		}
	}
}
