package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"cargo-pipeline/internal/core/logger"
	"cargo-pipeline/internal/features/feed/domain"
	"cargo-pipeline/internal/features/feed/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handle identifies a subscription.
type Handle string

type subscription struct {
	table    domain.Table
	onChange func()
}

// Hub fans table changes out to local subscribers. With a broker, published
// changes travel through it and come back through Run, so subscribers on every
// instance see them; without one they are dispatched in process.
type Hub struct {
	mu     sync.RWMutex
	subs   map[Handle]subscription
	broker ports.Broker
	origin string
	now    func() time.Time
	logger *zap.Logger
}

// NewHub creates a Hub. broker may be nil.
func NewHub(broker ports.Broker) *Hub {
	return &Hub{
		subs:   make(map[Handle]subscription),
		broker: broker,
		origin: uuid.NewString(),
		now:    time.Now,
		logger: logger.Named("feed"),
	}
}

// Subscribe registers onChange for table. onChange runs on the dispatching
// goroutine and must not block; callers debounce and refetch elsewhere.
func (h *Hub) Subscribe(table domain.Table, onChange func()) Handle {
	handle := Handle(uuid.NewString())

	h.mu.Lock()
	h.subs[handle] = subscription{table: table, onChange: onChange}
	h.mu.Unlock()

	return handle
}

// Unsubscribe removes a subscription. It reports whether the handle was known.
func (h *Hub) Unsubscribe(handle Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[handle]; !ok {
		return false
	}
	delete(h.subs, handle)
	return true
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish announces that rows in tables changed. Duplicate tables are sent once.
// When the broker fails the change is still dispatched locally and the error returned.
func (h *Hub) Publish(ctx context.Context, tables ...domain.Table) error {
	var errs []error
	seen := make([]domain.Table, 0, len(tables))
	for _, t := range tables {
		if slices.Contains(seen, t) {
			continue
		}
		seen = append(seen, t)

		ch := domain.Change{Table: t, At: h.now(), Origin: h.origin}
		if h.broker == nil {
			h.Dispatch(ch)
			continue
		}
		if err := h.broker.Publish(ctx, ch); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish %s change: %w", t, err))
			h.Dispatch(ch)
		}
	}
	return errors.Join(errs...)
}

// Dispatch calls every subscriber of ch.Table.
func (h *Hub) Dispatch(ch domain.Change) {
	h.mu.RLock()
	targets := make([]func(), 0, len(h.subs))
	for _, s := range h.subs {
		if s.table == ch.Table {
			targets = append(targets, s.onChange)
		}
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		fn()
	}
}

// Run relays broker changes to local subscribers until ctx is done. Without a
// broker it just waits.
func (h *Hub) Run(ctx context.Context) error {
	if h.broker == nil {
		<-ctx.Done()
		return nil
	}

	h.logger.Info("Listening for changes")
	err := h.broker.Listen(ctx, h.Dispatch)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("feed: listener stopped: %w", err)
	}
	return nil
}
