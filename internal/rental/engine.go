// Package rental implements the reservation engine: availability checks, the
// reservation lifecycle and return-time billing over an in-memory store that
// is persisted as a full snapshot after every mutation.
package rental

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-rental/internal/events"
	"github.com/ukydev/fleet-rental/internal/metrics"
	"github.com/ukydev/fleet-rental/internal/models"
)

// Gateway loads and saves the whole store.
type Gateway interface {
	// Load returns the persisted snapshot, or an empty one if nothing was saved yet.
	Load(ctx context.Context) (models.Snapshot, error)
	// Save overwrites the persisted snapshot.
	Save(ctx context.Context, snap models.Snapshot) error
}

// Engine is the reservation engine. All methods are safe for concurrent use;
// mutations are serialised by a single writer lock that covers validation,
// the state change and the snapshot save.
type Engine struct {
	mu    sync.RWMutex
	store *store

	gateway   Gateway
	publisher events.Publisher
	policy    FeePolicy
	log       *log.Entry
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets the lifecycle event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithFeePolicy overrides DefaultFeePolicy.
func WithFeePolicy(p FeePolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger sets the log entry used by the engine.
func WithLogger(l *log.Entry) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New loads the persisted snapshot through gateway and returns a ready engine.
func New(ctx context.Context, gateway Gateway, opts ...Option) (*Engine, error) {
	e := &Engine{
		gateway:   gateway,
		publisher: events.NopPublisher{},
		policy:    DefaultFeePolicy(),
		log:       log.WithField("component", "rental"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	snap, err := gateway.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	s, err := storeFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	e.store = s
	metrics.SetAssetsByStatus(s.assetCounts())

	e.log.WithFields(log.Fields{
		"assets":       len(s.assets),
		"customers":    len(s.customers),
		"reservations": len(s.reservations),
	}).Info("Loaded rental store")
	return e, nil
}

// mutate runs fn against a working copy of the store, saves the result and
// only then makes it current. A failure at any step leaves the engine unchanged.
func (e *Engine) mutate(ctx context.Context, operation string, fn func(s *store) (events.Event, error)) (err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveOperation(operation, err, errorKinds, time.Since(started))
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.store.clone()
	event, err := fn(next)
	if err != nil {
		return err
	}
	if err := e.gateway.Save(ctx, next.snapshot()); err != nil {
		e.log.WithError(err).WithField("operation", operation).Error("Failed to save snapshot")
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	e.store = next
	metrics.SetAssetsByStatus(next.assetCounts())

	event.OccurredAt = e.now()
	if perr := e.publisher.Publish(ctx, event); perr != nil {
		metrics.IncEventPublishFailure(event.Type)
		e.log.WithError(perr).WithField("event", event.Type).Warn("Failed to publish event")
	}
	return nil
}

// Snapshot returns the current state in its persisted form.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.snapshot()
}
