// Package resolve turns the single-flight asynchronous geocoder into a
// synchronous lookup service for embedding callers such as HTTP handlers.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coastalmesh/geocode-gateway/internal/domain"
	"github.com/coastalmesh/geocode-gateway/internal/observability"
)

// ErrBusy is returned when another lookup already holds the geocoder's
// single exchange slot. The geocoder itself drops concurrent requests
// silently; the resolver turns that into a definite answer.
var ErrBusy = errors.New("a geocode lookup is already in flight")

// ErrDraining is returned for lookups issued after Close.
var ErrDraining = errors.New("resolver is draining")

// publishTimeout bounds the audit publish so a slow broker cannot hold a
// lookup response hostage.
const publishTimeout = 5 * time.Second

// Publisher records successfully resolved lookups. Implementations must be
// safe for concurrent use.
type Publisher interface {
	PublishLookup(ctx context.Context, lookup domain.LookupResult) error
}

// Resolver serializes lookups onto one Geocoder and bridges its callback
// contract to ordinary blocking calls with context support.
type Resolver struct {
	geocoder  domain.Geocoder
	publisher Publisher // nil disables audit publishing
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu     sync.Mutex // held for the duration of one lookup
	closed atomic.Bool
}

// New creates a Resolver. Pass a nil publisher to disable audit publishing.
func New(geocoder domain.Geocoder, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	metrics.GatewayReady.Set(1)
	return &Resolver{
		geocoder:  geocoder,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Forward resolves free text to candidate places, optionally biased toward
// proximity. Returns ErrBusy when another lookup is in flight.
func (r *Resolver) Forward(ctx context.Context, query string, proximity *domain.Coordinate) ([]domain.PlaceRecord, error) {
	return r.lookup(ctx, domain.LookupForward, query, func(complete domain.CompletionFunc) {
		r.geocoder.ForwardGeocode(query, proximity, complete)
	})
}

// Reverse resolves a coordinate to candidate places. Returns ErrBusy when
// another lookup is in flight.
func (r *Resolver) Reverse(ctx context.Context, coord domain.Coordinate) ([]domain.PlaceRecord, error) {
	return r.lookup(ctx, domain.LookupReverse, coord.String(), func(complete domain.CompletionFunc) {
		r.geocoder.ReverseGeocode(coord, complete)
	})
}

type lookupOutcome struct {
	places []domain.PlaceRecord
	err    error
}

func (r *Resolver) lookup(ctx context.Context, kind domain.LookupKind, query string, start func(domain.CompletionFunc)) ([]domain.PlaceRecord, error) {
	if r.closed.Load() {
		return nil, ErrDraining
	}
	if !r.mu.TryLock() {
		r.metrics.LookupsRejected.Inc()
		return nil, ErrBusy
	}
	defer r.mu.Unlock()

	done := make(chan lookupOutcome, 1)
	start(func(places []domain.PlaceRecord, err error) {
		done <- lookupOutcome{places: places, err: err}
	})

	select {
	case <-ctx.Done():
		// The abandoned exchange never calls back; Cancel returns the
		// geocoder to idle for the next lookup.
		r.geocoder.Cancel()
		return nil, fmt.Errorf("%s lookup abandoned: %w", kind, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		r.publish(kind, query, out.places)
		return out.places, nil
	}
}

// publish sends a successful non-empty lookup to the audit topic.
// Best-effort: a publish failure is logged and counted, never surfaced to
// the caller.
func (r *Resolver) publish(kind domain.LookupKind, query string, places []domain.PlaceRecord) {
	if r.publisher == nil || len(places) == 0 {
		return
	}

	lookup := domain.NewLookupResult(kind, query, places)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.publisher.PublishLookup(ctx, lookup); err != nil {
		r.metrics.PublishErrors.Inc()
		r.logger.Warn("lookup publish failed", "id", lookup.ID, "kind", kind, "error", err)
		return
	}
	r.metrics.LookupsPublished.Inc()
}

// Close marks the resolver as draining: subsequent lookups fail with
// ErrDraining and readiness checks fail. In-flight lookups finish normally.
func (r *Resolver) Close() {
	r.closed.Store(true)
	r.metrics.GatewayReady.Set(0)
}

// CheckReadiness reports whether the resolver is accepting lookups.
func (r *Resolver) CheckReadiness(_ context.Context) error {
	if r.closed.Load() {
		return ErrDraining
	}
	return nil
}
