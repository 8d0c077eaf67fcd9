package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/aquadrop/internal/identity"
	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/metrics"
	"go.uber.org/multierr"
)

// RegistryParams configures the stores a Registry creates.
type RegistryParams struct {
	Local          LocalRepository
	Remote         RemoteRepository
	Policy         Policy
	PersistTimeout time.Duration
	Logger         *logger.Logger
	Metrics        *metrics.CartMetrics
	// Events receives one event per effective identity transition. Optional.
	Events *identity.Broadcaster
}

// Registry holds one Store per device session.
type Registry struct {
	params RegistryParams

	mu     sync.Mutex
	stores map[string]*Store
	closed bool
}

// NewRegistry validates params and returns an empty registry.
func NewRegistry(p RegistryParams) (*Registry, error) {
	if p.Local == nil || p.Remote == nil {
		return nil, errors.New("local and remote cart repositories required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	return &Registry{params: p, stores: map[string]*Store{}}, nil
}

// Get returns the session's store, creating it from the device copy on first use.
// Handing a store out marks it used, under the same lock Sweep evicts with, so a
// store returned by Get is not swept before the caller can use it.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id required")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("cart registry closed")
	}
	if s, ok := r.stores[sessionID]; ok {
		s.touch()
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	created, err := NewStore(ctx, StoreParams{
		SessionID:      sessionID,
		Local:          r.params.Local,
		Remote:         r.params.Remote,
		Policy:         r.params.Policy,
		PersistTimeout: r.params.PersistTimeout,
		Logger:         r.params.Logger,
		Metrics:        r.params.Metrics,
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	existing, ok := r.stores[sessionID]
	if ok {
		existing.touch()
	}
	if !ok && !r.closed {
		r.stores[sessionID] = created
	}
	closed := r.closed
	r.mu.Unlock()

	if ok || closed {
		_ = created.Close(ctx)
		if closed {
			return nil, errors.New("cart registry closed")
		}
		return existing, nil
	}
	return created, nil
}

// Identify binds the session's store to ident and publishes the transition.
func (r *Registry) Identify(ctx context.Context, sessionID string, ident *identity.Identity) (*Store, error) {
	s, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	prev, changed := s.SetIdentity(ctx, ident)
	if changed && r.params.Events != nil {
		r.params.Events.Publish(ctx, identity.Event{
			SessionID: s.SessionID(),
			Previous:  prev,
			Current:   ident.Clone(),
		})
	}
	return s, nil
}

// Len reports the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep closes and forgets stores untouched for longer than idle. Idleness is
// judged under the registry lock, so a store handed out by Get in the meantime
// survives.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	if idle <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	var evicted []*Store
	for id, s := range r.stores {
		if s.idleSince().Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.stores, id)
		}
	}
	r.mu.Unlock()

	var errs error
	for _, s := range evicted {
		errs = multierr.Append(errs, s.Close(ctx))
	}
	if len(evicted) > 0 {
		r.params.Logger.Debug(r.params.Logger.WithField(ctx, "evicted", len(evicted)), "cart.registry.swept")
	}
	return len(evicted), errs
}

// Close drains every store's pending saves.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.stores = map[string]*Store{}
	r.mu.Unlock()

	var errs error
	for _, s := range stores {
		errs = multierr.Append(errs, s.Close(ctx))
	}
	return errs
}
