package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/identity"
	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/metrics"
	"github.com/angelmondragon/aquadrop/pkg/money"
	"github.com/shopspring/decimal"
)

// StoreParams configures a Store.
type StoreParams struct {
	SessionID      string
	Local          LocalRepository
	Remote         RemoteRepository
	Policy         Policy
	PersistTimeout time.Duration
	Logger         *logger.Logger
	Metrics        *metrics.CartMetrics
}

// Store is the single source of truth for one session's cart. Mutations update
// memory and return immediately; persistence happens in the background against
// whichever backend the current identity selects.
type Store struct {
	sessionID string
	local     LocalRepository
	remote    RemoteRepository
	policy    Policy
	timeout   time.Duration
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
	writer    *writer

	mu          sync.Mutex
	lines       Lines
	ident       *identity.Identity
	persistence Persistence
	seq         uint64
	gen         uint64
	replay      []mutation

	loading  atomic.Bool
	lastUsed atomic.Int64
}

// Snapshot is a read-only view of the cart.
type Snapshot struct {
	Lines         Lines   `json:"items"`
	Total         float64 `json:"total_amount"`
	Count         int     `json:"item_count"`
	Authenticated bool    `json:"authenticated"`
	Loading       bool    `json:"loading"`
}

// NewStore opens an anonymous store for the session and loads its device copy.
func NewStore(ctx context.Context, p StoreParams) (*Store, error) {
	p.SessionID = strings.TrimSpace(p.SessionID)
	if p.SessionID == "" {
		return nil, errors.New("session id required")
	}
	if p.Local == nil || p.Remote == nil {
		return nil, errors.New("local and remote cart repositories required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Policy == "" {
		p.Policy = PolicyReplace
	}

	s := &Store{
		sessionID: p.SessionID,
		local:     p.Local,
		remote:    p.Remote,
		policy:    p.Policy,
		timeout:   p.PersistTimeout,
		logg:      p.Logger,
		metrics:   p.Metrics,
	}
	s.writer = newWriter(p.Logger, p.Metrics, p.PersistTimeout)
	s.persistence = s.localTarget()
	s.lines = s.load(ctx, s.persistence)
	s.touch()
	return s, nil
}

func (s *Store) localTarget() Persistence {
	return localPersistence{repo: s.local, sessionID: s.sessionID}
}

func (s *Store) remoteTarget(uid string) Persistence {
	return remotePersistence{repo: s.remote, uid: uid}
}

// SessionID returns the device session the store belongs to.
func (s *Store) SessionID() string { return s.sessionID }

// Add increments the line for p, or appends it with quantity 1.
func (s *Store) Add(ctx context.Context, p catalog.Product) (Lines, error) {
	line, err := lineFromProduct(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, func(l Lines) Lines {
		if i := l.index(line.ProductID); i >= 0 {
			l[i].Quantity++
			return l
		}
		return append(l, line)
	}), nil
}

// Remove deletes the line for productID. Missing lines are ignored.
func (s *Store) Remove(ctx context.Context, productID string) Lines {
	productID = strings.TrimSpace(productID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, func(l Lines) Lines { return l.without(productID) })
}

// UpdateQuantity sets an absolute quantity. Anything below 1 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) Lines {
	productID = strings.TrimSpace(productID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, func(l Lines) Lines {
		if quantity < 1 {
			return l.without(productID)
		}
		if i := l.index(productID); i >= 0 {
			l[i].Quantity = quantity
		}
		return l
	})
}

// Clear empties the cart. The remote backend deletes its document.
func (s *Store) Clear(ctx context.Context) Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, clearLines)
}

// Take empties the cart and returns what it held, in one step.
func (s *Store) Take(ctx context.Context) Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := s.lines.Clone()
	s.apply(ctx, clearLines)
	return taken
}

// Restore adds lines back into the cart, summing quantities with anything
// added since they were taken.
func (s *Store) Restore(ctx context.Context, lines Lines) Lines {
	lines = lines.normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(lines) == 0 {
		s.touch()
		return s.lines.Clone()
	}
	return s.apply(ctx, func(l Lines) Lines { return l.merge(lines) })
}

// mutation rewrites a cart. It may modify its argument in place.
type mutation func(Lines) Lines

func clearLines(Lines) Lines { return Lines{} }

// apply runs m against the live cart. While an identity load is in flight the
// mutation is also kept so it can be replayed onto the loaded cart, and nothing
// is queued for persistence. Callers hold s.mu.
func (s *Store) apply(ctx context.Context, m mutation) Lines {
	s.lines = m(s.lines)
	if s.loading.Load() {
		s.replay = append(s.replay, m)
		s.touch()
		return s.lines.Clone()
	}
	return s.commit(ctx)
}

// Items returns a copy of the current lines.
func (s *Store) Items() Lines {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.lines.Clone()
}

// Total recomputes Σ price × quantity from the current lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Total()
}

// TotalAmount is Total rounded to cents.
func (s *Store) TotalAmount() float64 {
	return money.Amount(s.Total())
}

// Snapshot returns lines and derived values read under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return Snapshot{
		Lines:         s.lines.Clone(),
		Total:         money.Amount(s.lines.Total()),
		Count:         s.lines.Count(),
		Authenticated: s.ident != nil,
		Loading:       s.loading.Load(),
	}
}

// Identity returns the identity the cart is currently bound to.
func (s *Store) Identity() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ident.Clone()
}

// Loading reports whether an identity transition is loading the cart.
func (s *Store) Loading() bool { return s.loading.Load() }

// SetIdentity rebinds the store to next. Logging in loads the account cart once
// and applies the store policy; logging out reloads the device copy. The load
// runs without holding the store lock: reads keep answering from the current
// lines with Loading set, and mutations made meanwhile are replayed onto the
// loaded cart. A load overtaken by a newer transition is discarded. It reports
// the previous identity and whether anything changed.
func (s *Store) SetIdentity(ctx context.Context, next *identity.Identity) (*identity.Identity, bool) {
	s.mu.Lock()
	s.touch()
	prev := s.ident
	if identity.Same(prev, next) {
		s.ident = next.Clone()
		s.mu.Unlock()
		return prev.Clone(), false
	}

	s.gen++
	gen := s.gen
	target := s.localTarget()
	if next != nil {
		target = s.remoteTarget(next.UID)
	}
	s.ident = next.Clone()
	s.persistence = target
	session := s.lines.Clone()
	merge := s.policy == PolicyMerge && prev == nil && next != nil && len(session) > 0
	s.replay = nil
	s.loading.Store(true)
	s.mu.Unlock()

	loaded := s.load(ctx, target)

	s.mu.Lock()
	defer s.mu.Unlock()
	fields := map[string]any{"session_id": s.sessionID}
	if next != nil {
		fields["user_id"] = next.UID
	}
	if gen != s.gen {
		s.logg.Debug(s.logg.WithFields(ctx, fields), "cart.identity.superseded")
		return prev.Clone(), true
	}

	lines := loaded
	if merge {
		lines = loaded.merge(session)
	}
	replayed := len(s.replay)
	for _, m := range s.replay {
		lines = m(lines)
	}
	s.replay = nil
	s.lines = lines
	s.loading.Store(false)
	if replayed > 0 {
		fields["replayed"] = replayed
	}

	switch {
	case next == nil:
		s.logg.Info(s.logg.WithFields(ctx, fields), "cart.identity.logout")
	case merge:
		s.enqueue(ctx, s.localTarget(), Lines{})
		fields["merged_lines"] = len(session)
		s.logg.Info(s.logg.WithFields(ctx, fields), "cart.identity.merged")
	default:
		s.logg.Info(s.logg.WithFields(ctx, fields), "cart.identity.login")
	}
	if merge || replayed > 0 {
		s.commit(ctx)
	}
	return prev.Clone(), true
}

// Flush waits until every queued save has been attempted. Mutations made during
// an identity load are queued once the load completes.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close drains pending saves and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	return s.writer.close(ctx)
}

// commit queues the current lines for the active backend and returns a copy.
// Callers hold s.mu.
func (s *Store) commit(ctx context.Context) Lines {
	s.touch()
	s.enqueue(ctx, s.persistence, s.lines)
	return s.lines.Clone()
}

func (s *Store) enqueue(ctx context.Context, target Persistence, lines Lines) {
	s.seq++
	s.writer.enqueue(writeJob{
		ctx:    detach(ctx),
		seq:    s.seq,
		target: target,
		lines:  lines.Clone(),
	})
}

// load reads target, degrading to an empty cart on any failure.
func (s *Store) load(ctx context.Context, target Persistence) Lines {
	loadCtx := detach(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(loadCtx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	lines, err := target.Load(loadCtx)
	s.metrics.Observe(target.Backend(), "load", time.Since(start), err)
	if err != nil {
		fields := map[string]any{"backend": target.Backend(), "session_id": s.sessionID}
		s.logg.Error(s.logg.WithFields(ctx, fields), "cart.load.failed", err)
		return Lines{}
	}
	return lines
}

func (s *Store) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Store) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// detach keeps request-scoped values such as log fields but drops cancellation,
// so a save outlives the request that caused it.
func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
