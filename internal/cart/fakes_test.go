package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/identity"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
)

type memLocal struct {
	mu     sync.Mutex
	data   map[string]Lines
	writes int
}

func newMemLocal() *memLocal { return &memLocal{data: map[string]Lines{}} }

func (m *memLocal) Read(_ context.Context, sessionID string) (Lines, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines, ok := m.data[sessionID]
	return lines.Clone(), ok, nil
}

func (m *memLocal) Write(_ context.Context, sessionID string, lines Lines) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.data[sessionID] = lines.Clone()
	return nil
}

func (m *memLocal) get(sessionID string) (Lines, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines, ok := m.data[sessionID]
	return lines, ok
}

type memRemote struct {
	mu      sync.Mutex
	docs    map[string]Lines
	loads   int
	saves   int
	deletes int
	loadErr error
	saveErr error
	saved   []Lines

	started chan struct{}
	release chan struct{}

	// loadGate, when set, holds Load for the next uid until it sees a value.
	loadGate    map[string]chan struct{}
	loadStarted chan string
}

func newMemRemote() *memRemote { return &memRemote{docs: map[string]Lines{}} }

func (m *memRemote) Load(_ context.Context, uid string) (Lines, bool, error) {
	m.mu.Lock()
	gate := m.loadGate[uid]
	delete(m.loadGate, uid)
	started := m.loadStarted
	m.mu.Unlock()
	if gate != nil {
		if started != nil {
			started <- uid
		}
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	lines, ok := m.docs[uid]
	return lines.Clone(), ok, nil
}

func (m *memRemote) Save(_ context.Context, uid string, lines Lines) error {
	m.mu.Lock()
	started, release := m.started, m.release
	m.started = nil
	m.mu.Unlock()
	if started != nil {
		close(started)
		<-release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[uid] = lines.Clone()
	m.saved = append(m.saved, lines.Clone())
	return nil
}

func (m *memRemote) Delete(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.docs, uid)
	return nil
}

// holdLoad makes the next Load for uid block until the returned channel is
// closed. Blocked loads announce themselves on m.loadStarted.
func (m *memRemote) holdLoad(uid string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadGate == nil {
		m.loadGate = map[string]chan struct{}{}
	}
	if m.loadStarted == nil {
		m.loadStarted = make(chan string, 4)
	}
	gate := make(chan struct{})
	m.loadGate[uid] = gate
	return gate
}

func waitLoad(t *testing.T, m *memRemote) string {
	t.Helper()
	select {
	case uid := <-m.loadStarted:
		return uid
	case <-time.After(2 * time.Second):
		t.Fatal("remote load never started")
		return ""
	}
}

func (m *memRemote) doc(uid string) (Lines, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines, ok := m.docs[uid]
	return lines, ok
}

func (m *memRemote) counts() (loads, saves, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.saves, m.deletes
}

var errOffline = pkgerrors.New(pkgerrors.CodeDependency, "backend unavailable")

func newTestStore(t *testing.T, local *memLocal, remote *memRemote, policy Policy) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), StoreParams{
		SessionID:      "sess-1",
		Local:          local,
		Remote:         remote,
		Policy:         policy,
		PersistTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func product(id string, price float64) catalog.Product {
	return catalog.Product{ID: id, VendorID: "v1", Name: "Product " + id, Price: price, Stock: 10}
}

func user(uid string) *identity.Identity {
	return &identity.Identity{UID: uid, Email: uid + "@example.com", Role: identity.RoleUser}
}
