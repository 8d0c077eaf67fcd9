package cart

import "context"

// LocalRepository is device-scoped storage keyed by session.
type LocalRepository interface {
	Read(ctx context.Context, sessionID string) (Lines, bool, error)
	Write(ctx context.Context, sessionID string, lines Lines) error
}

// RemoteRepository is the account cart document keyed by uid. Load reports
// absence with ok=false; Delete of a missing document is not an error.
type RemoteRepository interface {
	Load(ctx context.Context, uid string) (Lines, bool, error)
	Save(ctx context.Context, uid string, lines Lines) error
	Delete(ctx context.Context, uid string) error
}

// Persistence is the backend currently authoritative for a store.
type Persistence interface {
	// Backend names the storage for logs and metrics.
	Backend() string
	// Key identifies the persisted cart; writes with the same key supersede each other.
	Key() string
	Load(ctx context.Context) (Lines, error)
	Save(ctx context.Context, lines Lines) error
}

const (
	backendLocal  = "local"
	backendRemote = "remote"
)

type localPersistence struct {
	repo      LocalRepository
	sessionID string
}

func (p localPersistence) Backend() string { return backendLocal }
func (p localPersistence) Key() string     { return backendLocal + ":" + p.sessionID }

func (p localPersistence) Load(ctx context.Context) (Lines, error) {
	lines, ok, err := p.repo.Read(ctx, p.sessionID)
	if err != nil || !ok {
		return Lines{}, err
	}
	return lines.normalize(), nil
}

// Save writes the full cart, including an empty one, to device storage.
func (p localPersistence) Save(ctx context.Context, lines Lines) error {
	return p.repo.Write(ctx, p.sessionID, lines)
}

type remotePersistence struct {
	repo RemoteRepository
	uid  string
}

func (p remotePersistence) Backend() string { return backendRemote }
func (p remotePersistence) Key() string     { return backendRemote + ":" + p.uid }

func (p remotePersistence) Load(ctx context.Context) (Lines, error) {
	lines, ok, err := p.repo.Load(ctx, p.uid)
	if err != nil || !ok {
		return Lines{}, err
	}
	return lines.normalize(), nil
}

// Save replaces the account document; an empty cart deletes it.
func (p remotePersistence) Save(ctx context.Context, lines Lines) error {
	if len(lines) == 0 {
		return p.repo.Delete(ctx, p.uid)
	}
	return p.repo.Save(ctx, p.uid, lines)
}
