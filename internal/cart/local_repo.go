package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalStorageKey is the fixed key the session cart is stored under.
const LocalStorageKey = "cart"

// LocalEntry is one key/value pair of device storage.
type LocalEntry struct {
	SessionID string    `gorm:"column:session_id;primaryKey;size:64"`
	Key       string    `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LocalEntry) TableName() string { return "local_storage" }

type localRepo struct {
	db *gorm.DB
}

// NewLocalRepository stores session carts in the local_storage table.
func NewLocalRepository(db *gorm.DB) LocalRepository {
	return &localRepo{db: db}
}

func (r *localRepo) Read(ctx context.Context, sessionID string) (Lines, bool, error) {
	var entry LocalEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND entry_key = ?", sessionID, LocalStorageKey).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read local cart")
	}

	var lines Lines
	if err := json.Unmarshal([]byte(entry.Value), &lines); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode local cart")
	}
	return lines, true, nil
}

func (r *localRepo) Write(ctx context.Context, sessionID string, lines Lines) error {
	if lines == nil {
		lines = Lines{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode local cart")
	}
	entry := LocalEntry{SessionID: sessionID, Key: LocalStorageKey, Value: string(payload)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write local cart")
	}
	return nil
}
