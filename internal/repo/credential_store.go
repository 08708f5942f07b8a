package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

// CredentialStore is a credentials.Store persisted in the credentials table.
// Multi-key writes and removals run in one transaction.
type CredentialStore struct {
	db  *gorm.DB
	now func() time.Time
}

var (
	_ credentials.Store              = (*CredentialStore)(nil)
	_ credentials.ConditionalRemover = (*CredentialStore)(nil)
)

// NewCredentialStore wraps db. The schema must already be migrated.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *CredentialStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e domain.CredentialEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *CredentialStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany upserts every pair in one statement.
func (s *CredentialStore) SetMany(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	now := s.now()
	rows := make([]domain.CredentialEntry, 0, len(kv))
	for k, v := range kv {
		if k == "" {
			return credentials.ErrEmptyKey
		}
		rows = append(rows, domain.CredentialEntry{Key: k, Value: v, UpdatedAt: now})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rows).Error
}

// Remove deletes keys in one statement. Missing keys are ignored.
func (s *CredentialStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&domain.CredentialEntry{}).Error
}

// RemoveIf deletes keys only while guardKey still holds expected.
func (s *CredentialStore) RemoveIf(ctx context.Context, guardKey, expected string, keys ...string) (bool, error) {
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("key = ? AND value = ?", guardKey, expected).Delete(&domain.CredentialEntry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Where("key IN ?", keys).Delete(&domain.CredentialEntry{}).Error
	})
	return removed, err
}
