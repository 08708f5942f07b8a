// This file provides the approval audit log: every settled approval attempt
// is stored, and successful ones carrying an Idempotency-Key can be looked up
// again to replay the result of a retried console request.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/ids"
)

// GetApprovalByKey returns a non-expired record for (userID, key) or ErrNotFound.
func GetApprovalByKey(ctx context.Context, db *gorm.DB, userID, key string, now time.Time) (*domain.ApprovalRecord, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.ApprovalRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ? AND expires_at > ?", userID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateApproval inserts rec, assigning ID, CreatedAt and ExpiresAt. It
// returns ErrDuplicate when (user_id, idempotency_key) is already taken.
func CreateApproval(ctx context.Context, db *gorm.DB, rec *domain.ApprovalRecord, ttl time.Duration) error {
	now := time.Now().UTC()
	rec.ID = ids.New(now)
	rec.CreatedAt = now
	rec.ExpiresAt = now.Add(ttl)
	if rec.IdempotencyKey != nil && strings.TrimSpace(*rec.IdempotencyKey) == "" {
		rec.IdempotencyKey = nil
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListApprovals returns the newest records for userID, at most limit (<= 0
// means 50). An empty userID lists every user.
func ListApprovals(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.ApprovalRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := db.WithContext(ctx).Order("id DESC").Limit(limit)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var out []domain.ApprovalRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// PurgeApprovalsBefore deletes records created before cutoff.
func PurgeApprovalsBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.ApprovalRecord{})
	return res.RowsAffected, res.Error
}

// DefaultRetention is how long audit records are kept when unset.
const DefaultRetention = 90 * 24 * time.Hour

// ApprovalLog binds the functions above to a database. TTL is the replay
// window of an Idempotency-Key; Retention is how long a record is kept at all.
type ApprovalLog struct {
	DB        *gorm.DB
	TTL       time.Duration
	Retention time.Duration
}

// NewApprovalLog returns an ApprovalLog; ttl <= 0 means 24h.
func NewApprovalLog(db *gorm.DB, ttl time.Duration) *ApprovalLog {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ApprovalLog{DB: db, TTL: ttl, Retention: DefaultRetention}
}

// RecordApproval stores rec. When its idempotency key is already claimed by
// another record, rec is stored without the key: the first record keeps the
// replay, and the attempt still reaches the log.
func (l *ApprovalLog) RecordApproval(ctx context.Context, rec domain.ApprovalRecord) error {
	err := CreateApproval(ctx, l.DB, &rec, l.TTL)
	if errors.Is(err, ErrDuplicate) {
		rec.IdempotencyKey = nil
		return CreateApproval(ctx, l.DB, &rec, l.TTL)
	}
	return err
}

// Prune deletes records older than the retention window. A retention <= 0
// keeps everything.
func (l *ApprovalLog) Prune(ctx context.Context, now time.Time) (int64, error) {
	if l.Retention <= 0 {
		return 0, nil
	}
	return PurgeApprovalsBefore(ctx, l.DB, now.Add(-l.Retention))
}

// LookupApproval returns the live record stored under (userID, key).
func (l *ApprovalLog) LookupApproval(ctx context.Context, userID, key string) (*domain.ApprovalRecord, error) {
	return GetApprovalByKey(ctx, l.DB, userID, key, time.Now().UTC())
}

// Recent lists the newest records for userID.
func (l *ApprovalLog) Recent(ctx context.Context, userID string, limit int) ([]domain.ApprovalRecord, error) {
	return ListApprovals(ctx, l.DB, userID, limit)
}
