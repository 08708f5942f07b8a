// Package repo implements the persistence layer on GORM. This file provides
// small aggregate queries over the approval log used for conditional
// responses (ETag) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

// ApprovalStats returns the number of audit records for userID and the
// newest CreatedAt among them. maxCreatedAt is nil when there are none.
func ApprovalStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ApprovalRecord{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX(), which SQLite returns as TEXT.
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// ListApprovalsPage returns one page of userID's records, newest first,
// together with the total count.
func ListApprovalsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ApprovalRecord, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	var total int64
	if err := db.WithContext(ctx).Model(&domain.ApprovalRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.ApprovalRecord, 0, limit)
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
