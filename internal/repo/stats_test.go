package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

func TestApprovalStats_CountError_NoTable(t *testing.T) {
	db := newMemDB(t /* no migrations */)
	if _, _, err := ApprovalStats(context.Background(), db, "7"); err == nil {
		t.Fatalf("expected error due to missing approval_log table")
	}
}

func TestApprovalStats_ZeroRows(t *testing.T) {
	db := newMemDB(t, &domain.ApprovalRecord{})
	count, maxAt, err := ApprovalStats(context.Background(), db, "7")
	if err != nil {
		t.Fatalf("ApprovalStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestApprovalStats_FilterAndMax(t *testing.T) {
	db := newMemDB(t, &domain.ApprovalRecord{})
	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for user 7
	t3 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)   // other user

	for _, r := range []domain.ApprovalRecord{
		{ID: "a", UserID: "7", DocumentType: "import", DocumentID: 1, Outcome: domain.OutcomeApproved, CreatedAt: t1, ExpiresAt: t1},
		{ID: "b", UserID: "7", DocumentType: "invoice", DocumentID: 2, Outcome: domain.OutcomeFailed, CreatedAt: t2, ExpiresAt: t2},
		{ID: "c", UserID: "8", DocumentType: "return", DocumentID: 3, Outcome: domain.OutcomeApproved, CreatedAt: t3, ExpiresAt: t3},
	} {
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}

	count, maxAt, err := ApprovalStats(context.Background(), db, "7")
	if err != nil {
		t.Fatalf("ApprovalStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected max %v, got %v", t2, maxAt)
	}
}

func TestListApprovalsPage(t *testing.T) {
	db := newMemDB(t, &domain.ApprovalRecord{})
	now := time.Now().UTC()
	for i := 1; i <= 5; i++ {
		r := domain.ApprovalRecord{
			ID: fmt.Sprintf("id%02d", i), UserID: "7", DocumentType: "import", DocumentID: int64(i),
			Outcome: domain.OutcomeApproved, CreatedAt: now, ExpiresAt: now,
		}
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, total, err := ListApprovalsPage(context.Background(), db, "7", 2, 2)
	if err != nil {
		t.Fatalf("ListApprovalsPage: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("total=%d len=%d", total, len(page))
	}
	if page[0].ID != "id03" || page[1].ID != "id02" {
		t.Fatalf("page = %s,%s; want id03,id02", page[0].ID, page[1].ID)
	}

	page, total, err = ListApprovalsPage(context.Background(), db, "nobody", -1, 0)
	if err != nil || total != 0 || len(page) != 0 {
		t.Fatalf("empty user = %v, %d, %v", page, total, err)
	}
}
