package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (CredentialEntry{}).TableName() != "credentials" {
		t.Fatalf("CredentialEntry.TableName() = %q", (CredentialEntry{}).TableName())
	}
	if (ApprovalRecord{}).TableName() != "approval_log" {
		t.Fatalf("ApprovalRecord.TableName() = %q", (ApprovalRecord{}).TableName())
	}
}

func TestCredentialEntry_Upsertable(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&CredentialEntry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	now := time.Now().UTC()
	if err := db.Create(&CredentialEntry{Key: "accessToken", Value: "t1", UpdatedAt: now}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Create(&CredentialEntry{Key: "accessToken", Value: "t2", UpdatedAt: now}).Error; err == nil {
		t.Fatalf("expected primary key violation on duplicate key")
	}
	if err := db.Save(&CredentialEntry{Key: "accessToken", Value: "t2", UpdatedAt: now}).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	var got CredentialEntry
	if err := db.First(&got, "key = ?", "accessToken").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Value != "t2" {
		t.Fatalf("value = %q; want t2", got.Value)
	}
}

func TestApprovalRecord_Migration_Indexes_AndUniqueness(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&ApprovalRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, idx := range []string{"ux_approval_user_key", "idx_approval_doc", "idx_approval_user"} {
		if !m.HasIndex(&ApprovalRecord{}, idx) {
			t.Fatalf("expected index %s", idx)
		}
	}

	now := time.Now().UTC()
	key := "k-1"
	rec := func(id string, k *string, outcome string) *ApprovalRecord {
		return &ApprovalRecord{
			ID: id, UserID: "7", IdempotencyKey: k,
			DocumentType: string(DocumentImport), DocumentID: 42,
			Outcome: outcome, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}
	}

	if err := db.Create(rec("a", &key, OutcomeApproved)).Error; err != nil {
		t.Fatalf("insert keyed: %v", err)
	}
	if err := db.Create(rec("b", &key, OutcomeApproved)).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, idempotency_key)")
	}
	// records without a key never collide
	if err := db.Create(rec("c", nil, OutcomeFailed)).Error; err != nil {
		t.Fatalf("insert unkeyed #1: %v", err)
	}
	if err := db.Create(rec("d", nil, OutcomeFailed)).Error; err != nil {
		t.Fatalf("insert unkeyed #2: %v", err)
	}
	if err := db.Create(rec("e", nil, "maybe")).Error; err == nil {
		t.Fatalf("expected check constraint violation on outcome")
	}

	var got ApprovalRecord
	if err := db.First(&got, "id = ?", "a").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if !got.Succeeded() || got.DocumentKey() != (DocumentKey{Type: DocumentImport, ID: 42}) {
		t.Fatalf("unexpected record: %+v", got)
	}
}
