package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

func TestOpenSQLite_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "credentials.db")

	db, err := OpenSQLite(path)
	if err == nil || db != nil {
		t.Fatalf("OpenSQLite(%q) = %v, %v; want error", path, db, err)
	}
	if !os.IsNotExist(err) {
		t.Fatalf("want a not-exist error from the directory check, got %v", err)
	}
}

func TestOpenSQLite_CredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	pragmas := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"foreign_keys": "1",
		"busy_timeout": "5000",
	}
	for name, want := range pragmas {
		var got string
		if err := db.Raw("PRAGMA " + name + ";").Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", name, err)
		}
		if strings.ToLower(got) != want {
			t.Fatalf("PRAGMA %s = %q; want %q", name, got, want)
		}
	}
	if n := sqlDB.Stats().MaxOpenConnections; n != 10 {
		t.Fatalf("MaxOpenConnections = %d; want 10", n)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, tbl := range []any{&domain.CredentialEntry{}, &domain.ApprovalRecord{}} {
		if !db.Migrator().HasTable(tbl) {
			t.Fatalf("table for %T missing", tbl)
		}
	}

	// The file outlives the handle: a second open sees the stored token.
	ctx := context.Background()
	if err := NewCredentialStore(db).Set(ctx, "accessToken", "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = sqlDB.Close()

	db2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if sqlDB2, err := db2.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB2.Close() })
	}
	if v, ok, err := NewCredentialStore(db2).Get(ctx, "accessToken"); err != nil || !ok || v != "tok-1" {
		t.Fatalf("after reopen: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := map[error]bool{
		gorm.ErrDuplicatedKey: true,
		errors.New("UNIQUE constraint failed: approval_records.idempotency_key"): true,
		errors.New("constraint failed: UNIQUE constraint failed (2067)"):         true,
		errors.New("database is locked"):                                         false,
	}
	for err, want := range cases {
		if got := isUniqueViolation(err); got != want {
			t.Fatalf("isUniqueViolation(%q) = %v; want %v", err, got, want)
		}
	}
}
