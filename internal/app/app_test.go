package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-warehouse-approvals/internal/config"
	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/signal"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		Backend:        config.BackendConfig{BaseURL: baseURL, RequestTimeout: 2 * time.Second},
		Credentials:    config.CredentialsConfig{Backend: config.CredentialsMemory},
		IdempotencyTTL: time.Hour,
	}
}

// backend rejects every request whose bearer is not "good".
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"good","user":{"id":5,"role":"admin"}}`))
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestApp_ForcedLogoutDropsAuthenticatedState(t *testing.T) {
	srv := backend(t)
	sig := &signal.LogoutSignal{}
	a, err := New(testConfig(srv.URL+"/api"), zerolog.Nop(), WithSignal(sig))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Close()

	if !sig.Registered() {
		t.Fatalf("Start did not subscribe to the logout signal")
	}
	if a.Authenticated() {
		t.Fatalf("fresh app should be logged out")
	}
	if _, err := a.Login(ctx, "lan", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !a.Authenticated() {
		t.Fatalf("Login did not mark the app authenticated")
	}

	var notified atomic.Int64
	a.OnLogout(func() { notified.Add(1) })

	// The backend starts rejecting the session.
	if err := credentials.SaveLogin(ctx, a.Store, "revoked", domain.User{ID: 5}); err != nil {
		t.Fatalf("SaveLogin: %v", err)
	}
	q := a.Documents.LoadPending(ctx)
	if len(q.Failed) != 3 {
		t.Fatalf("failed sources = %v", q.Failed)
	}
	if a.Authenticated() {
		t.Fatalf("forced logout did not drop authenticated state")
	}
	if notified.Load() != 1 {
		t.Fatalf("listeners notified %d times; want 1", notified.Load())
	}
	if ok, _ := a.Auth.IsLoggedIn(ctx); ok {
		t.Fatalf("session still stored")
	}
}

func TestApp_StartRestoresSessionAndCloseUnsubscribes(t *testing.T) {
	srv := backend(t)
	sig := &signal.LogoutSignal{}
	store := credentials.NewMemoryStore()
	if err := credentials.SaveLogin(context.Background(), store, "good", domain.User{ID: 1}); err != nil {
		t.Fatalf("SaveLogin: %v", err)
	}
	a, err := New(testConfig(srv.URL+"/api"), zerolog.Nop(), WithSignal(sig), WithStore(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sig.Registered() {
		t.Fatalf("New must not subscribe")
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.Authenticated() {
		t.Fatalf("stored session not restored")
	}
	if a.Audit != nil {
		t.Fatalf("memory store should run without an audit log")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sig.Registered() {
		t.Fatalf("Close did not unsubscribe")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestApp_SQLiteBackendPersistsSessionAndAudits(t *testing.T) {
	srv := backend(t)
	cfg := testConfig(srv.URL + "/api")
	cfg.Credentials = config.CredentialsConfig{Backend: config.CredentialsSQLite, DBPath: filepath.Join(t.TempDir(), "creds.db")}
	ctx := context.Background()

	a, err := New(cfg, zerolog.Nop(), WithSignal(&signal.LogoutSignal{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.DB == nil || a.Audit == nil {
		t.Fatalf("sqlite backend should open a DB and audit log")
	}
	if _, err := a.Login(ctx, "lan", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.Approvals.Approve(ctx, domain.DocumentImport, 1); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	recs, err := a.Audit.Recent(ctx, "5", 10)
	if err != nil || len(recs) != 1 || !recs[0].Succeeded() {
		t.Fatalf("audit = %+v, %v", recs, err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A second process sees the same session.
	b, err := New(cfg, zerolog.Nop(), WithSignal(&signal.LogoutSignal{}))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !b.Authenticated() {
		t.Fatalf("session not persisted across processes")
	}
}

func TestApp_StartPrunesOldApprovals(t *testing.T) {
	srv := backend(t)
	cfg := testConfig(srv.URL + "/api")
	cfg.Credentials = config.CredentialsConfig{Backend: config.CredentialsSQLite, DBPath: filepath.Join(t.TempDir(), "creds.db")}
	cfg.ApprovalRetention = 24 * time.Hour
	ctx := context.Background()

	a, err := New(cfg, zerolog.Nop(), WithSignal(&signal.LogoutSignal{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if a.Audit.Retention != 24*time.Hour {
		t.Fatalf("retention = %v", a.Audit.Retention)
	}
	for _, id := range []int64{1, 2} {
		if err := a.Audit.RecordApproval(ctx, domain.ApprovalRecord{UserID: "5", DocumentType: "import", DocumentID: id, Outcome: domain.OutcomeApproved}); err != nil {
			t.Fatalf("RecordApproval: %v", err)
		}
	}
	old := time.Now().UTC().Add(-72 * time.Hour)
	if err := a.DB.Model(&domain.ApprovalRecord{}).Where("document_id = ?", 1).Update("created_at", old).Error; err != nil {
		t.Fatalf("age record: %v", err)
	}

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	recs, err := a.Audit.Recent(ctx, "5", 10)
	if err != nil || len(recs) != 1 || recs[0].DocumentID != 2 {
		t.Fatalf("after Start: %+v, %v", recs, err)
	}
}

func TestApp_InvalidBackendURL(t *testing.T) {
	cfg := testConfig("not a url")
	if _, err := New(cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for invalid backend URL")
	}
}

func TestApp_LoginFailureKeepsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	a, err := New(testConfig(srv.URL), zerolog.Nop(), WithSignal(&signal.LogoutSignal{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if _, err := a.Login(context.Background(), "lan", "bad"); !errors.Is(err, gateway.ErrAuth) {
		t.Fatalf("err = %v", err)
	}
	if a.Authenticated() {
		t.Fatalf("failed login marked the app authenticated")
	}
}
