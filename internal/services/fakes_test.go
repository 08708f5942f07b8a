package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

// ---------- test helpers ----------

type call struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
}

// fakeBackend answers requests from a route table keyed by "METHOD path".
type fakeBackend struct {
	mu     sync.Mutex
	calls  []call
	routes map[string]func(call) (json.RawMessage, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: map[string]func(call) (json.RawMessage, error){}}
}

func (f *fakeBackend) on(method, path string, h func(call) (json.RawMessage, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeBackend) reply(method, path, body string) {
	f.on(method, path, func(call) (json.RawMessage, error) { return json.RawMessage(body), nil })
}

func (f *fakeBackend) fail(method, path string, err error) {
	f.on(method, path, func(call) (json.RawMessage, error) { return nil, err })
}

func (f *fakeBackend) Request(_ context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	c := call{Method: method, Path: path, Body: body, Query: query}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	h := f.routes[method+" "+path]
	f.mu.Unlock()
	if h == nil {
		return nil, fmt.Errorf("no route for %s %s", method, path)
	}
	return h(c)
}

func (f *fakeBackend) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) count(method, path string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func newMemDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func docKeys(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Key().String()
	}
	return out
}
