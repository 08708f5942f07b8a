package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
)

// ---------- fakes ----------

type fakeSessions struct {
	loginErr  error
	logoutErr error
	pwErr     error
	meErr     error
	status    services.SessionStatus
	user      domain.User
	logins    int
	pw        [2]string
}

func (f *fakeSessions) Login(_ context.Context, u, _ string) (domain.User, error) {
	f.logins++
	if f.loginErr != nil {
		return domain.User{}, f.loginErr
	}
	f.status = services.SessionStatus{LoggedIn: true, Role: "admin", User: &domain.User{ID: 7, Username: u}}
	return *f.status.User, nil
}
func (f *fakeSessions) Logout(context.Context) error { return f.logoutErr }
func (f *fakeSessions) Status(context.Context) (services.SessionStatus, error) {
	return f.status, nil
}
func (f *fakeSessions) RefreshProfile(context.Context) (domain.User, error) {
	return f.user, f.meErr
}
func (f *fakeSessions) ChangePassword(_ context.Context, o, n string) error {
	f.pw = [2]string{o, n}
	return f.pwErr
}

type fakeDocs struct {
	queue services.Queue
	loads int
}

func (f *fakeDocs) LoadPending(context.Context) services.Queue {
	f.loads++
	return f.queue
}

type fakeApprovals struct {
	res  services.ApprovalResult
	err  error
	reqs []services.ApprovalRequest
}

func (f *fakeApprovals) Submit(_ context.Context, req services.ApprovalRequest) (services.ApprovalResult, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return services.ApprovalResult{}, f.err
	}
	res := f.res
	res.Key = domain.DocumentKey{Type: req.Type, ID: req.ID}
	return res, nil
}

type fakeReports struct {
	name services.ReportName
	p    services.ReportParams
	err  error
}

func (f *fakeReports) Fetch(_ context.Context, name services.ReportName, p services.ReportParams) (json.RawMessage, error) {
	f.name, f.p = name, p
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`[{"total":1}]`), nil
}

type fakeHistory struct {
	recs       []domain.ApprovalRecord
	newest     time.Time
	page, size int
}

func (f *fakeHistory) ListPage(_ context.Context, _ string, page, pageSize int) ([]domain.ApprovalRecord, int64, error) {
	f.page, f.size = page, pageSize
	start := (page - 1) * pageSize
	if start > len(f.recs) {
		start = len(f.recs)
	}
	end := start + pageSize
	if end > len(f.recs) {
		end = len(f.recs)
	}
	return f.recs[start:end], int64(len(f.recs)), nil
}

func (f *fakeHistory) Stats(context.Context, string) (int64, *time.Time, error) {
	if len(f.recs) == 0 {
		return 0, nil, nil
	}
	ts := f.newest
	return int64(len(f.recs)), &ts, nil
}

// ---------- helpers ----------

type fixture struct {
	sessions  *fakeSessions
	docs      *fakeDocs
	approvals *fakeApprovals
	reports   *fakeReports
	history   *fakeHistory
	r         *gin.Engine
}

func newFixture(t *testing.T, withHistory bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		sessions:  &fakeSessions{},
		docs:      &fakeDocs{},
		approvals: &fakeApprovals{},
		reports:   &fakeReports{},
	}
	var hist HistoryService
	if withHistory {
		f.history = &fakeHistory{}
		hist = f.history
	}
	h := New(f.sessions, f.docs, f.approvals, f.reports, hist)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		c.Set("userID", "7")
		c.Next()
	})
	r.GET("/session", h.SessionStatus)
	r.POST("/session/login", h.Login)
	r.POST("/session/logout", h.Logout)
	r.POST("/session/password", h.ChangePassword)
	r.GET("/me", h.Me)
	r.GET("/documents/pending", h.ListPending)
	r.GET("/documents/pending/export", h.ExportPending)
	r.POST("/documents/:type/:id/approve", h.Approve)
	r.GET("/approvals", h.ListApprovals)
	r.GET("/reports/:name", h.GetReport)
	f.r = r
	return f
}

func do(t *testing.T, r http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body: %v (%s)", err, w.Body.String())
	}
	return e
}

// ---------- error mapping ----------

func Test_failErr_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	timeout := gateway.NetworkError("request timed out", fmt.Errorf("dial: %w", context.DeadlineExceeded))

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"busy", services.ErrBusy, http.StatusConflict, ErrCodeBusy},
		{"bad id", services.ErrInvalidDocumentID, http.StatusBadRequest, ErrCodeBadRequest},
		{"bad report params", fmt.Errorf("%w: x", services.ErrInvalidReportParams), http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown report", fmt.Errorf("%w: x", services.ErrUnknownReport), http.StatusNotFound, ErrCodeNotFound},
		{"invalid credentials", fmt.Errorf("%w: %w", services.ErrInvalidCredentials, gateway.AuthError(401, "unauthorized")), http.StatusUnauthorized, ErrCodeInvalidCredentials},
		{"not logged in", services.ErrNotLoggedIn, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"session expired", gateway.AuthError(401, "session expired"), http.StatusUnauthorized, ErrCodeSessionExpired},
		{"server", gateway.ServerError(500, []byte(`{"message":"locked"}`)), http.StatusBadGateway, ErrCodeBackendError},
		{"network", gateway.NetworkError("connection failed", errors.New("refused")), http.StatusServiceUnavailable, ErrCodeBackendUnavailable},
		{"timeout", timeout, http.StatusGatewayTimeout, ErrCodeBackendUnavailable},
		{"unknown", gateway.UnknownError("decode", nil), http.StatusBadGateway, ErrCodeBadBackendResponse},
		{"profile", services.ErrProfileUnavailable, http.StatusBadGateway, ErrCodeBadBackendResponse},
		{"other", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			failErr(c, tc.err)
			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			if got := decodeErr(t, w).Code; got != tc.code {
				t.Fatalf("code = %q; want %q", got, tc.code)
			}
		})
	}
}

func Test_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"page=0&page_size=0", 1, 1},
		{"page=3&page_size=500", 3, 100},
		{"page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		pg := clampPagination(c)
		if pg.Number != tc.page || pg.Size != tc.size {
			t.Fatalf("%q: got (%d,%d) want (%d,%d)", tc.query, pg.Number, pg.Size, tc.page, tc.size)
		}
	}
}
