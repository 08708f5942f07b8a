package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/http/middleware"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
)

func TestApprove(t *testing.T) {
	t.Run("success reloads the queue", func(t *testing.T) {
		f := newFixture(t, false)
		f.docs.queue = sampleQueue()
		w := do(t, f.r, http.MethodPost, "/documents/invoices/2/approve", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
		}
		var resp ApproveResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Approval.Key != (domain.DocumentKey{Type: domain.DocumentInvoice, ID: 2}) {
			t.Fatalf("key = %+v", resp.Approval.Key)
		}
		if resp.Pending == nil || resp.Pending.Total != 2 || f.docs.loads != 1 {
			t.Fatalf("queue not reloaded: %+v loads=%d", resp.Pending, f.docs.loads)
		}
	})

	t.Run("bad path", func(t *testing.T) {
		f := newFixture(t, false)
		for _, p := range []string{"/documents/orders/1/approve", "/documents/import/0/approve", "/documents/import/abc/approve"} {
			w := do(t, f.r, http.MethodPost, p, "", nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("%s: status = %d", p, w.Code)
			}
		}
		if len(f.approvals.reqs) != 0 {
			t.Fatalf("service called for a bad path")
		}
	})

	errCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"busy", services.ErrBusy, http.StatusConflict, ErrCodeBusy},
		{"session expired", gateway.AuthError(401, "session expired"), http.StatusUnauthorized, ErrCodeSessionExpired},
		{"server", gateway.ServerError(422, []byte(`{"message":"not enough stock"}`)), http.StatusBadGateway, ErrCodeBackendError},
		{"network", gateway.NetworkError("connection failed", nil), http.StatusServiceUnavailable, ErrCodeBackendUnavailable},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.approvals.err = tc.err
			w := do(t, f.r, http.MethodPost, "/documents/import/1/approve", "", nil)
			if w.Code != tc.status {
				t.Fatalf("status = %d", w.Code)
			}
			e := decodeErr(t, w)
			if e.Code != tc.code {
				t.Fatalf("code = %q", e.Code)
			}
			if f.docs.loads != 0 {
				t.Fatalf("queue reloaded after a failure")
			}
		})
	}

	t.Run("server message surfaces", func(t *testing.T) {
		f := newFixture(t, false)
		f.approvals.err = gateway.ServerError(422, []byte(`{"message":"not enough stock"}`))
		w := do(t, f.r, http.MethodPost, "/documents/import/1/approve", "", nil)
		if msg := decodeErr(t, w).Message; msg != "server error: status 422: not enough stock" {
			t.Fatalf("message = %q", msg)
		}
	})
}

func TestApprove_IdempotencyKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	approvals := &fakeApprovals{res: services.ApprovalResult{Replayed: true, ApprovedAt: time.Unix(1700000000, 0).UTC()}}
	docs := &fakeDocs{}
	h := New(&fakeSessions{}, docs, approvals, &fakeReports{}, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "7"); c.Next() })
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/documents/:type/:id/approve", h.Approve)

	w := do(t, r, http.MethodPost, "/documents/return/9/approve", "", map[string]string{middleware.HeaderIdempotencyKey: "k-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(approvals.reqs) != 1 || approvals.reqs[0].IdempotencyKey != "k-1" {
		t.Fatalf("key not forwarded: %+v", approvals.reqs)
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay header missing")
	}
	var resp ApproveResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Pending != nil || docs.loads != 0 {
		t.Fatalf("replay must not reload the queue")
	}
}

func TestListApprovals(t *testing.T) {
	t.Run("disabled without a database", func(t *testing.T) {
		f := newFixture(t, false)
		w := do(t, f.r, http.MethodGet, "/approvals", "", nil)
		if w.Code != http.StatusNotImplemented || decodeErr(t, w).Code != ErrCodeAuditDisabled {
			t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("pagination and etag", func(t *testing.T) {
		f := newFixture(t, true)
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			f.history.recs = append(f.history.recs, domain.ApprovalRecord{
				ID:           fmt.Sprintf("r%d", i),
				UserID:       "7",
				DocumentType: string(domain.DocumentImport),
				DocumentID:   int64(i + 1),
				Outcome:      domain.OutcomeApproved,
				CreatedAt:    base.Add(time.Duration(i) * time.Minute),
			})
		}
		f.history.newest = base.Add(4 * time.Minute)

		w := do(t, f.r, http.MethodGet, "/approvals?page=2&page_size=2", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp ListApprovalsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		pg := resp.Pagination
		if pg.Page != 2 || pg.PageSize != 2 || pg.Total != 5 || pg.TotalPages != 3 || !pg.HasNext {
			t.Fatalf("pagination = %+v", pg)
		}
		if len(resp.Approvals) != 2 || resp.Approvals[0].ID != "r2" || resp.Approvals[0].Document.ID != 3 {
			t.Fatalf("approvals = %+v", resp.Approvals)
		}

		etag := w.Header().Get("ETag")
		want := fmt.Sprintf(`W/"approvals:7:5:%d"`, f.history.newest.Unix())
		if etag != want {
			t.Fatalf("etag = %q; want %q", etag, want)
		}
		w = do(t, f.r, http.MethodGet, "/approvals", "", map[string]string{"If-None-Match": etag})
		if w.Code != http.StatusNotModified {
			t.Fatalf("conditional status = %d", w.Code)
		}
	})
}
