// Approval HTTP handlers.
//
//   - POST /documents/{type}/{id}/approve  (approve one document)
//   - GET  /approvals                      (local approval history, paginated, ETag)
//
// Idempotency:
// With an Idempotency-Key, a retry of an approval that already succeeded is
// answered from the approval log with `Idempotency-Replayed: true` and no
// backend call.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/http/middleware"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
)

// ApproveResponse is the outcome of an approval. Pending is the reloaded
// queue, present only when the backend was called.
type ApproveResponse struct {
	Approval services.ApprovalResult `json:"approval"`
	Pending  *PendingResponse        `json:"pending,omitempty"`
}

// ApprovalEntry is one approval log record.
type ApprovalEntry struct {
	ID           string             `json:"id"`
	Document     domain.DocumentKey `json:"document"`
	Outcome      string             `json:"outcome"`
	ErrorKind    string             `json:"error_kind,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	HTTPStatus   int                `json:"http_status,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ListApprovalsResponse wraps a page of the approval log.
type ListApprovalsResponse struct {
	Approvals  []ApprovalEntry `json:"approvals"`
	Pagination Pagination      `json:"pagination"`
}

// Approve godoc
// @ID          approveDocument
// @Summary     Approve a document
// @Description Approves one import, invoice or return. Only one approval runs at a time; a concurrent request gets 409 without reaching the backend. On success the pending queue is reloaded and returned.
// @Tags        Approvals
// @Produce     json
// @Param       type             path    string  true   "Document type"  Enums(import, invoice, return)
// @Param       id               path    int     true   "Document ID"    minimum(1)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Success     200  {object}  handlers.ApproveResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from the approval log"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Session expired"
// @Failure     409  {object}  handlers.ErrorResponse  "Another approval is in progress"
// @Failure     502  {object}  handlers.ErrorResponse  "Backend error"
// @Failure     503  {object}  handlers.ErrorResponse  "Backend unavailable"
// @Router      /documents/{type}/{id}/approve [post]
func (h *Handlers) Approve(c *gin.Context) {
	t, err := domain.ParseDocumentType(c.Param("type"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document id must be a positive integer")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	ctx := c.Request.Context()
	res, err := h.approvals.Submit(ctx, services.ApprovalRequest{Type: t, ID: id, IdempotencyKey: key})
	if err != nil {
		failErr(c, err)
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, ApproveResponse{Approval: res})
		return
	}

	pending := newPendingResponse(h.docs.LoadPending(ctx), "")
	ok(c, http.StatusOK, ApproveResponse{Approval: res, Pending: &pending})
}

// ListApprovals godoc
// @ID          listApprovals
// @Summary     Approval history (paginated)
// @Description Returns the operator's approval attempts recorded by this console, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Approvals
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"approvals:7:3:1700000000\")
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListApprovalsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Login required"
// @Failure     501  {object}  handlers.ErrorResponse  "Approval log disabled"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /approvals [get]
func (h *Handlers) ListApprovals(c *gin.Context) {
	if h.history == nil {
		fail(c, http.StatusNotImplemented, ErrCodeAuditDisabled, "approval log requires the sqlite credential backend")
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)
	pg := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.history.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"approvals:%s:%d:%d"`, uid, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	recs, total, err := h.history.ListPage(ctx, uid, pg.Number, pg.Size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	entries := make([]ApprovalEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, ApprovalEntry{
			ID:           r.ID,
			Document:     r.DocumentKey(),
			Outcome:      r.Outcome,
			ErrorKind:    r.ErrorKind,
			ErrorMessage: r.ErrorMessage,
			HTTPStatus:   r.HTTPStatus,
			CreatedAt:    r.CreatedAt,
		})
	}
	ok(c, http.StatusOK, ListApprovalsResponse{
		Approvals: entries,
		Pagination: Pagination{
			Page:       pg.Number,
			PageSize:   pg.Size,
			Total:      total,
			TotalPages: pg.TotalPages(total),
			HasNext:    pg.HasNext(total),
		},
	})
}
