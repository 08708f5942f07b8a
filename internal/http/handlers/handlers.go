// Operator console HTTP handlers.
//
// This file holds the service contracts the handlers depend on, the Handlers
// wiring, shared DTOs and the mapping from service and backend errors to
// HTTP responses. Endpoints live in the *_handler.go files:
//   - session_handler.go   login, logout, status, password, profile
//   - document_handler.go  pending queue, search, XLSX export
//   - approval_handler.go  approve a document, approval history
//   - report_handler.go    read-only backend reports

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
	"github.com/tbourn/go-warehouse-approvals/internal/utils"
)

//
// Service contracts (context-aware)
//

// SessionService manages the single operator session the console fronts.
type SessionService interface {
	Login(ctx context.Context, username, password string) (domain.User, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (services.SessionStatus, error)
	// RefreshProfile fetches the profile from the backend and caches it.
	RefreshProfile(ctx context.Context) (domain.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// DocumentService loads the pending approval queue.
type DocumentService interface {
	LoadPending(ctx context.Context) services.Queue
}

// ApprovalService approves one document at a time.
type ApprovalService interface {
	Submit(ctx context.Context, req services.ApprovalRequest) (services.ApprovalResult, error)
}

// ReportService fetches read-only reports.
type ReportService interface {
	Fetch(ctx context.Context, name services.ReportName, p services.ReportParams) (json.RawMessage, error)
}

// HistoryService pages through the local approval log. It is nil when the
// console runs without a database.
type HistoryService interface {
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ApprovalRecord, int64, error)
	// Stats returns the record count and newest timestamp, used for ETags.
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Handlers groups the console endpoints.
type Handlers struct {
	sessions  SessionService
	docs      DocumentService
	approvals ApprovalService
	reports   ReportService
	history   HistoryService

	now func() time.Time
}

// New constructs Handlers. history may be nil.
func New(sessions SessionService, docs DocumentService, approvals ApprovalService, reports ReportService, history HistoryService) *Handlers {
	return &Handlers{
		sessions:  sessions,
		docs:      docs,
		approvals: approvals,
		reports:   reports,
		history:   history,
		now:       time.Now,
	}
}

// userID returns the operator id set by the session middleware.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination reads the page and page_size query params.
func clampPagination(c *gin.Context) utils.Page {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"))
}

// failErr maps a service or gateway error to a response.
//
//	ErrBusy                       409 approval_in_progress
//	validation errors             400 bad_request
//	ErrUnknownReport              404 not_found
//	ErrInvalidCredentials         401 invalid_credentials
//	ErrNotLoggedIn                401 unauthorized
//	gateway auth                  401 session_expired
//	gateway server                502 backend_error
//	gateway network               503 backend_unavailable (504 on timeout)
//	gateway unknown, bad profile  502 bad_backend_response
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBusy):
		fail(c, http.StatusConflict, ErrCodeBusy, err.Error())
	case errors.Is(err, services.ErrUnknownDocumentType),
		errors.Is(err, services.ErrInvalidDocumentID),
		errors.Is(err, services.ErrMissingCredentials),
		errors.Is(err, services.ErrInvalidPassword),
		errors.Is(err, services.ErrInvalidReportParams):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrUnknownReport):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrNotLoggedIn):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "login required")
	case errors.Is(err, gateway.ErrAuth):
		fail(c, http.StatusUnauthorized, ErrCodeSessionExpired, "session expired; login required")
	case errors.Is(err, gateway.ErrServer):
		fail(c, http.StatusBadGateway, ErrCodeBackendError, err.Error())
	case errors.Is(err, gateway.ErrNetwork):
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		fail(c, status, ErrCodeBackendUnavailable, err.Error())
	case errors.Is(err, gateway.ErrUnknown), errors.Is(err, services.ErrProfileUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeBadBackendResponse, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
