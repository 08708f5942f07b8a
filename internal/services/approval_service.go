// Package services – ApprovalService
//
// ApprovalService approves one document at a time across the whole process.
// A second approval started while one is in flight is rejected with ErrBusy
// before any request is sent; it is never queued. Backend failures are
// returned unchanged so callers can classify them with the gateway sentinels.
// Settled attempts are written to an optional audit log, which also lets a
// repeated idempotency key replay an earlier success.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/repo"
)

// approveRoute is the backend call that approves one document type.
type approveRoute struct {
	method string
	prefix string
}

// approveRoutes is the dispatch table. Imports use PUT, the others POST.
var approveRoutes = map[domain.DocumentType]approveRoute{
	domain.DocumentImport:  {method: http.MethodPut, prefix: "imports"},
	domain.DocumentInvoice: {method: http.MethodPost, prefix: "invoices"},
	domain.DocumentReturn:  {method: http.MethodPost, prefix: "returns"},
}

// ApprovalPath returns the method and backend path approving (t, id).
func ApprovalPath(t domain.DocumentType, id int64) (string, string, error) {
	r, ok := approveRoutes[t]
	if !ok {
		return "", "", ErrUnknownDocumentType
	}
	if id <= 0 {
		return "", "", ErrInvalidDocumentID
	}
	return r.method, fmt.Sprintf("%s/%d/approve", r.prefix, id), nil
}

// ApprovalLog is the audit contract used by ApprovalService.
type ApprovalLog interface {
	RecordApproval(ctx context.Context, rec domain.ApprovalRecord) error
	LookupApproval(ctx context.Context, userID, key string) (*domain.ApprovalRecord, error)
}

// ApprovalRequest identifies the document to approve. IdempotencyKey is
// optional.
type ApprovalRequest struct {
	Type           domain.DocumentType
	ID             int64
	IdempotencyKey string
}

// ApprovalResult describes a successful approval.
type ApprovalResult struct {
	Key        domain.DocumentKey `json:"document"`
	ApprovedAt time.Time          `json:"approved_at"`
	// Replayed is true when the result came from the audit log and no
	// request was sent.
	Replayed bool `json:"replayed"`
}

// ApprovalService coordinates approvals.
type ApprovalService struct {
	Backend   Backend
	Documents *DocumentService
	Audit     ApprovalLog // optional
	Sessions  credentials.Store
	Log       zerolog.Logger
	Now       func() time.Time

	inFlight atomic.Bool
}

// NewApprovalService constructs an ApprovalService. audit may be nil.
func NewApprovalService(b Backend, docs *DocumentService, audit ApprovalLog, sessions credentials.Store, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{
		Backend:   b,
		Documents: docs,
		Audit:     audit,
		Sessions:  sessions,
		Log:       log,
		Now:       time.Now,
	}
}

// CanApprove reports whether no approval is in flight.
func (s *ApprovalService) CanApprove() bool { return !s.inFlight.Load() }

// Approve approves document (t, id).
func (s *ApprovalService) Approve(ctx context.Context, t domain.DocumentType, id int64) error {
	_, err := s.Submit(ctx, ApprovalRequest{Type: t, ID: id})
	return err
}

// ApproveAndReload approves (t, id) and, on success, returns the freshly
// loaded pending queue. On failure the queue is not reloaded.
func (s *ApprovalService) ApproveAndReload(ctx context.Context, t domain.DocumentType, id int64) (Queue, error) {
	if err := s.Approve(ctx, t, id); err != nil {
		return Queue{}, err
	}
	return s.Documents.LoadPending(ctx), nil
}

// Submit runs one approval. It returns ErrBusy without contacting the
// backend when another approval is in flight, and the gateway error
// unchanged when the backend call fails.
func (s *ApprovalService) Submit(ctx context.Context, req ApprovalRequest) (ApprovalResult, error) {
	method, path, err := ApprovalPath(req.Type, req.ID)
	if err != nil {
		return ApprovalResult{}, err
	}
	key := domain.DocumentKey{Type: req.Type, ID: req.ID}
	idemKey := strings.TrimSpace(req.IdempotencyKey)
	userID := s.userID(ctx)

	if idemKey != "" && s.Audit != nil {
		rec, err := s.Audit.LookupApproval(ctx, userID, idemKey)
		switch {
		case err == nil && rec.Succeeded() && rec.DocumentKey() == key:
			return ApprovalResult{Key: key, ApprovedAt: rec.CreatedAt, Replayed: true}, nil
		case err != nil && !errors.Is(err, repo.ErrNotFound):
			s.Log.Warn().Err(err).Msg("approval log lookup failed")
		}
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		approvalsTotal.WithLabelValues(string(req.Type), "busy").Inc()
		return ApprovalResult{}, ErrBusy
	}
	defer s.inFlight.Store(false)

	ctx, span := otel.Tracer("services/ApprovalService").Start(ctx, "Approve")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.type", string(req.Type)),
		attribute.Int64("document.id", req.ID),
	)
	_, err = s.Backend.Request(ctx, method, path, nil, nil)

	now := s.now().UTC()
	rec := domain.ApprovalRecord{
		UserID:       userID,
		DocumentType: string(req.Type),
		DocumentID:   req.ID,
		Outcome:      domain.OutcomeApproved,
		CreatedAt:    now,
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, gateway.KindOf(err).String())
		rec.Outcome = domain.OutcomeFailed
		rec.ErrorKind = gateway.KindOf(err).String()
		rec.ErrorMessage = err.Error()
		rec.HTTPStatus = gateway.StatusOf(err)
	} else if idemKey != "" {
		// Only successes claim the key, so a failed attempt can be retried
		// under the same key.
		rec.IdempotencyKey = &idemKey
	}
	s.record(ctx, rec)
	approvalsTotal.WithLabelValues(string(req.Type), rec.Outcome).Inc()

	if err != nil {
		s.Log.Warn().Str("document", key.String()).Err(err).Msg("approval failed")
		return ApprovalResult{}, err
	}
	s.Log.Info().Str("document", key.String()).Msg("document approved")
	return ApprovalResult{Key: key, ApprovedAt: now}, nil
}

func (s *ApprovalService) record(ctx context.Context, rec domain.ApprovalRecord) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.RecordApproval(context.WithoutCancel(ctx), rec); err != nil {
		s.Log.Error().Err(err).Str("document", rec.DocumentKey().String()).Msg("record approval")
	}
}

// userID reads the operator id before the request, since an auth failure
// clears the session.
func (s *ApprovalService) userID(ctx context.Context) string {
	if s.Sessions == nil {
		return ""
	}
	id, _, err := s.Sessions.Get(ctx, credentials.KeyUserID)
	if err != nil {
		return ""
	}
	return id
}

func (s *ApprovalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
