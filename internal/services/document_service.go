// Package services – DocumentService
//
// DocumentService builds the pending approval queue from the three document
// sources. Each source is fetched concurrently and fails on its own: a failed
// or malformed source contributes nothing and is reported in Queue.Failed,
// while the others still load. The merged queue is ordered newest first with
// ties kept in source order (imports, invoices, returns).
package services

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
)

// sourcePaths maps each document type to its list endpoint.
var sourcePaths = map[domain.DocumentType]string{
	domain.DocumentImport:  "imports",
	domain.DocumentInvoice: "invoices",
	domain.DocumentReturn:  "returns",
}

// Queue is a snapshot of documents awaiting approval.
type Queue struct {
	Documents []domain.Document     `json:"documents"`
	Failed    []domain.DocumentType `json:"failed_sources,omitempty"`
	LoadedAt  time.Time             `json:"loaded_at"`
}

// Degraded reports whether at least one source could not be loaded, so the
// queue may be incomplete.
func (q Queue) Degraded() bool { return len(q.Failed) > 0 }

// Find returns the queued document with the given key.
func (q Queue) Find(t domain.DocumentType, id int64) (domain.Document, bool) {
	for _, d := range q.Documents {
		if d.Type == t && d.ID == id {
			return d, true
		}
	}
	return domain.Document{}, false
}

// Count returns the number of queued documents per type.
func (q Queue) Count() map[domain.DocumentType]int {
	out := make(map[domain.DocumentType]int, len(domain.DocumentTypes))
	for _, d := range q.Documents {
		out[d.Type]++
	}
	return out
}

// DocumentService loads documents through a Backend.
type DocumentService struct {
	Backend Backend
	Log     zerolog.Logger
	Now     func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(b Backend, log zerolog.Logger) *DocumentService {
	return &DocumentService{Backend: b, Log: log, Now: time.Now}
}

// List fetches and normalizes every document of one type, regardless of
// status. Records that cannot be normalized are skipped.
func (s *DocumentService) List(ctx context.Context, t domain.DocumentType) ([]domain.Document, error) {
	path, ok := sourcePaths[t]
	if !ok {
		return nil, ErrUnknownDocumentType
	}
	raw, err := s.Backend.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeList(raw)
	if err != nil {
		return nil, gateway.UnknownError("decode "+path+" list", err)
	}
	docs := make([]domain.Document, 0, len(records))
	for _, rec := range records {
		d, err := normalizeDocument(t, rec)
		if err != nil {
			s.Log.Debug().Str("source", string(t)).Err(err).Msg("skipping malformed record")
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// LoadPending fetches all sources concurrently and returns the merged pending
// queue. It never fails; unavailable sources are listed in Queue.Failed.
func (s *DocumentService) LoadPending(ctx context.Context) Queue {
	ctx, span := otel.Tracer("services/DocumentService").Start(ctx, "LoadPending")
	defer span.End()

	results := make([][]domain.Document, len(domain.DocumentTypes))
	errs := make([]error, len(domain.DocumentTypes))

	// Goroutines never return an error so one failing source cannot cancel
	// the others.
	var g errgroup.Group
	for i, t := range domain.DocumentTypes {
		g.Go(func() error {
			results[i], errs[i] = s.List(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	q := Queue{LoadedAt: s.now()}
	for i, t := range domain.DocumentTypes {
		if errs[i] != nil {
			docSourceFailures.WithLabelValues(string(t)).Inc()
			s.Log.Warn().Str("source", string(t)).Err(errs[i]).Msg("document source unavailable")
			q.Failed = append(q.Failed, t)
			continue
		}
		for _, d := range results[i] {
			if d.IsPending() {
				q.Documents = append(q.Documents, d)
			}
		}
	}
	if q.Documents == nil {
		q.Documents = []domain.Document{}
	}
	sort.SliceStable(q.Documents, func(a, b int) bool {
		return q.Documents[a].CreatedAt.After(q.Documents[b].CreatedAt)
	})

	span.SetAttributes(
		attribute.Int("queue.size", len(q.Documents)),
		attribute.Int("queue.failed_sources", len(q.Failed)),
	)
	return q
}

func (s *DocumentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
