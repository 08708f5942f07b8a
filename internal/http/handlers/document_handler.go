// Document HTTP handlers.
//
//   - GET /documents/pending         (merged pending queue, optional ?q= search)
//   - GET /documents/pending/export  (same queue as an XLSX workbook)
//
// A source that failed to load is reported in "failed" and the remaining
// sources are still served.
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/export"
	"github.com/tbourn/go-warehouse-approvals/internal/search"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
)

// PendingResponse is the pending approval queue.
type PendingResponse struct {
	Documents []domain.Document           `json:"documents"`
	Query     string                      `json:"query,omitempty"`
	Matched   int                         `json:"matched"`
	Total     int                         `json:"total"`
	ByType    map[domain.DocumentType]int `json:"by_type"`
	Failed    []domain.DocumentType       `json:"failed"`
	Degraded  bool                        `json:"degraded"`
	LoadedAt  time.Time                   `json:"loaded_at"`
}

func newPendingResponse(q services.Queue, query string) PendingResponse {
	docs := search.Filter(q.Documents, query)
	failed := q.Failed
	if failed == nil {
		failed = []domain.DocumentType{}
	}
	return PendingResponse{
		Documents: docs,
		Query:     query,
		Matched:   len(docs),
		Total:     len(q.Documents),
		ByType:    q.Count(),
		Failed:    failed,
		Degraded:  q.Degraded(),
		LoadedAt:  q.LoadedAt,
	}
}

// ListPending godoc
// @ID          listPending
// @Summary     Pending approvals
// @Description Loads imports, invoices and returns concurrently and returns the pending ones, newest first. Sources that failed are listed in "failed".
// @Tags        Documents
// @Produce     json
// @Param       q    query     string  false  "Accent-insensitive search over code, partner, creator, note and products"  example(nguyen)
// @Success     200  {object}  handlers.PendingResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Login required"
// @Router      /documents/pending [get]
func (h *Handlers) ListPending(c *gin.Context) {
	q := h.docs.LoadPending(c.Request.Context())
	ok(c, http.StatusOK, newPendingResponse(q, strings.TrimSpace(c.Query("q"))))
}

// ExportPending godoc
// @ID          exportPending
// @Summary     Export pending approvals
// @Description Returns the pending queue, filtered by q when given, as an XLSX workbook.
// @Tags        Documents
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param       q    query     string  false  "Search filter"
// @Success     200  {file}    file
// @Header      200  {string}  X-Degraded  "true when a source failed to load"
// @Failure     401  {object}  handlers.ErrorResponse  "Login required"
// @Failure     500  {object}  handlers.ErrorResponse  "Export failed"
// @Router      /documents/pending/export [get]
func (h *Handlers) ExportPending(c *gin.Context) {
	q := h.docs.LoadPending(c.Request.Context())
	if query := strings.TrimSpace(c.Query("q")); query != "" {
		q.Documents = search.Filter(q.Documents, query)
	}

	var buf bytes.Buffer
	if err := export.WriteQueue(&buf, q); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}
	if q.Degraded() {
		c.Header("X-Degraded", "true")
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(q.LoadedAt)))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
