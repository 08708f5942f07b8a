package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-warehouse-approvals/internal/services"
)

// ReportResponse carries a backend report. Data is passed through untouched.
type ReportResponse struct {
	Report string          `json:"report" example:"daily-revenue"`
	Data   json.RawMessage `json:"data" swaggertype:"object"`
}

// GetReport godoc
// @ID          getReport
// @Summary     Fetch a report
// @Description Proxies one of the backend's read-only reports.
// @Tags        Reports
// @Produce     json
// @Param       name  path   string  true   "Report name"  Enums(top-selling-products, daily-revenue, net-revenue, monthly-revenue, customer-debt)
// @Param       date  query  string  false  "Day for daily-revenue (YYYY-MM-DD), defaults to today"  example(2024-05-01)
// @Param       year  query  int     false  "Year for monthly-revenue, defaults to the current year"  example(2024)
// @Success     200  {object}  handlers.ReportResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown report"
// @Failure     502  {object}  handlers.ErrorResponse  "Backend error"
// @Router      /reports/{name} [get]
func (h *Handlers) GetReport(c *gin.Context) {
	name, err := services.ParseReportName(c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	p := services.ReportParams{Date: c.Query("date")}
	if y := strings.TrimSpace(c.Query("year")); y != "" {
		if p.Year, err = strconv.Atoi(y); err != nil {
			failErr(c, fmt.Errorf("%w: year must be a number", services.ErrInvalidReportParams))
			return
		}
	}

	data, err := h.reports.Fetch(c.Request.Context(), name, p)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReportResponse{Report: string(name), Data: data})
}
