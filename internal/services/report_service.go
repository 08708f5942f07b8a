package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
)

// ReportName identifies a read-only backend report.
type ReportName string

const (
	ReportTopSelling     ReportName = "top-selling-products"
	ReportDailyRevenue   ReportName = "daily-revenue"
	ReportNetRevenue     ReportName = "net-revenue"
	ReportMonthlyRevenue ReportName = "monthly-revenue"
	ReportCustomerDebt   ReportName = "customer-debt"
)

// ReportNames lists the supported reports.
var ReportNames = []ReportName{
	ReportTopSelling, ReportDailyRevenue, ReportNetRevenue, ReportMonthlyRevenue, ReportCustomerDebt,
}

// ParseReportName validates s against ReportNames.
func ParseReportName(s string) (ReportName, error) {
	n := ReportName(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ReportNames {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReport, s)
}

// ReportParams are the optional report inputs. Date (YYYY-MM-DD) applies to
// the daily report and Year to the monthly one; both default to today.
type ReportParams struct {
	Date string
	Year int
}

// ReportService fetches reports. Payloads are passed through as JSON since
// their shape is owned by the backend.
type ReportService struct {
	Backend Backend
	Now     func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(b Backend) *ReportService {
	return &ReportService{Backend: b, Now: time.Now}
}

// Fetch returns the raw report, unwrapping a {"data": ...} envelope when
// present.
func (s *ReportService) Fetch(ctx context.Context, name ReportName, p ReportParams) (json.RawMessage, error) {
	q, err := s.query(name, p)
	if err != nil {
		return nil, err
	}
	raw, err := s.Backend.Request(ctx, http.MethodGet, "reports/"+string(name), nil, q)
	if err != nil {
		return nil, err
	}
	return unwrapData(raw)
}

func (s *ReportService) query(name ReportName, p ReportParams) (url.Values, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	switch name {
	case ReportDailyRevenue:
		date := strings.TrimSpace(p.Date)
		if date == "" {
			date = now.Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidReportParams)
		}
		return url.Values{"date": {date}}, nil
	case ReportMonthlyRevenue:
		year := p.Year
		if year == 0 {
			year = now.Year()
		}
		if year < 2000 || year > 9999 {
			return nil, fmt.Errorf("%w: year out of range", ErrInvalidReportParams)
		}
		return url.Values{"year": {strconv.Itoa(year)}}, nil
	case ReportTopSelling, ReportNetRevenue, ReportCustomerDebt:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReport, name)
}

func unwrapData(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	var env map[string]json.RawMessage
	if json.Unmarshal(raw, &env) != nil {
		return raw, nil
	}
	if data, ok := env["data"]; ok {
		if s, ok := env["success"]; ok && string(s) == "false" {
			return nil, gateway.UnknownError("report unavailable", nil)
		}
		return data, nil
	}
	return raw, nil
}
