package services

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
)

// Backend is the gateway contract the services depend on. *gateway.Client
// implements it.
type Backend interface {
	Request(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error)
}

var (
	// docSourceFailures counts list fetches that collapsed to an empty source.
	docSourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_source_failures_total",
			Help: "Number of document list fetches that failed and were treated as empty.",
		},
		[]string{"source"},
	)

	// approvalsTotal counts settled approvals by document type and outcome
	// (approved|failed); busy rejections are counted as outcome "busy".
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvals_total",
			Help: "Number of approval attempts by document type and outcome.",
		},
		[]string{"type", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(docSourceFailures, approvalsTotal)
}
