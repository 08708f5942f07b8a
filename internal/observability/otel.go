// Package observability sets up OpenTelemetry tracing for the console server
// and the CLI. Spans from the gateway, the document aggregator, approvals and
// the credential database are exported over OTLP/gRPC when enabled.
package observability

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-warehouse-approvals/internal/config"
)

// Process describes the running binary for the trace resource.
type Process struct {
	Version string
	// Role is "console" or "cli".
	Role string
	// BackendURL is recorded as the peer host so traces from several
	// deployments can be told apart.
	BackendURL string
}

// Attributes returns the resource attributes of p beyond service name and
// version.
func (p Process) Attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if p.Role != "" {
		attrs = append(attrs, attribute.String("warehouse.role", p.Role))
	}
	if u, err := url.Parse(p.BackendURL); err == nil && u.Host != "" {
		attrs = append(attrs, attribute.String("warehouse.backend.host", u.Host))
	}
	return attrs
}

// ---- test seams ----
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName string, p Process) (*resource.Resource, error) {
		attrs := append([]attribute.KeyValue{
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(p.Version),
		}, p.Attributes()...)
		return resource.New(ctx, resource.WithAttributes(attrs...))
	}
)

// SetupOTel configures tracing and returns a shutdown function. When tracing
// is disabled the global no-op provider is left in place.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, p Process) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, p)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}
