// Package gateway is the single point through which the client talks to the
// warehouse backend. It injects the stored bearer token, bounds every call
// with a timeout, classifies failures into a small error taxonomy, and ends
// the session when the backend rejects the credential.
//
// A 401 or 403 clears the persisted session keys as one unit and fires the
// logout signal. Concurrent rejections of the same token form one episode:
// the clear and the signal happen once.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/signal"
)

// DefaultTimeout bounds a backend call when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 8 << 20

// Options configures a Client. Store is required; Signal defaults to
// signal.Default and HTTPClient to a plain http.Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Store      credentials.Store
	Signal     *signal.LogoutSignal
	Logger     zerolog.Logger
}

// Client issues authenticated JSON requests to the backend.
type Client struct {
	base      string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	store     credentials.Store
	signal    *signal.LogoutSignal
	log       zerolog.Logger

	// logoutMu serializes forced-logout episodes.
	logoutMu sync.Mutex
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, errors.New("gateway: credential store is required")
	}
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway: invalid base URL %q", opts.BaseURL)
	}
	c := &Client{
		base:      u.String(),
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		store:     opts.Store,
		signal:    opts.Signal,
		log:       opts.Logger.With().Str("component", "gateway").Logger(),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.signal == nil {
		c.signal = signal.Default
	}
	return c, nil
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string { return c.base }

// Get is Request with GET and no body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil, query)
}

// Post is Request with POST.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, body, nil)
}

// Put is Request with PUT.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, body, nil)
}

// Request sends method path with an optional JSON body and query and returns
// the raw JSON reply (nil for an empty 2xx body). Every error is a *Error.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	tr := otel.Tracer("gateway/Client")
	ctx, span := tr.Start(ctx, "Request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	raw, status, err := c.do(ctx, method, path, body, query)

	gwReqs.WithLabelValues(method, outcomeOf(err)).Inc()
	gwLat.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}

	var ev *zerolog.Event
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		ev = c.log.Warn().Str("kind", KindOf(err).String()).Err(err)
	} else {
		ev = c.log.Debug()
	}
	ev.Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("backend request")

	return raw, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, int, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, UnknownError("encode request body", err)
		}
		rdr = bytes.NewReader(b)
	}

	target := c.base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, 0, UnknownError("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	token, err := credentials.Token(ctx, c.store)
	if err != nil {
		return nil, 0, UnknownError("read access token", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, NetworkError(networkMessage(err), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, NetworkError("read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.endSession(ctx, token, resp.StatusCode)
		return nil, resp.StatusCode, AuthError(resp.StatusCode, "session expired")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, ServerError(resp.StatusCode, data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, resp.StatusCode, nil
	}
	if !json.Valid(data) {
		return nil, resp.StatusCode, UnknownError("response is not valid JSON", nil)
	}
	return json.RawMessage(data), resp.StatusCode, nil
}

// endSession clears the session and fires the logout signal. With a token,
// only the first rejection of that token counts; a request sent without one
// always clears whatever identity is cached. The clear outlives the request
// deadline.
func (c *Client) endSession(ctx context.Context, token string, status int) {
	c.logoutMu.Lock()
	defer c.logoutMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if token == "" {
		if err := credentials.Clear(ctx, c.store); err != nil {
			c.log.Error().Err(err).Msg("clear session after auth failure")
			return
		}
	} else {
		cleared, err := credentials.ClearIfCurrent(ctx, c.store, token)
		if err != nil {
			c.log.Error().Err(err).Msg("clear session after auth failure")
			return
		}
		if !cleared {
			return
		}
	}
	gwLogouts.Inc()
	c.log.Warn().Int("status", status).Bool("had_token", token != "").Msg("session rejected by backend; logged out")
	c.signal.Fire()
}

func networkMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return "request timed out"
	}
	return "connection failed"
}

// Decode unmarshals raw into v, classifying failure as an unknown error.
func Decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return UnknownError("empty response body", nil)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return UnknownError("decode response", err)
	}
	return nil
}
