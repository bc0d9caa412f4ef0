package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "adaboards/gateway"
	maxResponseSize = 4 << 20
	defaultTimeout  = 30 * time.Second
)

// TokenSource supplies the bearer token attached to requests. A source
// reporting no token is not an error; unauthenticated endpoints exist.
type TokenSource interface {
	Token() (string, bool)
}

// Client issues JSON requests against the Adaboards API. It performs no
// retries; retry policy belongs to the caller.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *log.Logger
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets where bearer tokens are read from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for request debug lines.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// New creates a gateway client for the given base URL, e.g.
// "http://localhost:3000/api".
func New(baseURL string, opts ...Option) *Client {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log.StandardLogger(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallOption adjusts a single request.
type CallOption func(*http.Request)

// WithIdempotencyKey stamps the request with a stable key so a retried
// write is recognized by the server as the same operation.
func WithIdempotencyKey(key string) CallOption {
	return func(r *http.Request) { r.Header.Set("Idempotency-Key", key) }
}

// Do sends one request. body is marshaled as JSON when non-nil; out is
// filled from a 2xx response body when non-nil. Non-2xx responses yield
// *APIError, transport failures *NetworkError, undecodable success
// bodies *DecodeError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any, opts ...CallOption) (err error) {
	ctx, span := c.tracer.Start(ctx, "gateway.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("adaboards.endpoint", endpoint),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reqBody io.Reader
	if body != nil {
		payload, merr := sonic.ConfigStd.Marshal(body)
		if merr != nil {
			return merr
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(log.Fields{
			"method":   method,
			"endpoint": endpoint,
			"error":    err.Error(),
		}).Debug("gateway.request.failed")
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.log.WithFields(log.Fields{
		"method":   method,
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"total_ms": float64(time.Since(start)) / float64(time.Millisecond),
	}).Debug("gateway.request")

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.ConfigStd.Unmarshal(data, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// errorMessage extracts the {"error": …} body the API sends on failure.
func errorMessage(status int, data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := sonic.ConfigStd.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(status)
}
