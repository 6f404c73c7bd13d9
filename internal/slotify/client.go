package slotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/slotify/internal/observability/metrics"
	"github.com/wolfman30/slotify/pkg/logging"
)

const (
	defaultBaseURL = "https://localhost:7208"
	maxErrorBody   = 300
)

var apiTracer = otel.Tracer("slotify.internal.slotify")

// SlotifyClient wraps the REST calls the booking workflow and the owner
// dashboard make against the Slotify API. It never retries on its own and
// applies no timeout beyond what the http.Client and ctx impose.
type SlotifyClient struct {
	httpClient  *http.Client
	baseURL     string
	fallbackURL string
	logger      *logging.Logger
	metrics     *metrics.ClientMetrics
}

// Option customises a SlotifyClient.
type Option func(*SlotifyClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *SlotifyClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *SlotifyClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFallbackBaseURL sets the base URL that booking creation falls back to
// when the primary one produced no response.
func WithFallbackBaseURL(baseURL string) Option {
	return func(c *SlotifyClient) {
		c.fallbackURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithMetrics records per-request counters and latency.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *SlotifyClient) { c.metrics = m }
}

// NewSlotifyClient constructs a Slotify REST client.
func NewSlotifyClient(baseURL string, opts ...Option) *SlotifyClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	c := &SlotifyClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the primary API base URL.
func (c *SlotifyClient) BaseURL() string { return c.baseURL }

func (c *SlotifyClient) doJSON(ctx context.Context, op, method, path string, session *Session, body, out interface{}) error {
	return c.doJSONAt(ctx, c.baseURL, op, method, path, session, body, out)
}

func (c *SlotifyClient) doJSONAt(ctx context.Context, baseURL, op, method, path string, session *Session, body, out interface{}) (err error) {
	ctx, span := apiTracer.Start(ctx, "slotify.api."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("slotify.path", path),
		attribute.String("slotify.base_url", baseURL),
	)

	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			span.RecordError(err)
			switch Classify(err) {
			case KindRejected:
				outcome = metrics.OutcomeRejected
			case KindNoResponse:
				outcome = metrics.OutcomeNoResponse
			case KindBadResponse:
				outcome = metrics.OutcomeBadResponse
			default:
				outcome = metrics.OutcomeRequest
			}
		}
		c.metrics.ObserveRequest(op, outcome, time.Since(start).Seconds())
	}()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Err: fmt.Errorf("marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, bodyReader)
	if err != nil {
		return &RequestError{Err: fmt.Errorf("build request: %w", err)}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.Header.Set("Authorization", session.authorization())
	}

	c.logger.Debug("slotify API request", "op", op, "method", method, "path", path, "request_id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NoResponseError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NoResponseError{Err: fmt.Errorf("read response: %w", err)}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := truncate(strings.TrimSpace(string(respBody)), maxErrorBody)
		c.logger.Warn("slotify API non-2xx response", "status", resp.StatusCode, "path", path, "request_id", reqID, "body", msg)
		return &APIError{Status: resp.StatusCode, Path: path, Body: msg}
	}

	if len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.logger.Warn("slotify API response not decodable", "op", op, "status", resp.StatusCode, "request_id", reqID, "error", err)
		return &ResponseError{Status: resp.StatusCode, Err: fmt.Errorf("decode %s response: %w", op, err)}
	}
	return nil
}

func requireSession(session *Session) error {
	if session == nil || strings.TrimSpace(session.Token) == "" {
		return &RequestError{Err: ErrSessionRequired}
	}
	return nil
}
