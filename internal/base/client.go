// Package base provides shared HTTP infrastructure for the Twitch and IGDB clients.
package base

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/olgasafonova/igdb-mcp-server/metrics"
	"github.com/olgasafonova/igdb-mcp-server/tracing"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultUserAgent identifies this server to upstream APIs
	DefaultUserAgent = "igdb-mcp-server/1.0 (github.com/olgasafonova/igdb-mcp-server)"

	// MaxResponseSize caps how much of an upstream response body is read
	MaxResponseSize = 10 << 20
)

// Client provides a single-attempt HTTP client with metrics and tracing.
// It never retries: every failure is returned to the caller as-is.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.Logger = l
	}
}

// WithUserAgent sets the User-Agent header sent upstream
func WithUserAgent(ua string) ClientOption {
	return func(client *Client) {
		if ua != "" {
			client.UserAgent = ua
		}
	}
}

// WithTimeout sets an overall request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.HTTPClient = newHTTPClient(d)
	}
}

// NewClient creates a new base client with default settings
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: newHTTPClient(0),
		Logger:     slog.Default(),
		UserAgent:  DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RequestConfig configures a single HTTP request
type RequestConfig struct {
	// Endpoint labels the call in metrics and traces (e.g. "token", "games")
	Endpoint    string
	Method      string // defaults to POST
	URL         string
	Headers     map[string]string
	Body        []byte
	ContentType string
}

// DoRequest performs one HTTP request and returns the body and status code.
// Transport failures return an error; any HTTP status is returned to the
// caller, which decides what counts as success.
func (c *Client) DoRequest(ctx context.Context, cfg RequestConfig) ([]byte, int, error) {
	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}

	ctx, span := tracing.StartSpan(ctx, "igdb.upstream."+cfg.Endpoint)
	defer span.End()

	var bodyReader io.Reader
	if cfg.Body != nil {
		bodyReader = bytes.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bodyReader)
	if err != nil {
		redactQuery(err)
		tracing.Fail(span, err)
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if cfg.ContentType != "" {
		req.Header.Set("Content-Type", cfg.ContentType)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	duration := time.Since(start).Seconds()
	if err != nil {
		redactQuery(err)
		metrics.RecordUpstreamCall(cfg.Endpoint, duration, false, "transport")
		tracing.AddUpstreamAttributes(span, cfg.Endpoint, method, 0)
		tracing.Fail(span, err)
		c.Logger.Warn("Upstream request failed",
			"endpoint", cfg.Endpoint,
			"error", err)
		return nil, 0, fmt.Errorf("request to %s failed: %w", cfg.Endpoint, err)
	}

	body, err := readAndClose(resp)
	tracing.AddUpstreamAttributes(span, cfg.Endpoint, method, resp.StatusCode)
	if err != nil {
		metrics.RecordUpstreamCall(cfg.Endpoint, duration, false, "read")
		tracing.Fail(span, err)
		return nil, resp.StatusCode, fmt.Errorf("failed to read %s response: %w", cfg.Endpoint, err)
	}

	if IsSuccess(resp.StatusCode) {
		metrics.RecordUpstreamCall(cfg.Endpoint, duration, true, "")
		span.SetStatus(codes.Ok, "")
	} else {
		metrics.RecordUpstreamCall(cfg.Endpoint, duration, false, strconv.Itoa(resp.StatusCode))
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	c.Logger.Debug("Upstream request completed",
		"endpoint", cfg.Endpoint,
		"status", resp.StatusCode,
		"duration_seconds", duration,
		"response_bytes", len(body))

	return body, resp.StatusCode, nil
}

// IsSuccess reports whether an HTTP status code is 2xx
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// redactQuery strips the query string from a *url.Error in err's chain.
// Token requests carry the client secret as a query parameter.
func redactQuery(err error) {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return
	}
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil && u.RawQuery != "" {
		u.RawQuery = ""
		urlErr.URL = u.String()
	}
}

// readAndClose reads the response body and closes it
func readAndClose(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}
	return body, nil
}

// newHTTPClient creates an HTTP client with optimized transport settings
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     120 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
