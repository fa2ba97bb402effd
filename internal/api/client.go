// Package api is the HTTP client of the Faunagram backend. It attaches the
// session token, decodes JSON responses and turns failures into categorized
// errors carrying the HTTP status and the server's message.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/httpclient"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/observability/metrics"
)

const (
	headerRequestID = "X-Request-ID"
	contentTypeJSON = "application/json"

	// maxErrorBody bounds how much of an error response is read for its message.
	maxErrorBody = 64 * 1024
)

// TokenSource provides the bearer token, empty when anonymous
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// Config configures the API client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *httpclient.Client
	Logger     logger.Logger
	Metrics    *metrics.APIMetrics
}

// Client issues requests against the backend
type Client struct {
	baseURL *url.URL
	http    *httpclient.Client
	tokens  TokenSource
	log     logger.Logger
	metrics *metrics.APIMetrics

	mu             sync.RWMutex
	onUnauthorized func()
}

// NewClient creates a client for the backend at cfg.BaseURL
func NewClient(cfg Config, tokens TokenSource) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, errors.Newf("invalid API base URL %q", cfg.BaseURL).
			Category(errors.CategoryConfiguration).
			Component("api").
			Build()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpclient.New(&httpclient.Config{
			DefaultTimeout: cfg.Timeout,
			UserAgent:      cfg.UserAgent,
		})
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("api")
	}

	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}

	c := &Client{
		baseURL: base,
		http:    hc,
		tokens:  tokens,
		log:     log,
		metrics: cfg.Metrics,
	}
	hc.SetAfterResponseHook(c.observe)
	return c, nil
}

// SetUnauthorizedHandler installs the function run when a protected request
// is rejected with 401 while a token was attached.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Close releases idle connections
func (c *Client) Close() {
	c.http.Close()
}

// Get decodes the JSON response of GET path into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues DELETE path and discards the response body
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// PostMultipart sends form as multipart/form-data
func (c *Client) PostMultipart(ctx context.Context, path string, form *Form, out any) error {
	return c.doMultipart(ctx, http.MethodPost, path, form, out)
}

// PutMultipart sends form as multipart/form-data
func (c *Client) PutMultipart(ctx context.Context, path string, form *Form, out any) error {
	return c.doMultipart(ctx, http.MethodPut, path, form, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryValidation).
				Component("api").
				Context("operation", "encode-request").
				Build()
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	return c.send(ctx, req, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, form *Form, out any) error {
	if form == nil {
		form = NewForm()
	}
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(ctx, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.resolve(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryHTTP).
			Component("api").
			NetworkContext(method, u.String()).
			Build()
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(headerRequestID, uuid.NewString())
	return req, nil
}

func (c *Client) resolve(path string) *url.URL {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	return &u
}

// send attaches the token, performs the request and decodes the result.
func (c *Client) send(ctx context.Context, req *http.Request, out any) error {
	token := c.tokens.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return c.transportError(ctx, req, err, time.Since(start))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug("failed to close response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newStatusError(req, resp.StatusCode, data)

		if resp.StatusCode == http.StatusUnauthorized && token != "" && !isAuthEndpoint(req.Method, c.relativePath(req.URL.Path)) {
			c.handleUnauthorized(req)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(ctx, req, err, time.Since(start))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileParsing).
			Component("api").
			Context("operation", "decode-response").
			Context("resource", resourceOf(c.relativePath(req.URL.Path))).
			Build()
	}
	return nil
}

func (c *Client) handleUnauthorized(req *http.Request) {
	c.metrics.RecordUnauthorized()
	c.log.Info("session rejected by server",
		logger.String("method", req.Method),
		logger.String("path", c.relativePath(req.URL.Path)))

	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) transportError(ctx context.Context, req *http.Request, err error, elapsed time.Duration) error {
	category, priority := errors.CategoryNetwork, errors.PriorityMedium
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		category, priority = errors.CategoryCancellation, errors.PriorityLow
	case errors.Is(err, context.DeadlineExceeded):
		category, priority = errors.CategoryTimeout, errors.PriorityHigh
	}
	return errors.New(err).
		Category(category).
		Priority(priority).
		Component("api").
		NetworkContext(req.Method, req.URL.String()).
		Timing("request", elapsed).
		Context("resource", resourceOf(c.relativePath(req.URL.Path))).
		Build()
}

// observe is the after-response hook: metrics and debug logging.
func (c *Client) observe(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	path := c.relativePath(req.URL.Path)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.metrics.RecordRequest(req.Method, resourceOf(path), status, elapsed.Seconds())

	fields := []logger.Field{
		logger.String("method", req.Method),
		logger.String("path", path),
		logger.Int("status", status),
		logger.Duration("elapsed", elapsed),
		logger.String("request_id", req.Header.Get(headerRequestID)),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	c.log.Debug("api request", fields...)
}

// relativePath strips the base URL path, leaving e.g. "/sightings/5".
func (c *Client) relativePath(p string) string {
	rel := strings.TrimPrefix(p, c.baseURL.Path)
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// isAuthEndpoint reports whether a 401 belongs to the caller instead of the session.
func isAuthEndpoint(method, path string) bool {
	if method != http.MethodPost {
		return false
	}
	path = strings.TrimRight(path, "/")
	return path == "/login" || path == "/users"
}

// resourceOf returns the first path segment, used as a metric label.
func resourceOf(path string) string {
	seg := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if seg == "" {
		return "root"
	}
	return seg
}
