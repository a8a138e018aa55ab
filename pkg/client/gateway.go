package client

import (
	"afribook/pkg/errors"
	"afribook/pkg/logger"
	"afribook/pkg/metrics"
	"afribook/pkg/storage"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	contentTypeJSON     = "application/json"
)

// Doer executes one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware decorates a Doer with one cross-cutting concern.
type Middleware func(next Doer) Doer

// Chain wraps base so that mws[0] is the outermost stage.
func Chain(base Doer, mws ...Middleware) Doer {
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// TeardownFunc is told that the API rejected the session with status.
// By the time it runs both session keys are already gone from storage.
type TeardownFunc func(ctx context.Context, status int)

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) String() string {
	if r == nil || r.Response == nil {
		return "<nil response>"
	}
	return fmt.Sprintf("%s %s", r.Status, string(r.Body))
}

// Gateway is the single entry point for calls to the bookings API. Every
// request passes through the same middleware chain.
type Gateway struct {
	baseURL string
	store   storage.Store
	log     *logger.Logger
	metrics *metrics.Metrics
	doer    Doer

	mu        sync.RWMutex
	teardowns []TeardownFunc
}

type gatewayOptions struct {
	httpClient  *http.Client
	timeout     time.Duration
	log         *logger.Logger
	metrics     *metrics.Metrics
	middlewares []Middleware
}

type Option func(*gatewayOptions)

func WithHTTPClient(c *http.Client) Option {
	return func(o *gatewayOptions) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *gatewayOptions) { o.timeout = d }
}

func WithLogger(log *logger.Logger) Option {
	return func(o *gatewayOptions) { o.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *gatewayOptions) { o.metrics = m }
}

// WithMiddleware adds stages between the metrics stage and the session
// stages, in the order given.
func WithMiddleware(mws ...Middleware) Option {
	return func(o *gatewayOptions) { o.middlewares = append(o.middlewares, mws...) }
}

func NewGateway(baseURL string, store storage.Store, opts ...Option) *Gateway {
	o := gatewayOptions{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	if o.metrics == nil {
		o.metrics = metrics.Nop()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	if baseURL == "" {
		baseURL = ProductionBaseURL
	}

	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		log:     o.log,
		metrics: o.metrics,
	}

	stages := []Middleware{
		RequestID(),
		Logging(o.log),
		Metrics(o.metrics),
	}
	stages = append(stages, o.middlewares...)
	stages = append(stages,
		UnauthorizedTeardown(store, o.log, g.fireTeardown),
		BearerAuth(store, o.log),
	)
	g.doer = Chain(o.httpClient, stages...)

	return g
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// OnUnauthorized registers fn to run after every 401/403 teardown.
func (g *Gateway) OnUnauthorized(fn TeardownFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardowns = append(g.teardowns, fn)
}

func (g *Gateway) fireTeardown(ctx context.Context, status int) {
	g.metrics.SessionTeardowns.WithLabelValues(fmt.Sprintf("%d", status)).Inc()

	g.mu.RLock()
	hooks := make([]TeardownFunc, len(g.teardowns))
	copy(hooks, g.teardowns)
	g.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, status)
	}
}

func (g *Gateway) GET(ctx context.Context, path string) (*Response, error) {
	return g.Do(ctx, http.MethodGet, path, nil, nil)
}

func (g *Gateway) POST(ctx context.Context, path string, body any) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}
	return g.Do(ctx, http.MethodPost, path, reqBody, nil)
}

func (g *Gateway) POSTMultipart(ctx context.Context, path string, form *MultipartForm) (*Response, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode multipart body: %w", err)
	}
	return g.Do(ctx, http.MethodPost, path, body, map[string]string{headerContentType: contentType})
}

// Do sends one request through the middleware chain. A non-2xx status is
// returned as an *errors.AppError alongside the response; a request that
// never got a response fails with errors.CodeTransport. Nothing is retried.
func (g *Gateway) Do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	httpResp, err := g.doer.Do(req)
	if err != nil {
		return nil, errors.Transport(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Transport(fmt.Errorf("failed to read response body: %w", err))
	}

	resp := &Response{
		Response: httpResp,
		Body:     respBody,
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, errors.FromStatus(httpResp.StatusCode, GetErrorMessage(resp))
	}
	return resp, nil
}

// GetErrorMessage extracts the server-supplied message from an error body:
// message, then error, then code. Non-JSON bodies yield "".
func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return ""
	}

	if errResp.Message != "" {
		return errResp.Message
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return errResp.Code
}
