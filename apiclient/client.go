package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout  = 5 * time.Second
	RequestIDHeader = "X-Request-ID"
)

// Session is the token authority the client consults before each send and after a 401.
// Only Refresh and Logout may change the token.
type Session interface {
	AccessToken() string
	Refresh(ctx context.Context) (string, error)
	Logout()
}

// Request describes one backend call. Body is buffered so a retry re-sends it unchanged.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header
	Timeout     time.Duration // zero uses the client timeout
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", apierror.ErrInvalidResponse, err)
	}
	return nil
}

// Client is the single chokepoint for backend calls: it attaches the bearer token,
// refreshes on 401 and retries the original request once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     zerolog.Logger
	metrics    *metrics.Collectors
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Collectors) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(baseURL string, session Session, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		session:    session,
		timeout:    DefaultTimeout,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req. A 401 triggers one session refresh and one retry; a second 401,
// or a failed refresh, logs the session out and fails with apierror.ErrAuthExpired.
// Other non-2xx responses are returned together with an *apierror.HTTPError
// (*apierror.ValidationError for 422).
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	sent := c.currentToken()
	resp, err := c.send(ctx, req, sent)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.session != nil {
		renewed, err := c.renew(ctx, sent)
		if err != nil {
			c.session.Logout()
			return nil, fmt.Errorf("%w: %s %s: %w", apierror.ErrAuthExpired, req.Method, req.Path, err)
		}

		if c.metrics != nil {
			c.metrics.Retries.Inc()
		}
		resp, err = c.send(ctx, req, renewed)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.Warn().Str("method", req.Method).Str("path", req.Path).Msg("request rejected after token refresh")
			c.session.Logout()
			return nil, fmt.Errorf("%w: %s %s: %w", apierror.ErrAuthExpired, req.Method, req.Path, apierror.NewHTTPError(resp.StatusCode, resp.Body))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, statusError(resp)
	}
	return resp, nil
}

// renew returns a usable token after a 401 for a request sent with sent.
// When the session already moved on to another token the request is replayed with it
// rather than refreshing a second time.
func (c *Client) renew(ctx context.Context, sent string) (string, error) {
	if current := c.session.AccessToken(); current != "" && current != sent {
		c.observeRefresh(metrics.RefreshSkipped)
		return current, nil
	}
	renewed, err := c.session.Refresh(ctx)
	if err != nil {
		c.observeRefresh(metrics.RefreshFailed)
		return "", err
	}
	c.observeRefresh(metrics.RefreshSucceeded)
	return renewed, nil
}

func (c *Client) send(ctx context.Context, req Request, accessToken string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", apierror.ErrNetwork, err)
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", req.Method, req.Path, err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	requestID := uuid.New().String()
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observeRequest(req.Method, 0, time.Since(start))
		c.logger.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).Msg("request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", apierror.ErrNetwork, req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	elapsed := time.Since(start)
	if err != nil {
		c.observeRequest(req.Method, 0, elapsed)
		return nil, fmt.Errorf("%w: read %s %s: %w", apierror.ErrNetwork, req.Method, req.Path, err)
	}
	c.observeRequest(req.Method, httpResp.StatusCode, elapsed)
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", requestID).
		Msg("request")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (c *Client) url(req Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

func (c *Client) currentToken() string {
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken()
}

func (c *Client) observeRequest(method string, status int, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(method, status, elapsed)
	}
}

func (c *Client) observeRefresh(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveRefresh(outcome)
	}
}

func statusError(resp *Response) error {
	httpErr := apierror.NewHTTPError(resp.StatusCode, resp.Body)
	if resp.StatusCode == http.StatusUnprocessableEntity && httpErr.Message != "" {
		return &apierror.ValidationError{Message: httpErr.Message, Cause: httpErr}
	}
	return httpErr
}
