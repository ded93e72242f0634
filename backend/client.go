// Package backend talks to the managed backend: the token auth service under
// /auth/v1 and the row API under /rest/v1.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/yourorg/pg-finder/internal/listing"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/metrics"
)

var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrNotFound     = listing.ErrNotFound
)

// Error is any non-2xx answer from the backend.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Body)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Rejected reports whether the backend refused the request itself (any 4xx),
// as opposed to being unreachable or failing.
func Rejected(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var be *Error
	return errors.As(err, &be) && be.Status >= 400 && be.Status < 500
}

type Options struct {
	BaseURL           string
	AnonKey           string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerSecond float64
	Logger            logger.Logger
}

type Client struct {
	key     string
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     logger.Logger
}

func NewClient(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = opts.RetryMax
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = opts.Timeout
	if rc.HTTPClient.Timeout <= 0 {
		rc.HTTPClient.Timeout = 6 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		key:     opts.AnonKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    rc,
		limiter: rate.NewLimiter(limit, 1+int(opts.RequestsPerSecond)),
		log:     log,
	}
}

type tokenKey struct{}

// WithAccessToken makes row API calls made with ctx run as the signed-in user.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func accessToken(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

type request struct {
	method   string
	path     string // includes query string
	body     any
	token    string // explicit bearer, overrides ctx
	resource string // metrics label
	prefer   string
}

// do sends the request and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("apikey", c.key)
	if r.body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}
	bearer := r.token
	if bearer == "" {
		bearer = accessToken(ctx)
	}
	if bearer == "" {
		bearer = c.key
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	start := time.Now()
	resp, err := c.http.Do(req)
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	metrics.BackendRequestDuration.WithLabelValues(r.resource, r.method, status).Observe(time.Since(start).Seconds())
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioReadAllLimit(resp.Body, 4<<20) // 4MB guard
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		c.log.Warn("backend request failed", map[string]interface{}{
			"resource": r.resource,
			"method":   r.method,
			"status":   resp.StatusCode,
		})
		return nil, &Error{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
