package backend

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
	"time"

	"github.com/gofrs/uuid"

	"github.com/five82/pixgrab/internal/logger"
)

// Processor submits a page URL to the collaborator.
// This interface is implemented by *Client and can be used for testing.
type Processor interface {
	Process(ctx context.Context, pageURL, locale string) (*ProcessResponse, error)
}

// Ensure Client implements Processor at compile time.
var _ Processor = (*Client)(nil)

// Client talks to the collaborator HTTP API.
type Client struct {
	baseURL   *url.URL
	links     Links
	http      *http.Client
	userAgent string
	log       *logger.Logger
}

const (
	defaultUserAgent = "pixgrab"
	pingTimeout      = 3 * time.Second
	maxErrorBody     = 64 << 10
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the absolute collaborator base address,
// e.g. "http://127.0.0.1:5000/api".
func NewClient(apiBaseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		links:     NewLinks(base.String()),
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized collaborator base address.
func (c *Client) BaseURL() string { return c.links.Base() }

// Links returns the link builder bound to this client's base address.
func (c *Client) Links() Links { return c.links }

// ImageURL returns the download URL for an image identifier.
func (c *Client) ImageURL(id string) string { return c.links.ImageURL(id) }

// ArchiveURL returns the download URL for an archive name.
func (c *Client) ArchiveURL(name string) string { return c.links.ArchiveURL(name) }

// Process issues exactly one POST {base}/process_url. No retries.
func (c *Client) Process(ctx context.Context, pageURL, locale string) (*ProcessResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(ProcessRequest{URL: pageURL, Locale: locale})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var payload ProcessResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/process_url"), body, &payload); err != nil {
		return nil, err
	}
	// An empty list is a valid result; a missing one is not.
	if payload.Images == nil {
		return nil, &APIError{StatusCode: http.StatusOK, Err: errMissingImages}
	}
	return &payload, nil
}

// Ping checks that the collaborator answers on its origin root. Any HTTP
// response counts as reachable; a JSON body with server_ip is decoded when present.
func (c *Client) Ping(ctx context.Context) (HealthInfo, error) {
	if c == nil {
		return HealthInfo{}, fmt.Errorf("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	root := url.URL{Scheme: c.baseURL.Scheme, Host: c.baseURL.Host, Path: "/"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root.String(), nil)
	if err != nil {
		return HealthInfo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthInfo{}, &TransportError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return HealthInfo{}, &APIError{StatusCode: resp.StatusCode}
	}
	var info HealthInfo
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&info)
	return info, nil
}

func (c *Client) endpoint(path string) string {
	return c.links.Base() + path
}

func (c *Client) doJSON(ctx context.Context, method, target string, body []byte, dest any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := newRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("execute request: %w", ctxErr)
		}
		c.log.Warn().Str("request_id", requestID).Str("target", target).Err(err).Msg("collaborator unreachable")
		return &TransportError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("target", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", logger.Since(started)).
		Msg("collaborator responded")

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("decode response: %w", ctxErr)
		}
		return &APIError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return apiErr
	}
	var payload errorResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Err = errors.New(strings.TrimSpace(string(data)))
		return apiErr
	}
	apiErr.Message = payload.Error
	return apiErr
}

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return id.String()
}

func parseBaseURL(apiBaseURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBaseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", apiBaseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api base url %q has no host", apiBaseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
