package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/config"
	"vidash/internal/logging"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token attached to authenticated requests.
type TokenSource interface {
	AccessToken() string
}

// RequestObserver receives one callback per completed HTTP exchange.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithTokenSource attaches credentials to every request.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "remote") }
}

// WithObserver reports request outcomes, typically to the metrics registry.
func WithObserver(observer RequestObserver) Option {
	return func(c *Client) { c.observer = observer }
}

// WithMediaBase sets the host serving uploaded media.
func WithMediaBase(mediaBase string) Option {
	return func(c *Client) { c.mediaBase = strings.TrimRight(strings.TrimSpace(mediaBase), "/") }
}

// Client talks to the dashboard Remote API.
type Client struct {
	base      *url.URL
	mediaBase string
	http      HTTPDoer
	tokens    TokenSource
	observer  RequestObserver
	logger    *slog.Logger
}

// New constructs a client rooted at baseURL, e.g. http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("remote: base url is required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/"
	base.RawQuery = ""
	base.Fragment = ""

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logging.NewComponentLogger(nil, "remote"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// NewFromConfig builds a client from the [api] config section.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("remote: config is required")
	}
	defaults := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		WithMediaBase(cfg.API.MediaBaseURL),
	}
	return New(cfg.API.BaseURL, append(defaults, opts...)...)
}

// BaseURL returns the API root the client resolves paths against.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

type request struct {
	method    string
	path      string
	route     string
	query     url.Values
	body      any
	anonymous bool
}

// send performs the HTTP exchange and decodes the response envelope. An empty
// 2xx body decodes as a successful envelope with a zero payload.
func send[T any](ctx context.Context, c *Client, r request) (api.Envelope[T], error) {
	var envelope api.Envelope[T]
	if c == nil {
		return envelope, apierr.Transport(r.route, errors.New("client not configured"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, c.logger)

	// r.path is already escaped per segment.
	ref, err := url.Parse(strings.TrimPrefix(r.path, "/"))
	if err != nil {
		return envelope, apierr.Wrap(apierr.ErrValidation, "remote", r.route, "invalid request path", err)
	}
	endpoint := c.base.ResolveReference(ref)
	if len(r.query) > 0 {
		endpoint.RawQuery = r.query.Encode()
	}

	var payload io.Reader
	if r.body != nil {
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return envelope, apierr.Wrap(apierr.ErrValidation, "remote", r.route, "encode request body", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint.String(), payload)
	if err != nil {
		return envelope, apierr.Transport(r.route, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.anonymous && c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.AccessToken()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(r, 0, started)
		logger.Debug("remote request failed", logging.String("route", r.route), logging.Error(err))
		return envelope, apierr.Transport(r.route, err)
	}
	defer resp.Body.Close()
	c.observe(r, resp.StatusCode, started)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope, apierr.Transport(r.route, err)
	}

	logger.Debug("remote request completed",
		logging.String("method", r.method),
		logging.String("route", r.route),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return envelope, statusError(resp.StatusCode, raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		envelope.Success = true
		return envelope, nil
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return envelope, apierr.Wrap(apierr.ErrTransient, "remote", r.route, "decode response", err)
	}
	return envelope, nil
}

func (c *Client) observe(r request, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(r.method, r.route, status, time.Since(started))
}

// statusError builds the normalized error for a non-2xx response. 401 always
// reads "Unauthorized"; other statuses prefer the server's message.
func statusError(status int, body []byte) error {
	if status == http.StatusUnauthorized {
		return apierr.FromStatus(status, "")
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apierr.FromStatus(status, "")
	}
	message := payload.Message
	if strings.TrimSpace(message) == "" {
		message = payload.Error
	}
	return apierr.FromStatus(status, message)
}

// IsAPIUnavailable reports whether err means the API could not be reached.
func IsAPIUnavailable(err error) bool {
	return errors.Is(err, apierr.ErrTransport)
}
