package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shaarpec/shaarpec-go/pkg/auth"
)

// Client issues requests against the Analytics API. API data is returned as
// raw *resty.Response values; HTTP error statuses on plain GET/POST are not
// converted into Go errors so server responses propagate unmodified.
//
// Auth-header policy: when the auth capability reports no credentials the
// client sends no auth headers at all. Servers that expect the historical
// "no-token" placeholder can opt in via WithAnonymousToken.
type Client struct {
	rest      *resty.Client
	auth      auth.Provider
	anonToken string
	limiter   *rate.Limiter
	log       *zap.Logger
	userAgent string
}

type Option func(*Client) error

// New returns a Client bound to the API base URL. The default configuration
// sends `accept: application/json` and times out after 60 seconds.
func New(host string, opts ...Option) (*Client, error) {
	if host == "" {
		return nil, errors.New("host is required")
	}
	if _, err := url.Parse(host); err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	c := &Client{
		auth:      auth.None(),
		log:       zap.NewNop(),
		userAgent: "shaarpec-go",
	}
	c.rest = resty.New().
		SetBaseURL(host).
		SetTimeout(60 * time.Second).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.rest.SetHeader("User-Agent", c.userAgent)
	return c, nil
}

// WithAuth sets the credential capability queried on every request.
func WithAuth(provider auth.Provider) Option {
	return func(c *Client) error {
		if provider == nil {
			return errors.New("auth provider is nil")
		}
		c.auth = provider
		return nil
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.rest.SetTimeout(timeout)
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

// WithAnonymousToken sets a placeholder token sent when the auth capability
// holds no credentials, for servers that require the "no-token" sentinel.
func WithAnonymousToken(token string) Option {
	return func(c *Client) error {
		c.anonToken = token
		return nil
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst. The
// limiter is shared by GET, POST and the poll loop.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 || burst < 1 {
			return errors.New("invalid rate limit")
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) error {
		if log == nil {
			return errors.New("logger is nil")
		}
		c.log = log
		return nil
	}
}

func WithTLSConfig(caFile string, insecureSkipTLSVerify bool) Option {
	return func(c *Client) error {
		tlsConfig, err := loadTLSConfig(caFile, insecureSkipTLSVerify)
		if err != nil {
			return err
		}
		c.rest.SetTLSClientConfig(tlsConfig)
		return nil
	}
}

func loadTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: insecure}
	if caFile == "" {
		return tlsConfig, nil
	}
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse CA file")
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}

// newRequest builds a request with the auth headers the capability currently
// allows, a correlation id, and the rate limiter applied.
func (c *Client) newRequest(ctx context.Context) (*resty.Request, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	creds, err := c.auth.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	req := c.rest.R().
		SetContext(ctx).
		SetHeader("x-request-id", uuid.NewString())
	token := c.anonToken
	if creds != nil && creds.AccessToken != "" {
		token = creds.AccessToken
	}
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
		req.SetHeader("x-auth-request-access-token", token)
	}
	return req, nil
}

// Get fetches the resource at uri. Query parameters map 1:1 to URL query
// string keys; no validation is performed.
func (c *Client) Get(ctx context.Context, uri string, query url.Values) (*resty.Response, error) {
	req, err := c.newRequest(ctx)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	c.log.Debug("GET",
		zap.String("uri", uri),
		zap.String("request_id", req.Header.Get("x-request-id")))
	return req.Get(uri)
}

// Post sends body to the resource at uri. See Body for the accepted kinds.
func (c *Client) Post(ctx context.Context, uri string, body Body, query url.Values) (*resty.Response, error) {
	req, err := c.newRequest(ctx)
	if err != nil {
		return nil, err
	}
	if err := body.apply(req); err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	c.log.Debug("POST",
		zap.String("uri", uri),
		zap.String("request_id", req.Header.Get("x-request-id")))
	return req.Post(uri)
}
