package epo

import (
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

	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/ratelimit"
)

const (
	// DefaultBaseURL is the OPS REST services root.
	DefaultBaseURL = "https://ops.epo.org/3.2/rest-services"

	// DefaultPageSize bounds how many search matches are fetched per keyword.
	DefaultPageSize = 100

	// DefaultTimeout bounds every remote call.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the OPS client.
type Config struct {
	// BaseURL is the OPS REST services root. Default: DefaultBaseURL.
	BaseURL string

	// AuthURL is the OAuth token endpoint. Default: DefaultAuthURL.
	AuthURL string

	// ConsumerKey and ConsumerSecret are the OPS application credentials.
	ConsumerKey    string
	ConsumerSecret string

	// PageSize bounds the search result range (Range=1-PageSize).
	// Default: DefaultPageSize.
	PageSize int

	// Timeout is the per-call HTTP timeout. Default: DefaultTimeout.
	Timeout time.Duration
}

// DefaultConfig returns a Config with production OPS endpoints and defaults.
// Credentials must still be supplied.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		AuthURL:  DefaultAuthURL,
		PageSize: DefaultPageSize,
		Timeout:  DefaultTimeout,
	}
}

// Validate checks that the configuration is complete, filling defaults for
// optional fields.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ConsumerKey == "" {
		return errors.New("epo config: ConsumerKey is required")
	}
	if c.ConsumerSecret == "" {
		return errors.New("epo config: ConsumerSecret is required")
	}
	return nil
}

// Client issues the two-stage OPS reads: keyword search and per-publication
// abstract fetch. It is safe for concurrent use.
type Client struct {
	config *Config
	hc     *http.Client
	tokens *TokenGuard
	gate   *ratelimit.Gate
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithRateGate attaches a rate gate applied before every remote call.
// Default is a no-op gate.
func WithRateGate(gate *ratelimit.Gate) ClientOption {
	return func(c *Client) {
		if gate != nil {
			c.gate = gate
		}
	}
}

// WithTokenGuard supplies an already-constructed token guard, skipping the
// OAuth exchange NewClient would otherwise perform. Used by tests.
func WithTokenGuard(guard *TokenGuard) ClientOption {
	return func(c *Client) {
		c.tokens = guard
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("component", "epo-client")
		}
	}
}

// NewClient validates the config, performs the initial OAuth exchange (unless
// a token guard was supplied) and returns a ready client.
func NewClient(ctx context.Context, config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		hc:     &http.Client{Timeout: config.Timeout},
		gate:   ratelimit.NewGate(0),
		logger: slog.Default().With("component", "epo-client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokens == nil {
		auth := NewOAuthAuthenticator(config.AuthURL, config.ConsumerKey, config.ConsumerSecret, c.hc)
		tokens, err := NewTokenGuard(ctx, auth)
		if err != nil {
			return nil, err
		}
		c.tokens = tokens
	}

	return c, nil
}

// Search performs a title-keyword bibliographic search and returns the
// matched publication references, bounded by the configured page size.
// A transport failure or non-2xx status fails the whole keyword with
// ErrNetwork; a malformed body fails it with ErrParse.
func (c *Client) Search(ctx context.Context, keyword string) ([]core.PublicationRef, error) {
	query := url.QueryEscape("ti=" + keyword)
	endpoint := fmt.Sprintf("%s/published-data/search?Range=1-%d&q=%s", c.config.BaseURL, c.config.PageSize, query)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding search response for %q: %w", ErrParse, keyword, err)
	}

	refs := decoded.refs()
	if len(refs) > c.config.PageSize {
		refs = refs[:c.config.PageSize]
	}
	c.logger.Debug("search completed", "keyword", keyword, "matches", len(refs))
	return refs, nil
}

// FetchAbstract retrieves the abstract text for one publication reference.
// A document without an abstract yields core.AbstractUnavailable rather than
// an error.
func (c *Client) FetchAbstract(ctx context.Context, ref core.PublicationRef) (string, error) {
	endpoint := fmt.Sprintf("%s/published-data/publication/%s/%s/abstract",
		c.config.BaseURL, url.PathEscape(ref.IDType), url.PathEscape(ref.PatentNumber()))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var decoded abstractResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: decoding abstract response for %s: %w", ErrParse, ref.PatentNumber(), err)
	}

	abstract := decoded.abstract()
	if abstract == "" {
		return core.AbstractUnavailable, nil
	}
	return abstract, nil
}

// get waits on the rate gate, attaches the current bearer token and performs
// one GET. The caller key for pacing comes from the request context.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.gate.Wait(ctx, ratelimit.KeyFromContext(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrNetwork, endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %w", ErrNetwork, err)
	}
	return body, nil
}
