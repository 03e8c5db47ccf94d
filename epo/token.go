package epo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultAuthURL is the EPO OPS OAuth token endpoint.
	DefaultAuthURL = "https://ops.epo.org/3.2/auth/accesstoken"

	// DefaultTokenValidity is assumed when the auth response carries no
	// expires_in field. EPO tokens are valid for 20 minutes.
	DefaultTokenValidity = 20 * time.Minute

	// DefaultSafetyMargin is how long before expiry a token is refreshed.
	DefaultSafetyMargin = time.Minute
)

// Authenticator exchanges client credentials for a bearer token and its
// validity duration.
type Authenticator interface {
	AcquireToken(ctx context.Context) (token string, validFor time.Duration, err error)
}

// OAuthAuthenticator implements Authenticator against the OPS OAuth endpoint
// using the client-credentials grant.
type OAuthAuthenticator struct {
	endpoint       string
	consumerKey    string
	consumerSecret string
	hc             *http.Client
	logger         *slog.Logger
}

var _ Authenticator = (*OAuthAuthenticator)(nil)

// NewOAuthAuthenticator creates an authenticator for the given endpoint and
// consumer key pair. A nil client falls back to one with DefaultTimeout.
func NewOAuthAuthenticator(endpoint, consumerKey, consumerSecret string, hc *http.Client) *OAuthAuthenticator {
	if endpoint == "" {
		endpoint = DefaultAuthURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &OAuthAuthenticator{
		endpoint:       endpoint,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		hc:             hc,
		logger:         slog.Default().With("component", "epo-auth"),
	}
}

// AcquireToken performs the client-credentials exchange.
func (a *OAuthAuthenticator) AcquireToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	req.SetBasicAuth(a.consumerKey, a.consumerSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.hc.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("%w: token endpoint returned %d: %s", ErrAuth, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string      `json:"access_token"`
		ExpiresIn   json.Number `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("%w: decoding token response: %w", ErrAuth, err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: token response missing access_token", ErrAuth)
	}

	validFor := DefaultTokenValidity
	if seconds, err := payload.ExpiresIn.Int64(); err == nil && seconds > 0 {
		validFor = time.Duration(seconds) * time.Second
	}

	a.logger.Debug("token acquired", "validFor", validFor)
	return payload.AccessToken, validFor, nil
}

// TokenGuard owns the bearer credential shared by all workers. It refreshes
// the token just-in-time when the remaining validity drops inside the safety
// margin. Refresh runs under the guard's mutex, so when many workers discover
// an imminent expiry simultaneously, exactly one refresh request is issued
// and the rest reuse its result.
type TokenGuard struct {
	auth   Authenticator
	margin time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu         sync.Mutex
	token      string
	acquiredAt time.Time
	validFor   time.Duration
}

// TokenGuardOption configures a TokenGuard.
type TokenGuardOption func(*TokenGuard)

// WithSafetyMargin sets how long before expiry a refresh is triggered.
// Default is DefaultSafetyMargin.
func WithSafetyMargin(margin time.Duration) TokenGuardOption {
	return func(g *TokenGuard) {
		if margin > 0 {
			g.margin = margin
		}
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) TokenGuardOption {
	return func(g *TokenGuard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewTokenGuard acquires an initial token and returns a guard owning it.
// A failed initial acquisition is a hard error: without any token the run
// cannot start.
func NewTokenGuard(ctx context.Context, auth Authenticator, opts ...TokenGuardOption) (*TokenGuard, error) {
	g := &TokenGuard{
		auth:   auth,
		margin: DefaultSafetyMargin,
		now:    time.Now,
		logger: slog.Default().With("component", "token-guard"),
	}
	for _, opt := range opts {
		opt(g)
	}

	token, validFor, err := auth.AcquireToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial token acquisition: %w", err)
	}

	g.token = token
	g.validFor = validFor
	g.acquiredAt = g.now()
	return g, nil
}

// Token returns the current bearer token, refreshing it first when elapsed
// time since acquisition is within the safety margin of the validity window.
// Safe for concurrent use; a caller blocks at most for one refresh
// round-trip.
//
// If a refresh fails while a previously acquired token is still held, the
// guard keeps and returns the stale token so in-flight work can continue
// degraded rather than aborting the run.
func (g *TokenGuard) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.now().Sub(g.acquiredAt) < g.validFor-g.margin {
		return g.token, nil
	}

	token, validFor, err := g.auth.AcquireToken(ctx)
	if err != nil {
		if g.token != "" {
			g.logger.Warn("token refresh failed, continuing with previous token", "err", err)
			return g.token, nil
		}
		return "", err
	}

	g.token = token
	g.validFor = validFor
	g.acquiredAt = g.now()
	g.logger.Debug("token refreshed", "validFor", validFor)
	return g.token, nil
}
