// Package auth obtains and caches the Twitch app access token that
// authenticates IGDB requests (OAuth2 client-credentials grant).
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/olgasafonova/igdb-mcp-server/internal/base"
	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
	"github.com/olgasafonova/igdb-mcp-server/internal/infra"
	"github.com/olgasafonova/igdb-mcp-server/metrics"
)

const (
	// DefaultTokenURL is the Twitch identity provider token endpoint
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

	// ExpiryMargin is how long before expiry a cached token stops being used
	ExpiryMargin = 5 * time.Minute

	refreshKey = "client_credentials"
)

// Credential is a bearer token and the moment it expires.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the credential can still be presented at now,
// i.e. now is more than ExpiryMargin before ExpiresAt.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt.Add(-ExpiryMargin))
}

// tokenResponse is the identity provider's success payload
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenManager guarantees callers a currently valid bearer token while
// issuing as few token requests as possible. Concurrent refreshes are
// coalesced into a single request.
type TokenManager struct {
	http         *base.Client
	logger       *slog.Logger
	clientID     string
	clientSecret string
	tokenURL     string
	now          func() time.Time
	dedup        *infra.RequestDeduplicator

	mu   sync.RWMutex
	cred *Credential
}

// Option configures a TokenManager
type Option func(*TokenManager)

// WithTokenURL overrides the token endpoint (for testing)
func WithTokenURL(u string) Option {
	return func(m *TokenManager) {
		if u != "" {
			m.tokenURL = u
		}
	}
}

// WithClock overrides the time source (for testing)
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager creates a token manager for the given app credentials.
func NewTokenManager(httpClient *base.Client, clientID, clientSecret string, opts ...Option) *TokenManager {
	m := &TokenManager{
		http:         httpClient,
		logger:       httpClient.Logger,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     DefaultTokenURL,
		now:          time.Now,
		dedup:        infra.NewRequestDeduplicator(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureToken returns a valid bearer token, requesting a new one from the
// identity provider only when the cached credential is missing or close to expiry.
func (m *TokenManager) EnsureToken(ctx context.Context) (string, error) {
	if token, ok := m.cachedToken(); ok {
		metrics.TokenCacheHits.Inc()
		return token, nil
	}

	v, shared, err := m.dedup.Do(ctx, refreshKey, func(ctx context.Context) (any, error) {
		// A refresh that finished while this caller was queued is good enough
		if token, ok := m.cachedToken(); ok {
			return token, nil
		}
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		m.logger.Debug("Joined in-flight token refresh")
	}
	return v.(string), nil
}

// Invalidate drops the cached credential so the next EnsureToken refreshes.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.cred = nil
	m.mu.Unlock()
}

// Credential returns a copy of the cached credential, if any.
func (m *TokenManager) Credential() (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return Credential{}, false
	}
	return *m.cred, true
}

// Status is a snapshot of the credential cache. It never carries the token.
type Status struct {
	Cached          bool      `json:"cached"`
	Valid           bool      `json:"valid"`
	ExpiresAt       time.Time `json:"expires_at,omitzero"`
	RefreshInFlight bool      `json:"refresh_in_flight"`
}

// Status reports whether a credential is cached, whether it is still usable,
// and whether a refresh is running.
func (m *TokenManager) Status() Status {
	st := Status{RefreshInFlight: m.dedup.InFlight() > 0}
	if cred, ok := m.Credential(); ok {
		st.Cached = true
		st.Valid = cred.Valid(m.now())
		st.ExpiresAt = cred.ExpiresAt
	}
	return st
}

func (m *TokenManager) cachedToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred != nil && m.cred.Valid(m.now()) {
		return m.cred.Token, true
	}
	return "", false
}

// refresh performs the client-credentials grant and caches the result.
// Nothing is cached on failure.
func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	reqURL, err := m.grantURL()
	if err != nil {
		return "", err
	}

	body, status, err := m.http.DoRequest(ctx, base.RequestConfig{
		Endpoint: "token",
		URL:      reqURL,
	})
	if err != nil {
		metrics.RecordTokenRefresh(false)
		return "", err
	}

	if !base.IsSuccess(status) {
		metrics.RecordTokenRefresh(false)
		m.logger.Warn("Token request rejected", "status", status)
		return "", apierrors.NewAuthenticationError(status, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		metrics.RecordTokenRefresh(false)
		return "", &apierrors.DeserializationError{Index: -1, Err: err}
	}
	if tr.AccessToken == "" {
		metrics.RecordTokenRefresh(false)
		return "", &apierrors.DeserializationError{
			Index: -1,
			Field: "access_token",
			Err:   errors.New("token response has no access token"),
		}
	}

	cred := &Credential{
		Token:     tr.AccessToken,
		ExpiresAt: m.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}

	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()

	metrics.RecordTokenRefresh(true)
	m.logger.Info("Obtained access token",
		"token_type", tr.TokenType,
		"expires_at", cred.ExpiresAt.Format(time.RFC3339))

	return cred.Token, nil
}

// grantURL builds the token endpoint URL carrying the grant parameters.
func (m *TokenManager) grantURL() (string, error) {
	u, err := url.Parse(m.tokenURL)
	if err != nil {
		return "", fmt.Errorf("invalid token URL: %w", err)
	}
	q := u.Query()
	q.Set("client_id", m.clientID)
	q.Set("client_secret", m.clientSecret)
	q.Set("grant_type", "client_credentials")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
