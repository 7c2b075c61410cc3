package igdb

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olgasafonova/igdb-mcp-server/internal/auth"
	"github.com/olgasafonova/igdb-mcp-server/internal/base"
	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
)

// EndpointGames is the IGDB games resource
const EndpointGames = "games"

// Field projections for each operation
var (
	searchFields = []string{
		"name", "summary", "rating", "aggregated_rating",
		"genres.name", "platforms.name", "first_release_date",
		"cover.url", "involved_companies.company.name",
	}

	detailFields = []string{
		"name", "summary", "storyline", "rating", "aggregated_rating",
		"genres.name", "platforms.name", "themes.name", "game_modes.name",
		"first_release_date", "cover.url", "involved_companies.company.name",
		"similar_games.name", "similar_games.id",
	}
)

// Client provides access to the IGDB API
type Client struct {
	http     *base.Client
	tokens   *auth.TokenManager
	logger   *slog.Logger
	clientID string
	apiURL   string
}

// ClientOption configures the Client (re-export base.ClientOption for compatibility)
type ClientOption = base.ClientOption

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return base.WithHTTPClient(c)
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return base.WithLogger(l)
}

// NewClient creates a new IGDB client. It fails with a ConfigurationError
// when the client id or secret is missing.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigurationError(EnvClientID, EnvClientSecret)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseOpts := []base.ClientOption{base.WithUserAgent(cfg.UserAgent)}
	if cfg.Timeout > 0 {
		baseOpts = append(baseOpts, base.WithTimeout(cfg.Timeout))
	}
	httpClient := base.NewClient(append(baseOpts, opts...)...)

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		http:     httpClient,
		tokens:   auth.NewTokenManager(httpClient, cfg.ClientID, cfg.ClientSecret, auth.WithTokenURL(cfg.TokenURL)),
		logger:   httpClient.Logger,
		clientID: cfg.ClientID,
		apiURL:   strings.TrimSuffix(apiURL, "/"),
	}, nil
}

// Tokens exposes the credential manager owned by this client
func (c *Client) Tokens() *auth.TokenManager {
	return c.tokens
}

// SearchGames runs a full-text search and returns matches in service order.
// The limit is clamped with NormalizeLimit.
func (c *Client) SearchGames(ctx context.Context, query string, limit int) ([]Game, error) {
	if err := ValidateSearchQuery(query); err != nil {
		return nil, err
	}

	q := NewQuery().
		Search(query).
		Fields(searchFields...).
		Limit(NormalizeLimit(limit))

	body, err := c.post(ctx, EndpointGames, q)
	if err != nil {
		return nil, err
	}
	return decodeGames(body)
}

// GetGameDetails fetches a single game with the extended field set.
// It returns nil, nil when no game has the id.
func (c *Client) GetGameDetails(ctx context.Context, gameID int64) (*Game, error) {
	if err := ValidateGameID(gameID); err != nil {
		return nil, err
	}

	q := NewQuery().
		Fields(detailFields...).
		Where(WhereID(gameID))

	body, err := c.post(ctx, EndpointGames, q)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > 1 {
		c.logger.Debug("Id lookup returned several records, using the first",
			"game_id", gameID, "records", len(records))
	}

	game, err := decodeGame(0, records[0])
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// post sends an Apicalypse query to an endpoint and returns the raw body.
func (c *Client) post(ctx context.Context, endpoint string, q *Query) ([]byte, error) {
	token, err := c.tokens.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	text := q.String()
	c.logger.Debug("Sending IGDB query", "endpoint", endpoint, "query", text)

	body, status, err := c.http.DoRequest(ctx, base.RequestConfig{
		Endpoint:    endpoint,
		URL:         c.apiURL + "/" + endpoint,
		Body:        []byte(text),
		ContentType: "text/plain",
		Headers: map[string]string{
			"Client-ID":     c.clientID,
			"Authorization": "Bearer " + token,
		},
	})
	if err != nil {
		return nil, err
	}

	if !base.IsSuccess(status) {
		if status == http.StatusUnauthorized {
			// The token was revoked or rotated; the next call fetches a new one
			c.tokens.Invalidate()
			c.logger.Warn("IGDB rejected access token, credential dropped", "endpoint", endpoint)
		}
		return nil, apierrors.NewAPIError(endpoint, status, body)
	}
	return body, nil
}
