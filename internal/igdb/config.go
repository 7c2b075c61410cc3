package igdb

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/olgasafonova/igdb-mcp-server/internal/auth"
	"github.com/olgasafonova/igdb-mcp-server/internal/base"
	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
)

// Environment variables read by LoadConfig
const (
	EnvClientID     = "IGDB_CLIENT_ID"
	EnvClientSecret = "IGDB_CLIENT_SECRET"
	EnvAPIURL       = "IGDB_API_URL"
	EnvTokenURL     = "IGDB_TOKEN_URL"
	EnvTimeout      = "IGDB_TIMEOUT"
	EnvUserAgent    = "IGDB_USER_AGENT"
)

// DefaultAPIURL is the IGDB v4 API root
const DefaultAPIURL = "https://api.igdb.com/v4"

// Config holds the settings needed to construct a Client.
type Config struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
	Timeout      time.Duration // zero means no timeout
	UserAgent    string
}

// LoadConfig reads the configuration from the environment.
// A ConfigurationError names every required variable that is unset.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ClientID:     strings.TrimSpace(os.Getenv(EnvClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(EnvClientSecret)),
		APIURL:       envOr(EnvAPIURL, DefaultAPIURL),
		TokenURL:     envOr(EnvTokenURL, auth.DefaultTokenURL),
		UserAgent:    envOr(EnvUserAgent, base.DefaultUserAgent),
	}

	if raw := strings.TrimSpace(os.Getenv(EnvTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, &apierrors.ConfigurationError{
				Message: fmt.Sprintf("%s must be a non-negative duration such as 30s, got %q", EnvTimeout, raw),
			}
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and URLs are usable.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if len(missing) > 0 {
		return apierrors.NewConfigurationError(missing...)
	}

	for name, raw := range map[string]string{EnvAPIURL: c.APIURL, EnvTokenURL: c.TokenURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &apierrors.ConfigurationError{
				Message: fmt.Sprintf("%s is not an absolute URL: %q", name, raw),
			}
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
