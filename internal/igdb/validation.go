package igdb

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
)

const (
	// DefaultLimit is the search page size when none is given
	DefaultLimit = 10

	// MaxLimit is the largest search page size sent upstream
	MaxLimit = 50

	// MaxQueryLength is the maximum allowed search query length in characters
	MaxQueryLength = 500
)

// ValidateSearchQuery validates a search query.
func ValidateSearchQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return apierrors.NewValidationError("query", "", "search query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return apierrors.NewValidationError("query", "",
			fmt.Sprintf("search query exceeds maximum length of %d characters", MaxQueryLength))
	}
	return nil
}

// ValidateGameID validates an IGDB game id. Ids are positive integers.
func ValidateGameID(id int64) error {
	if id <= 0 {
		return apierrors.NewValidationError("game_id", strconv.FormatInt(id, 10), "must be a positive integer")
	}
	return nil
}

// NormalizeLimit maps a requested page size into [1, MaxLimit],
// using DefaultLimit for zero or negative values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
