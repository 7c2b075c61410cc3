package igdb

// SearchGamesArgs contains parameters for a game search
type SearchGamesArgs struct {
	Query string `json:"query,omitempty" jsonschema:"Game title or keywords to search for (required)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10, max 50)"`
}

// SearchGamesResult is the result of a game search
type SearchGamesResult struct {
	Query string        `json:"query"`
	Count int           `json:"count"`
	Games []GameSummary `json:"games"`
}

// GameSummary is a compact game representation for search results
type GameSummary struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	ReleaseDate      string   `json:"release_date,omitempty"` // YYYY-MM-DD, UTC
	Rating           *float64 `json:"rating,omitempty"`
	AggregatedRating *float64 `json:"aggregated_rating,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	Platforms        []string `json:"platforms,omitempty"`
	Companies        []string `json:"companies,omitempty"`
	CoverURL         string   `json:"cover_url,omitempty"`
	Summary          string   `json:"summary,omitempty"`
}

// GetGameDetailsArgs contains parameters for a game lookup by id
type GetGameDetailsArgs struct {
	GameID int64 `json:"game_id,omitempty" jsonschema:"Numeric IGDB game id, e.g. from search_games results (required)"`
}

// GetGameDetailsResult is the result of a game lookup
type GetGameDetailsResult struct {
	GameID int64        `json:"game_id"`
	Found  bool         `json:"found"`
	Game   *GameDetails `json:"game,omitempty"`
}

// GameDetails is the full game representation for get_game_details
type GameDetails struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	ReleaseDate      string       `json:"release_date,omitempty"`
	Rating           *float64     `json:"rating,omitempty"`
	AggregatedRating *float64     `json:"aggregated_rating,omitempty"`
	Genres           []string     `json:"genres,omitempty"`
	Themes           []string     `json:"themes,omitempty"`
	GameModes        []string     `json:"game_modes,omitempty"`
	Platforms        []string     `json:"platforms,omitempty"`
	Companies        []string     `json:"companies,omitempty"`
	CoverURL         string       `json:"cover_url,omitempty"`
	Summary          string       `json:"summary,omitempty"`
	Storyline        string       `json:"storyline,omitempty"`
	SimilarGames     []SimilarRef `json:"similar_games,omitempty"`
}

// SimilarRef points at a related game
type SimilarRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
