package igdb

import "context"

// MCP Tool wrapper methods
// These methods wrap the client methods with Args/Result types for MCP integration.

// SearchGamesMCP is the MCP wrapper for SearchGames
func (c *Client) SearchGamesMCP(ctx context.Context, args SearchGamesArgs) (SearchGamesResult, error) {
	if err := ValidateSearchQuery(args.Query); err != nil {
		return SearchGamesResult{}, err
	}

	games, err := c.SearchGames(ctx, args.Query, NormalizeLimit(args.Limit))
	if err != nil {
		return SearchGamesResult{}, err
	}

	summaries := make([]GameSummary, 0, len(games))
	for i := range games {
		summaries = append(summaries, summarize(&games[i]))
	}

	return SearchGamesResult{
		Query: args.Query,
		Count: len(summaries),
		Games: summaries,
	}, nil
}

// GetGameDetailsMCP is the MCP wrapper for GetGameDetails
func (c *Client) GetGameDetailsMCP(ctx context.Context, args GetGameDetailsArgs) (GetGameDetailsResult, error) {
	if err := ValidateGameID(args.GameID); err != nil {
		return GetGameDetailsResult{}, err
	}

	game, err := c.GetGameDetails(ctx, args.GameID)
	if err != nil {
		return GetGameDetailsResult{}, err
	}
	if game == nil {
		return GetGameDetailsResult{GameID: args.GameID, Found: false}, nil
	}

	return GetGameDetailsResult{
		GameID: args.GameID,
		Found:  true,
		Game:   detail(game),
	}, nil
}
