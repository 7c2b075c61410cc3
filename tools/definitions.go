package tools

// AllTools contains all tool specifications for the IGDB MCP server.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	{
		Name:     "search_games",
		Method:   "SearchGames",
		Title:    "Search Games",
		Category: "search",
		Resource: "games",
		Description: `Search the IGDB video game database by title or keywords.

USE WHEN: User asks "find games like X", "what is the game called X", "search for X", or names a game without knowing its id.

NOT FOR: Full details of a game you already have an id for (use get_game_details instead).

PARAMETERS:
- query: Game title or keywords (required)
- limit: Max results (default 10, max 50)

RETURNS: Matching games in relevance order with id, release date, user and critic ratings, genres, platforms, companies and a short summary.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "get_game_details",
		Method:   "GetGameDetails",
		Title:    "Get Game Details",
		Category: "read",
		Resource: "games",
		Description: `Get the full IGDB record for one game by its numeric id.

USE WHEN: User asks "tell me more about X", "what's the story of X", "what games are similar to X", after search_games returned the id.

NOT FOR: Finding a game by name (use search_games first).

PARAMETERS:
- game_id: Numeric IGDB game id (required)

RETURNS: Summary, storyline, ratings, release date, genres, themes, game modes, platforms, companies, cover image URL and similar games. Reports when no game has the id.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
}
