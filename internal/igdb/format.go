package igdb

import (
	"fmt"
	"strings"
)

const dateLayout = "2006-01-02"

// summarize converts a search record into its compact form
func summarize(g *Game) GameSummary {
	s := GameSummary{
		ID:               g.ID,
		Name:             g.Name,
		ReleaseDate:      releaseDate(g),
		Rating:           floatPtr(g.Rating),
		AggregatedRating: floatPtr(g.AggregatedRating),
		Genres:           nonEmpty(Names(g.Genres)),
		Platforms:        nonEmpty(Names(g.Platforms)),
		Companies:        nonEmpty(g.CompanyNames()),
		Summary:          g.Summary.OrZero(),
	}
	if cover, ok := g.Cover.Get(); ok {
		s.CoverURL = cover.ImageURL(CoverBig)
	}
	return s
}

// detail converts a details record into its full form
func detail(g *Game) *GameDetails {
	d := &GameDetails{
		ID:               g.ID,
		Name:             g.Name,
		ReleaseDate:      releaseDate(g),
		Rating:           floatPtr(g.Rating),
		AggregatedRating: floatPtr(g.AggregatedRating),
		Genres:           nonEmpty(Names(g.Genres)),
		Themes:           nonEmpty(Names(g.Themes)),
		GameModes:        nonEmpty(Names(g.GameModes)),
		Platforms:        nonEmpty(Names(g.Platforms)),
		Companies:        nonEmpty(g.CompanyNames()),
		Summary:          g.Summary.OrZero(),
		Storyline:        g.Storyline.OrZero(),
	}
	if cover, ok := g.Cover.Get(); ok {
		d.CoverURL = cover.ImageURL(CoverBig)
	}
	similar, _ := g.SimilarGames.Get()
	for _, ref := range similar {
		d.SimilarGames = append(d.SimilarGames, SimilarRef(ref))
	}
	return d
}

// Text renders the search result for display
func (r SearchGamesResult) Text() string {
	if r.Count == 0 {
		return fmt.Sprintf("No games found matching %q.", r.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d game(s) matching %q:\n", r.Count, r.Query)
	for i, g := range r.Games {
		fmt.Fprintf(&b, "\n%d. %s (ID: %d)\n", i+1, g.Name, g.ID)
		writeLine(&b, "   Released", g.ReleaseDate)
		writeLine(&b, "   Rating", ratings(g.Rating, g.AggregatedRating))
		writeLine(&b, "   Genres", strings.Join(g.Genres, ", "))
		writeLine(&b, "   Platforms", strings.Join(g.Platforms, ", "))
		writeLine(&b, "   Companies", strings.Join(g.Companies, ", "))
		writeLine(&b, "   Summary", g.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Text renders the details result for display
func (r GetGameDetailsResult) Text() string {
	if !r.Found || r.Game == nil {
		return fmt.Sprintf("No game found with ID %d.", r.GameID)
	}

	g := r.Game
	var b strings.Builder
	fmt.Fprintf(&b, "%s (ID: %d)\n\n", g.Name, g.ID)
	writeLine(&b, "Released", g.ReleaseDate)
	writeLine(&b, "Rating", ratings(g.Rating, g.AggregatedRating))
	writeLine(&b, "Genres", strings.Join(g.Genres, ", "))
	writeLine(&b, "Themes", strings.Join(g.Themes, ", "))
	writeLine(&b, "Game modes", strings.Join(g.GameModes, ", "))
	writeLine(&b, "Platforms", strings.Join(g.Platforms, ", "))
	writeLine(&b, "Companies", strings.Join(g.Companies, ", "))
	writeLine(&b, "Cover", g.CoverURL)

	if g.Summary != "" {
		fmt.Fprintf(&b, "\nSummary:\n%s\n", g.Summary)
	}
	if g.Storyline != "" {
		fmt.Fprintf(&b, "\nStoryline:\n%s\n", g.Storyline)
	}
	if len(g.SimilarGames) > 0 {
		refs := make([]string, 0, len(g.SimilarGames))
		for _, s := range g.SimilarGames {
			refs = append(refs, fmt.Sprintf("%s (ID: %d)", s.Name, s.ID))
		}
		fmt.Fprintf(&b, "\nSimilar games: %s\n", strings.Join(refs, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

// ratings renders user and critic ratings, whichever are known
func ratings(user, critic *float64) string {
	var parts []string
	if user != nil {
		parts = append(parts, fmt.Sprintf("%.1f/100", *user))
	}
	if critic != nil {
		parts = append(parts, fmt.Sprintf("critics %.1f/100", *critic))
	}
	return strings.Join(parts, ", ")
}

func releaseDate(g *Game) string {
	t, ok := g.ReleaseDate()
	if !ok {
		return ""
	}
	return t.Format(dateLayout)
}

func floatPtr(f Field[float64]) *float64 {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	return &v
}

// nonEmpty turns an empty slice into nil so omitempty drops it
func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
