// Package igdb provides a client for the IGDB video game database API.
// Requests are authenticated with a Twitch app access token and written
// in the Apicalypse query language.
package igdb

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Field is an optional response field. It records whether the field was
// absent from the payload, present as null, or present with a value.
type Field[T any] struct {
	value   T
	present bool
	null    bool
}

// Value returns a present, non-null field
func Value[T any](v T) Field[T] {
	return Field[T]{value: v, present: true}
}

// Null returns a field that was present as JSON null
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Get returns the value and whether one was set.
// Absent and null fields both report false.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.present && !f.null
}

// OrZero returns the value, or T's zero value when unset
func (f Field[T]) OrZero() T {
	return f.value
}

// Present reports whether the key appeared in the payload (null included)
func (f Field[T]) Present() bool {
	return f.present
}

// IsNull reports whether the key appeared with a null value
func (f Field[T]) IsNull() bool {
	return f.present && f.null
}

// IsZero reports an absent field, so omitzero drops it when encoding.
func (f Field[T]) IsZero() bool {
	return !f.present
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.value = zero
		f.null = true
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.present || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// NamedRef is an expanded reference to another IGDB entity
type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Cover is a game's cover image
type Cover struct {
	ID  int64  `json:"id"`
	URL string `json:"url"` // protocol-relative, e.g. //images.igdb.com/igdb/image/upload/t_thumb/co1r7f.jpg
}

// Image sizes accepted by Cover.ImageURL
const (
	CoverThumb = "thumb"
	CoverSmall = "cover_small"
	CoverBig   = "cover_big"
	Image720p  = "720p"
)

const coverSizeTag = "/t_"

// ImageURL returns an absolute https URL for the cover at the given size.
// An empty size keeps the size from the payload.
func (c Cover) ImageURL(size string) string {
	u := c.URL
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	} else if strings.HasPrefix(u, "http://") {
		u = "https://" + strings.TrimPrefix(u, "http://")
	}
	if size == "" {
		return u
	}

	start := strings.Index(u, coverSizeTag)
	if start < 0 {
		return u
	}
	end := strings.Index(u[start+1:], "/")
	if end < 0 {
		return u
	}
	return u[:start] + coverSizeTag + size + u[start+1+end:]
}

// InvolvedCompany links a game to a company that worked on it
type InvolvedCompany struct {
	ID      int64    `json:"id"`
	Company NamedRef `json:"company"`
}

// Game is an IGDB game record. Only the fields requested by the query
// are populated; ID and Name are always required.
type Game struct {
	ID                int64                   `json:"id"`
	Name              string                  `json:"name"`
	Summary           Field[string]           `json:"summary,omitzero"`
	Storyline         Field[string]           `json:"storyline,omitzero"`
	Rating            Field[float64]          `json:"rating,omitzero"`            // 0-100, user rating
	AggregatedRating  Field[float64]          `json:"aggregated_rating,omitzero"` // 0-100, critic rating
	FirstReleaseDate  Field[int64]            `json:"first_release_date,omitzero"`
	Cover             Field[Cover]            `json:"cover,omitzero"`
	Genres            Field[[]NamedRef]       `json:"genres,omitzero"`
	Platforms         Field[[]NamedRef]       `json:"platforms,omitzero"`
	Themes            Field[[]NamedRef]       `json:"themes,omitzero"`
	GameModes         Field[[]NamedRef]       `json:"game_modes,omitzero"`
	SimilarGames      Field[[]NamedRef]       `json:"similar_games,omitzero"`
	InvolvedCompanies Field[[]InvolvedCompany] `json:"involved_companies,omitzero"`
}

// ReleaseDate returns the first release date in UTC
func (g *Game) ReleaseDate() (time.Time, bool) {
	ts, ok := g.FirstReleaseDate.Get()
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(ts, 0).UTC(), true
}

// CompanyNames lists the names of involved companies, skipping unnamed ones
func (g *Game) CompanyNames() []string {
	companies, _ := g.InvolvedCompanies.Get()
	names := make([]string, 0, len(companies))
	for _, ic := range companies {
		if ic.Company.Name != "" {
			names = append(names, ic.Company.Name)
		}
	}
	return names
}

// Names lists the names of refs, skipping unnamed ones
func Names(refs Field[[]NamedRef]) []string {
	list, _ := refs.Get()
	names := make([]string, 0, len(list))
	for _, r := range list {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names
}
