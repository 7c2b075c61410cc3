package igdb

import (
	"bytes"
	"encoding/json"
	"errors"

	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
)

var errNotArray = errors.New("expected a JSON array of records")

// decodeRecords splits a response body into its raw array elements.
func decodeRecords(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &apierrors.DeserializationError{Index: -1, Err: errNotArray}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, &apierrors.DeserializationError{Index: -1, Err: err}
	}
	return records, nil
}

// decodeGame decodes one record field by field, so a shape mismatch is
// reported against the field that caused it.
func decodeGame(index int, raw json.RawMessage) (Game, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Game{}, &apierrors.DeserializationError{Index: index, Err: err}
	}
	if obj == nil {
		return Game{}, &apierrors.DeserializationError{Index: index, Err: errors.New("record is null")}
	}

	var g Game
	if err := decodeRequired(obj, index, "id", &g.ID); err != nil {
		return Game{}, err
	}
	if err := decodeRequired(obj, index, "name", &g.Name); err != nil {
		return Game{}, err
	}

	optional := []struct {
		key    string
		target json.Unmarshaler
	}{
		{"summary", &g.Summary},
		{"storyline", &g.Storyline},
		{"rating", &g.Rating},
		{"aggregated_rating", &g.AggregatedRating},
		{"first_release_date", &g.FirstReleaseDate},
		{"cover", &g.Cover},
		{"genres", &g.Genres},
		{"platforms", &g.Platforms},
		{"themes", &g.Themes},
		{"game_modes", &g.GameModes},
		{"similar_games", &g.SimilarGames},
		{"involved_companies", &g.InvolvedCompanies},
	}
	for _, f := range optional {
		v, ok := obj[f.key]
		if !ok {
			continue
		}
		if err := f.target.UnmarshalJSON(v); err != nil {
			return Game{}, &apierrors.DeserializationError{Index: index, Field: f.key, Err: err}
		}
	}

	return g, nil
}

// decodeRequired decodes a field that must be present and non-null.
func decodeRequired(obj map[string]json.RawMessage, index int, key string, target any) error {
	v, ok := obj[key]
	if !ok {
		return &apierrors.DeserializationError{Index: index, Field: key, Err: errors.New("required field is missing")}
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return &apierrors.DeserializationError{Index: index, Field: key, Err: errors.New("required field is null")}
	}
	if err := json.Unmarshal(v, target); err != nil {
		return &apierrors.DeserializationError{Index: index, Field: key, Err: err}
	}
	return nil
}

// decodeGames decodes every record of a response, preserving order.
func decodeGames(body []byte) ([]Game, error) {
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	games := make([]Game, 0, len(records))
	for i, raw := range records {
		g, err := decodeGame(i, raw)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}
