package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountPasswordOmittedWhenCleared(t *testing.T) {
	acc := Account{ID: 1, Email: "test@example.com", Name: "Tester"}
	data, err := json.Marshal(acc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")

	acc.Password = "secret"
	data, err = json.Marshal(acc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "secret")
}

func TestCatalogItemJSONKeys(t *testing.T) {
	item := CatalogItem{
		TmdbID:      603,
		Title:       "The Matrix",
		Genre:       "popular",
		MediaType:   MediaTypeMovie,
		AgeRating:   "R",
		VoteAverage: 8.2,
	}
	data, err := json.Marshal(item)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(603), decoded["tmdb_id"])
	assert.Equal(t, "movie", decoded["media_type"])
	assert.Equal(t, "R", decoded["age_rating"])
	assert.Equal(t, 8.2, decoded["vote_average"])
}

func TestMediaTypeConstants(t *testing.T) {
	assert.Equal(t, "movie", MediaTypeMovie)
	assert.Equal(t, "tv", MediaTypeTV)
}
