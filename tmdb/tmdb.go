// Package tmdb is a small client for The Movie Database REST API.
// It covers the handful of endpoints the seeder and the server use:
// category listings, videos, detail lookups, images and certifications.
//
// Authentication is the static api_key query parameter. TMDB's free tier
// allows ~50 requests/second; the seeder paces itself, the server only
// issues single lookups per request.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// Image base URLs, per size. The seeder stores absolute image URLs so
	// the frontend never needs to know about TMDB sizing.
	ImageBaseW500     = "https://image.tmdb.org/t/p/w500"
	ImageBaseOriginal = "https://image.tmdb.org/t/p/original"
)

// ErrNotFound is returned when TMDB reports 404 for a lookup.
var ErrNotFound = errors.New("tmdb: not found")

// ListItem is one entry of a listing endpoint (popular, trending,
// discover). Movies carry Title/ReleaseDate, TV shows Name/FirstAirDate.
type ListItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

// DisplayTitle returns the movie title or the TV show name, whichever
// the upstream payload carried.
func (it *ListItem) DisplayTitle() string {
	if it.Title != "" {
		return it.Title
	}
	return it.Name
}

// AirDate returns the release date or the first air date.
func (it *ListItem) AirDate() string {
	if it.ReleaseDate != "" {
		return it.ReleaseDate
	}
	return it.FirstAirDate
}

// Video is one entry of the videos sub-resource.
type Video struct {
	Site string `json:"site"`
	Type string `json:"type"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Client talks to the TMDB API. Create with NewClient; BaseURL is
// overridable for tests.
type Client struct {
	APIKey     string
	BaseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// List fetches the first page of a listing endpoint such as
// "movie/popular" or "discover/tv" with extra filter parameters.
func (c *Client) List(ctx context.Context, endpoint string, params map[string]string) ([]ListItem, error) {
	q := url.Values{}
	q.Set("page", "1")
	for k, v := range params {
		q.Set(k, v)
	}

	var result struct {
		Results []ListItem `json:"results"`
	}
	if err := c.get(ctx, "/"+endpoint, q, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// Videos fetches the videos sub-resource for a movie or TV show.
func (c *Client) Videos(ctx context.Context, mediaType string, id int) ([]Video, error) {
	var result struct {
		Results []Video `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/videos", mediaType, id), url.Values{}, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// Lookup fetches a typed detail record, used when the server needs to
// cache a title it has not seen before.
func (c *Client) Lookup(ctx context.Context, mediaType string, id int) (*ListItem, error) {
	var item ListItem
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", mediaType, id), url.Values{}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Info fetches the raw detail payload including cast, passed through to
// the frontend without reshaping.
func (c *Client) Info(ctx context.Context, mediaType string, id int) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("append_to_response", "credits")

	var raw json.RawMessage
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", mediaType, id), q, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Logo returns the file path of the first English logo for a title, or
// "" when the title has none.
func (c *Client) Logo(ctx context.Context, mediaType string, id int) (string, error) {
	var result struct {
		Logos []struct {
			FilePath string `json:"file_path"`
			Language string `json:"iso_639_1"`
		} `json:"logos"`
	}
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/images", mediaType, id), url.Values{}, &result); err != nil {
		return "", err
	}
	for _, logo := range result.Logos {
		if logo.Language == "en" {
			return logo.FilePath, nil
		}
	}
	if len(result.Logos) > 0 {
		return result.Logos[0].FilePath, nil
	}
	return "", nil
}

// Certification returns the US age certification for a title, or ""
// when TMDB has none. Movies and TV shows use different sub-resources.
func (c *Client) Certification(ctx context.Context, mediaType string, id int) (string, error) {
	if mediaType == "tv" {
		var result struct {
			Results []struct {
				Country string `json:"iso_3166_1"`
				Rating  string `json:"rating"`
			} `json:"results"`
		}
		if err := c.get(ctx, fmt.Sprintf("/tv/%d/content_ratings", id), url.Values{}, &result); err != nil {
			return "", err
		}
		for _, r := range result.Results {
			if r.Country == "US" && r.Rating != "" {
				return r.Rating, nil
			}
		}
		return "", nil
	}

	var result struct {
		Results []struct {
			Country  string `json:"iso_3166_1"`
			Releases []struct {
				Certification string `json:"certification"`
			} `json:"release_dates"`
		} `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/release_dates", id), url.Values{}, &result); err != nil {
		return "", err
	}
	for _, r := range result.Results {
		if r.Country != "US" {
			continue
		}
		for _, rel := range r.Releases {
			if rel.Certification != "" {
				return rel.Certification, nil
			}
		}
	}
	return "", nil
}

// get performs a GET request against the API and decodes the JSON body.
func (c *Client) get(ctx context.Context, path string, q url.Values, dst interface{}) error {
	q.Set("api_key", c.APIKey)
	q.Set("language", "en-US")
	reqURL := c.BaseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: HTTP %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb: decode response: %w", err)
	}
	return nil
}
