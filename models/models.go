package models

// Media kinds as stored in the movies table and used in TMDB paths.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// CatalogItem is one cached row of the movies table. The same title can
// appear under several genre tags; identity is (tmdb_id, genre).
type CatalogItem struct {
	ID           int     `json:"id"`
	TmdbID       int     `json:"tmdb_id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	LogoPath     string  `json:"logo_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	Genre        string  `json:"genre"`
	MediaType    string  `json:"media_type"`
	AgeRating    string  `json:"age_rating"`
}

type Account struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name"`
}

// Profile is a named viewing persona under one account. Every account
// keeps between one and five of them.
type Profile struct {
	ID        int    `json:"id"`
	AccountID int    `json:"account_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
}

type SavedItem struct {
	AccountID int    `json:"account_id"`
	TmdbID    int    `json:"tmdb_id"`
	MediaType string `json:"media_type"`
}
