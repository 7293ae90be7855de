// Package ingest is the one-shot seeding job: it walks a fixed table of
// categories, pulls one page of results per category from TMDB, and
// upserts each usable item into the local catalog cache.
package ingest

import (
	"context"
	"log"

	"golang.org/x/time/rate"

	m "github.com/BheeshamKS/Netflix-Clone/models"
	"github.com/BheeshamKS/Netflix-Clone/tmdb"
)

// Category maps an editorial tag to a TMDB listing endpoint.
type Category struct {
	Tag       string
	Endpoint  string
	Params    map[string]string
	MediaType string
}

// Categories is the fixed set of page rows the site serves. Order is the
// fetch order, kept stable so interrupted runs fail in a predictable spot.
var Categories = []Category{
	{Tag: "popular", Endpoint: "movie/popular", MediaType: m.MediaTypeMovie},
	{Tag: "trending", Endpoint: "trending/movie/week", MediaType: m.MediaTypeMovie},
	{Tag: "new_releases", Endpoint: "movie/upcoming", MediaType: m.MediaTypeMovie},
	{Tag: "action", Endpoint: "discover/movie", Params: map[string]string{"with_genres": "28"}, MediaType: m.MediaTypeMovie},
	{Tag: "bollywood", Endpoint: "discover/movie", Params: map[string]string{"with_original_language": "hi", "region": "IN"}, MediaType: m.MediaTypeMovie},
	{Tag: "anime", Endpoint: "discover/tv", Params: map[string]string{"with_genres": "16", "with_keywords": "210024"}, MediaType: m.MediaTypeTV},
	{Tag: "us_tv_drama", Endpoint: "discover/tv", Params: map[string]string{"with_genres": "18", "with_original_language": "en", "region": "US"}, MediaType: m.MediaTypeTV},
	{Tag: "scifi_horror", Endpoint: "discover/tv", Params: map[string]string{"with_genres": "10765"}, MediaType: m.MediaTypeTV},
	{Tag: "kdrama", Endpoint: "discover/tv", Params: map[string]string{"with_original_language": "ko", "with_genres": "18"}, MediaType: m.MediaTypeTV},
}

// Store is the slice of the DB layer the job writes through.
type Store interface {
	UpsertCatalogItem(item m.CatalogItem) (bool, error)
	LookupEnrichment(tmdbID int) (logoPath, ageRating string, found bool, err error)
}

// CatalogAPI is the slice of the TMDB client the job reads from.
type CatalogAPI interface {
	List(ctx context.Context, endpoint string, params map[string]string) ([]tmdb.ListItem, error)
	Logo(ctx context.Context, mediaType string, id int) (string, error)
	Certification(ctx context.Context, mediaType string, id int) (string, error)
}

// Placeholder age ratings used when TMDB has no certification for a
// title. Cosmetic filler; chosen from the tmdb id so reruns agree.
var (
	movieRatings = []string{"G", "PG", "PG-13", "R"}
	tvRatings    = []string{"TV-PG", "TV-14", "TV-MA"}
)

func placeholderRating(mediaType string, tmdbID int) string {
	if mediaType == m.MediaTypeTV {
		return tvRatings[tmdbID%len(tvRatings)]
	}
	return movieRatings[tmdbID%len(movieRatings)]
}

// Run fetches and upserts every category. Failures are logged and the
// failing unit skipped; the job only stops early on context cancellation.
// The limiter paces every remote call to stay under the API rate limit.
// Returns the number of newly inserted rows.
func Run(ctx context.Context, store Store, api CatalogAPI, limiter *rate.Limiter) (int, error) {
	total := 0
	for _, cat := range Categories {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if err := limiter.Wait(ctx); err != nil {
			return total, err
		}

		items, err := api.List(ctx, cat.Endpoint, cat.Params)
		if err != nil {
			log.Printf("ingest: fetching %s: %v", cat.Tag, err)
			continue
		}
		log.Printf("ingest: %s (%s): %d items", cat.Tag, cat.MediaType, len(items))

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return total, err
			}

			// Incomplete entries are not worth displaying.
			if item.DisplayTitle() == "" || item.PosterPath == "" || item.BackdropPath == "" {
				continue
			}

			logo, rating, err := enrich(ctx, store, api, limiter, cat.MediaType, item.ID)
			if err != nil {
				log.Printf("ingest: enriching %d: %v", item.ID, err)
				continue
			}

			inserted, err := store.UpsertCatalogItem(m.CatalogItem{
				TmdbID:       item.ID,
				Title:        item.DisplayTitle(),
				Overview:     item.Overview,
				PosterPath:   tmdb.ImageBaseW500 + item.PosterPath,
				BackdropPath: tmdb.ImageBaseOriginal + item.BackdropPath,
				LogoPath:     logo,
				ReleaseDate:  item.AirDate(),
				VoteAverage:  item.VoteAverage,
				Genre:        cat.Tag,
				MediaType:    cat.MediaType,
				AgeRating:    rating,
			})
			if err != nil {
				log.Printf("ingest: upserting %d (%s): %v", item.ID, cat.Tag, err)
				continue
			}
			if inserted {
				total++
			}
		}
	}
	return total, nil
}

// enrich returns the logo path and age rating for an item, reusing what
// an earlier run (or an earlier category this run) already cached for
// the same external id. The secondary lookups are best-effort: a failed
// logo fetch leaves the logo empty, a missing certification falls back
// to the placeholder rating.
func enrich(ctx context.Context, store Store, api CatalogAPI, limiter *rate.Limiter, mediaType string, tmdbID int) (string, string, error) {
	logo, rating, found, err := store.LookupEnrichment(tmdbID)
	if err != nil {
		return "", "", err
	}
	if found {
		return logo, rating, nil
	}

	if err := limiter.Wait(ctx); err != nil {
		return "", "", err
	}
	logoPath, err := api.Logo(ctx, mediaType, tmdbID)
	if err != nil {
		log.Printf("ingest: logo for %d: %v", tmdbID, err)
		logoPath = ""
	}
	if logoPath != "" {
		logoPath = tmdb.ImageBaseW500 + logoPath
	}

	if err := limiter.Wait(ctx); err != nil {
		return "", "", err
	}
	cert, err := api.Certification(ctx, mediaType, tmdbID)
	if err != nil {
		log.Printf("ingest: certification for %d: %v", tmdbID, err)
		cert = ""
	}
	if cert == "" {
		cert = placeholderRating(mediaType, tmdbID)
	}
	return logoPath, cert, nil
}
