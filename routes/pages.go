package routes

import (
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	m "github.com/BheeshamKS/Netflix-Clone/models"
	"github.com/BheeshamKS/Netflix-Clone/tmdb"
)

// placeholderHero is shown when every hero candidate category is empty,
// typically before the seeder has run.
var placeholderHero = m.CatalogItem{
	Title:        "No Movies Found",
	Overview:     "Run the seeder to load the catalog.",
	BackdropPath: "https://wallpapers.com/images/hd/netflix-background-gs7hjuwvv2g0e9fj.jpg",
	MediaType:    m.MediaTypeMovie,
	AgeRating:    "N/A",
}

// loadGenres fetches one list per tag. A failed query yields an empty
// list for that tag, never a failed page.
func (api *API) loadGenres(tags ...string) map[string][]m.CatalogItem {
	lists := make(map[string][]m.CatalogItem, len(tags))
	for _, tag := range tags {
		items, err := api.DB.FindByGenre(tag)
		if err != nil {
			log.Printf("Error loading genre %s: %v", tag, err)
			items = nil
		}
		if items == nil {
			items = []m.CatalogItem{}
		}
		lists[tag] = items
	}
	return lists
}

// pickHero walks the candidate tags in order and picks a uniformly
// random item from the first non-empty list.
func pickHero(lists map[string][]m.CatalogItem, candidates ...string) m.CatalogItem {
	for _, tag := range candidates {
		if items := lists[tag]; len(items) > 0 {
			return items[rand.Intn(len(items))]
		}
	}
	return placeholderHero
}

func (api *API) handleHome(c *gin.Context) {
	lists := api.loadGenres("popular", "trending", "new_releases", "anime",
		"us_tv_drama", "bollywood", "scifi_horror", "kdrama", "action")

	c.JSON(http.StatusOK, gin.H{
		"featured":     pickHero(lists, "popular", "trending"),
		"popular":      lists["popular"],
		"trending":     lists["trending"],
		"new_releases": lists["new_releases"],
		"anime":        lists["anime"],
		"us_tv_drama":  lists["us_tv_drama"],
		"bollywood":    lists["bollywood"],
		"scifi_horror": lists["scifi_horror"],
		"kdrama":       lists["kdrama"],
		"action":       lists["action"],
	})
}

func (api *API) handleMovies(c *gin.Context) {
	lists := api.loadGenres("popular", "action", "bollywood", "new_releases", "trending")

	c.JSON(http.StatusOK, gin.H{
		"featured":     pickHero(lists, "trending", "popular"),
		"popular":      lists["popular"],
		"action":       lists["action"],
		"bollywood":    lists["bollywood"],
		"new_releases": lists["new_releases"],
		"trending":     lists["trending"],
	})
}

func (api *API) handleTVShows(c *gin.Context) {
	lists := api.loadGenres("us_tv_drama", "kdrama", "anime", "scifi_horror")

	c.JSON(http.StatusOK, gin.H{
		"featured":     pickHero(lists, "us_tv_drama", "kdrama"),
		"us_tv_shows":  lists["us_tv_drama"],
		"kdramas":      lists["kdrama"],
		"anime":        lists["anime"],
		"scifi_horror": lists["scifi_horror"],
	})
}

func (api *API) handleNewPopular(c *gin.Context) {
	lists := api.loadGenres("new_releases", "trending", "us_tv_drama", "popular", "action")

	c.JSON(http.StatusOK, gin.H{
		"new_releases": lists["new_releases"],
		"trending":     lists["trending"],
		"top_tv_shows": lists["us_tv_drama"],
		"coming_soon":  lists["popular"],
		"worth_wait":   lists["action"],
	})
}

func (api *API) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, []m.CatalogItem{})
		return
	}

	items, err := api.DB.SearchByTitle(query, 20)
	if err != nil {
		log.Printf("Error searching catalog: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if items == nil {
		items = []m.CatalogItem{}
	}
	c.JSON(http.StatusOK, items)
}

// swapMediaType flips movie <-> tv, used when the requested kind comes
// back empty: the caller may have mislabeled a cross-listed title.
func swapMediaType(mediaType string) string {
	if mediaType == m.MediaTypeMovie {
		return m.MediaTypeTV
	}
	return m.MediaTypeMovie
}

func parseMediaParams(c *gin.Context) (string, int, bool) {
	mediaType := c.Param("type")
	if mediaType != m.MediaTypeMovie && mediaType != m.MediaTypeTV {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media type"})
		return "", 0, false
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return "", 0, false
	}
	return mediaType, id, true
}

// pickTrailer prefers a YouTube-hosted "Trailer", then the first
// YouTube-hosted video of any subtype.
func pickTrailer(videos []tmdb.Video) (string, bool) {
	for _, v := range videos {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return v.Key, true
		}
	}
	for _, v := range videos {
		if v.Site == "YouTube" {
			return v.Key, true
		}
	}
	return "", false
}

func (api *API) handleTrailer(c *gin.Context) {
	mediaType, id, ok := parseMediaParams(c)
	if !ok {
		return
	}

	videos, err := api.TMDB.Videos(c.Request.Context(), mediaType, id)
	if err != nil {
		log.Printf("Error fetching videos for %s/%d: %v", mediaType, id, err)
		videos = nil
	}
	if len(videos) == 0 {
		videos, err = api.TMDB.Videos(c.Request.Context(), swapMediaType(mediaType), id)
		if err != nil {
			log.Printf("Error fetching videos fallback for %d: %v", id, err)
			videos = nil
		}
	}

	key, found := pickTrailer(videos)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No trailer found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (api *API) handleInfo(c *gin.Context) {
	mediaType, id, ok := parseMediaParams(c)
	if !ok {
		return
	}

	raw, err := api.TMDB.Info(c.Request.Context(), mediaType, id)
	if err != nil {
		raw, err = api.TMDB.Info(c.Request.Context(), swapMediaType(mediaType), id)
	}
	if err == tmdb.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching info for %s/%d: %v", mediaType, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
