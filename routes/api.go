package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/BheeshamKS/Netflix-Clone/config"
	m "github.com/BheeshamKS/Netflix-Clone/models"
	"github.com/BheeshamKS/Netflix-Clone/tmdb"
)

// DBService is the store surface the handlers use. Implemented by
// db.DBService, mocked in tests.
type DBService interface {
	FindByGenre(genre string) ([]m.CatalogItem, error)
	SearchByTitle(query string, limit int) ([]m.CatalogItem, error)
	FindByTmdbID(tmdbID int, mediaType string) (m.CatalogItem, error)
	UpsertCatalogItem(item m.CatalogItem) (bool, error)
	InsertAccount(acc m.Account) (m.Account, error)
	ValidateAccount(email, password string) (m.Account, error)
	GetAccountByID(accountID int) (m.Account, error)
	GetProfiles(accountID int) ([]m.Profile, error)
	GetProfileByID(profileID int) (m.Profile, error)
	InsertProfile(p m.Profile) (m.Profile, error)
	RenameProfile(accountID, profileID int, name string) error
	DeleteProfile(accountID, profileID int) error
	IsSaved(accountID, tmdbID int, mediaType string) (bool, error)
	AddSavedItem(item m.SavedItem) error
	RemoveSavedItem(item m.SavedItem) error
	GetSavedItems(accountID int) ([]m.CatalogItem, error)
}

// TMDBService is the remote-API surface the trailer/detail proxy and the
// on-demand my-list caching use.
type TMDBService interface {
	Videos(ctx context.Context, mediaType string, id int) ([]tmdb.Video, error)
	Lookup(ctx context.Context, mediaType string, id int) (*tmdb.ListItem, error)
	Info(ctx context.Context, mediaType string, id int) (json.RawMessage, error)
}

// API wires the handlers to their dependencies.
type API struct {
	DB     DBService
	Config config.ConfigService
	TMDB   TMDBService
}

const sessionCookie = "session"

var limiter = rate.NewLimiter(5, 10)

func rateLimitMiddleware(c *gin.Context) {
	if !limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
		c.Abort()
		return
	}
	c.Next()
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Next()
	}
}

func (api *API) setupCORS() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = api.Config.GetAllowedOrigins()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"X-CSRF-Token",
		"Authorization",
	}
	cfg.ExposeHeaders = []string{"Content-Length"}
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

// generateToken signs the session claims: the account and, once one is
// selected, the active profile. profileID 0 means no profile selected.
func (api *API) generateToken(accountID, profileID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": accountID,
		"profile_id": profileID,
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(api.Config.GetJWTSecret()))
}

func (api *API) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, int((24 * time.Hour).Seconds()), "/", "", false, true)
}

func (api *API) clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// sessionToken reads the token from the session cookie, falling back to
// an Authorization Bearer header for JSON clients.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// wantsHTML reports whether the caller is a browser navigation rather
// than a fetch; those get real redirects, JSON clients get a hint.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

func redirectTo(c *gin.Context, target string, status int) {
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}
	c.JSON(status, gin.H{"error": "Authentication required", "redirect": target})
	c.Abort()
}

// authMiddleware resolves the session. Missing or invalid sessions never
// hard-fail; they send the caller to the login step.
func (api *API) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c)
		if tokenString == "" {
			redirectTo(c, "/login", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(api.Config.GetJWTSecret()), nil
		})
		if err != nil || !token.Valid {
			redirectTo(c, "/login", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			redirectTo(c, "/login", http.StatusUnauthorized)
			return
		}
		accountID, ok := claims["account_id"].(float64)
		if !ok {
			redirectTo(c, "/login", http.StatusUnauthorized)
			return
		}
		c.Set("account_id", int(accountID))
		if profileID, ok := claims["profile_id"].(float64); ok {
			c.Set("profile_id", int(profileID))
		}
		c.Next()
	}
}

// profileRequired gates the browsing pages: a session without an active
// profile is sent to the profile picker.
func (api *API) profileRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetInt("profile_id") == 0 {
			redirectTo(c, "/profiles", http.StatusConflict)
			return
		}
		c.Next()
	}
}

// Router assembles the full route table.
func (api *API) Router() *gin.Engine {
	router := gin.Default()
	router.Use(securityHeadersMiddleware())
	router.Use(rateLimitMiddleware)
	router.Use(cors.New(api.setupCORS()))

	// Account routes.
	router.POST("/api/signup", api.handleSignup)
	router.POST("/api/login", api.handleLogin)
	router.POST("/api/logout", api.handleLogout)

	// Catalog lookups that need neither session nor local writes.
	router.GET("/api/search", api.handleSearch)
	router.GET("/api/trailer/:type/:id", api.handleTrailer)
	router.GET("/api/info/:type/:id", api.handleInfo)

	auth := router.Group("/", api.authMiddleware())
	{
		auth.GET("/api/profiles", api.handleListProfiles)
		auth.POST("/api/profiles", api.handleAddProfile)
		auth.PATCH("/api/profiles/:id", api.handleRenameProfile)
		auth.DELETE("/api/profiles/:id", api.handleDeleteProfile)
		auth.POST("/api/profiles/:id/select", api.handleSelectProfile)

		pages := auth.Group("/", api.profileRequired())
		{
			pages.GET("/", api.handleHome)
			pages.GET("/movies", api.handleMovies)
			pages.GET("/tvshows", api.handleTVShows)
			pages.GET("/new-popular", api.handleNewPopular)
			pages.GET("/api/my-list", api.handleMyList)
			pages.POST("/api/my-list/toggle", api.handleToggleSaved)
		}
	}

	return router
}

// Run starts the server and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func (api *API) Run() {
	gin.SetMode(gin.ReleaseMode)
	if gin.Mode() == gin.ReleaseMode {
		f, err := os.Create("gin.log")
		if err != nil {
			log.Fatal("Could not create log file", err)
		}
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}

	srv := &http.Server{
		Addr:         ":" + api.Config.GetServerPort(),
		Handler:      api.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to initialize server: %v\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
