package routes

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BheeshamKS/Netflix-Clone/db"
	m "github.com/BheeshamKS/Netflix-Clone/models"
	"github.com/BheeshamKS/Netflix-Clone/tmdb"
)

var profileColors = []string{"red", "blue", "green", "yellow", "purple"}

func (api *API) handleSignup(c *gin.Context) {
	var signupData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&signupData); err != nil || signupData.Email == "" || signupData.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signup data"})
		return
	}

	acc, err := api.DB.InsertAccount(m.Account{
		Email:    signupData.Email,
		Password: signupData.Password,
		Name:     signupData.Name,
	})
	if err == db.ErrDuplicateEmail {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error creating account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Every account starts with one default profile.
	profileName := acc.Name
	if profileName == "" {
		profileName = "Profile 1"
	}
	if _, err := api.DB.InsertProfile(m.Profile{
		AccountID: acc.ID,
		Name:      profileName,
		Color:     profileColors[0],
	}); err != nil {
		log.Printf("Error creating default profile: %v", err)
	}

	token, err := api.generateToken(acc.ID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}
	api.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": acc.ID, "email": acc.Email, "name": acc.Name},
	})
}

func (api *API) handleLogin(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&loginData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login data"})
		return
	}

	acc, err := api.DB.ValidateAccount(loginData.Email, loginData.Password)
	if err == db.ErrAccountNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err == db.ErrWrongPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error validating account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := api.generateToken(acc.ID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}
	api.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": acc.ID, "email": acc.Email, "name": acc.Name},
	})
}

// handleLogout drops the session cookie, which also clears the active
// profile pointer held in it.
func (api *API) handleLogout(c *gin.Context) {
	api.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (api *API) handleListProfiles(c *gin.Context) {
	profiles, err := api.DB.GetProfiles(c.GetInt("account_id"))
	if err != nil {
		log.Printf("Error listing profiles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if profiles == nil {
		profiles = []m.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{
		"profiles":       profiles,
		"active_profile": c.GetInt("profile_id"),
	})
}

func (api *API) handleAddProfile(c *gin.Context) {
	var profileData struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&profileData); err != nil || profileData.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile data"})
		return
	}
	if profileData.Color == "" {
		existing, err := api.DB.GetProfiles(c.GetInt("account_id"))
		if err == nil {
			profileData.Color = profileColors[len(existing)%len(profileColors)]
		} else {
			profileData.Color = profileColors[0]
		}
	}

	profile, err := api.DB.InsertProfile(m.Profile{
		AccountID: c.GetInt("account_id"),
		Name:      profileData.Name,
		Color:     profileData.Color,
	})
	if err == db.ErrProfileLimit {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error creating profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (api *API) handleRenameProfile(c *gin.Context) {
	profileID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}
	var renameData struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&renameData); err != nil || renameData.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile data"})
		return
	}

	err = api.DB.RenameProfile(c.GetInt("account_id"), profileID, renameData.Name)
	if err == db.ErrNotFound {
		c.JSON(http.StatusForbidden, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		log.Printf("Error renaming profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile renamed"})
}

func (api *API) handleDeleteProfile(c *gin.Context) {
	profileID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}

	err = api.DB.DeleteProfile(c.GetInt("account_id"), profileID)
	if err == db.ErrLastProfile {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err == db.ErrNotFound {
		c.JSON(http.StatusForbidden, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		log.Printf("Error deleting profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := gin.H{"message": "Profile deleted"}
	// Deleting the active profile clears the selection in the session.
	if profileID == c.GetInt("profile_id") {
		if token, err := api.generateToken(c.GetInt("account_id"), 0); err == nil {
			api.setSessionCookie(c, token)
			response["token"] = token
		}
	}
	c.JSON(http.StatusOK, response)
}

func (api *API) handleSelectProfile(c *gin.Context) {
	profileID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}

	profile, err := api.DB.GetProfileByID(profileID)
	if err == db.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		log.Printf("Error selecting profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if profile.AccountID != c.GetInt("account_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	token, err := api.generateToken(c.GetInt("account_id"), profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}
	api.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}

func (api *API) handleMyList(c *gin.Context) {
	items, err := api.DB.GetSavedItems(c.GetInt("account_id"))
	if err != nil {
		log.Printf("Error loading my list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if items == nil {
		items = []m.CatalogItem{}
	}
	c.JSON(http.StatusOK, items)
}

// handleToggleSaved flips the saved state of one title. Saving a title
// the catalog has never cached fetches it from TMDB first, so my-list
// pages can render it from local rows like everything else.
func (api *API) handleToggleSaved(c *gin.Context) {
	var toggleData struct {
		TmdbID    int    `json:"tmdb_id"`
		MediaType string `json:"media_type"`
	}
	if err := c.ShouldBindJSON(&toggleData); err != nil || toggleData.TmdbID == 0 ||
		(toggleData.MediaType != m.MediaTypeMovie && toggleData.MediaType != m.MediaTypeTV) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid toggle data"})
		return
	}

	accountID := c.GetInt("account_id")
	saved, err := api.DB.IsSaved(accountID, toggleData.TmdbID, toggleData.MediaType)
	if err != nil {
		log.Printf("Error checking saved state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	item := m.SavedItem{AccountID: accountID, TmdbID: toggleData.TmdbID, MediaType: toggleData.MediaType}
	if saved {
		if err := api.DB.RemoveSavedItem(item); err != nil {
			log.Printf("Error removing saved item: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"saved": false})
		return
	}

	if _, err := api.DB.FindByTmdbID(toggleData.TmdbID, toggleData.MediaType); err == db.ErrNotFound {
		if err := api.cacheTitle(c, toggleData.TmdbID, toggleData.MediaType); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not fetch title details"})
			return
		}
	} else if err != nil {
		log.Printf("Error looking up catalog item: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := api.DB.AddSavedItem(item); err != nil {
		log.Printf("Error adding saved item: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

// cacheTitle pulls one title from TMDB and stores it under the my-list
// tag so the saved list can join it locally.
func (api *API) cacheTitle(c *gin.Context, tmdbID int, mediaType string) error {
	detail, err := api.TMDB.Lookup(c.Request.Context(), mediaType, tmdbID)
	if err != nil {
		log.Printf("Error fetching title %d from TMDB: %v", tmdbID, err)
		return err
	}

	catalogItem := m.CatalogItem{
		TmdbID:      tmdbID,
		Title:       detail.DisplayTitle(),
		Overview:    detail.Overview,
		ReleaseDate: detail.AirDate(),
		VoteAverage: detail.VoteAverage,
		Genre:       db.MyListGenre,
		MediaType:   mediaType,
	}
	if detail.PosterPath != "" {
		catalogItem.PosterPath = tmdb.ImageBaseW500 + detail.PosterPath
	}
	if detail.BackdropPath != "" {
		catalogItem.BackdropPath = tmdb.ImageBaseOriginal + detail.BackdropPath
	}

	if _, err := api.DB.UpsertCatalogItem(catalogItem); err != nil {
		log.Printf("Error caching title %d: %v", tmdbID, err)
		return err
	}
	return nil
}
