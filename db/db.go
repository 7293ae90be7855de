package db

import (
	"database/sql"
	"errors"
	"os"

	"golang.org/x/crypto/bcrypt"

	m "github.com/BheeshamKS/Netflix-Clone/models"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Sentinel errors the route layer maps to user-visible outcomes.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateEmail  = errors.New("an account with this email already exists")
	ErrAccountNotFound = errors.New("no account found with this email")
	ErrWrongPassword   = errors.New("incorrect password")
	ErrProfileLimit    = errors.New("an account can have at most 5 profiles")
	ErrLastProfile     = errors.New("the last profile cannot be deleted")
)

// Genre tag used for items cached on demand by the my-list toggle rather
// than by the seeder.
const MyListGenre = "my_list"

// DBService holds the driver name and DSN; every call opens its own
// connection and closes it before returning.
type DBService struct {
	driver string
	dsn    string
}

// NewDBService builds a service from DB_DRIVER / DB_URL, defaulting to a
// local sqlite file.
func NewDBService() *DBService {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		dsn = "netflix.db"
	}
	return &DBService{driver: driver, dsn: dsn}
}

func NewDBServiceWithDSN(driver, dsn string) *DBService {
	return &DBService{driver: driver, dsn: dsn}
}

func (s *DBService) getDBConnection() (*sql.DB, error) {
	return sql.Open(s.driver, s.dsn)
}

// --- catalog ---

const catalogColumns = `id, tmdb_id, title, overview, poster_path, backdrop_path,
	logo_path, release_date, vote_average, genre, media_type, age_rating`

func scanCatalogItem(row interface{ Scan(...interface{}) error }) (m.CatalogItem, error) {
	var item m.CatalogItem
	err := row.Scan(
		&item.ID, &item.TmdbID, &item.Title, &item.Overview,
		&item.PosterPath, &item.BackdropPath, &item.LogoPath,
		&item.ReleaseDate, &item.VoteAverage, &item.Genre,
		&item.MediaType, &item.AgeRating,
	)
	return item, err
}

// FindByGenre returns every cached row under one category tag.
func (s *DBService) FindByGenre(genre string) ([]m.CatalogItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT `+catalogColumns+` FROM movies WHERE genre = ?`, genre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []m.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SearchByTitle does a substring match on title, best rated first.
func (s *DBService) SearchByTitle(query string, limit int) ([]m.CatalogItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT `+catalogColumns+` FROM movies
		WHERE title LIKE ?
		ORDER BY vote_average DESC
		LIMIT ?`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []m.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindByTmdbID returns one cached row for an external id, regardless of
// which category tag it was cached under.
func (s *DBService) FindByTmdbID(tmdbID int, mediaType string) (m.CatalogItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.CatalogItem{}, err
	}
	defer db.Close()

	row := db.QueryRow(`
		SELECT `+catalogColumns+` FROM movies
		WHERE tmdb_id = ? AND media_type = ?
		LIMIT 1`, tmdbID, mediaType)
	item, err := scanCatalogItem(row)
	if err == sql.ErrNoRows {
		return m.CatalogItem{}, ErrNotFound
	}
	return item, err
}

// UpsertCatalogItem inserts one (tmdb_id, genre) row, ignoring the insert
// when that pair is already cached. Reports whether a row was written.
func (s *DBService) UpsertCatalogItem(item m.CatalogItem) (bool, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return false, err
	}
	defer db.Close()

	result, err := db.Exec(`
		INSERT INTO movies
		(tmdb_id, title, overview, poster_path, backdrop_path, logo_path,
		 release_date, vote_average, genre, media_type, age_rating)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tmdb_id, genre) DO NOTHING`,
		item.TmdbID, item.Title, item.Overview, item.PosterPath,
		item.BackdropPath, item.LogoPath, item.ReleaseDate,
		item.VoteAverage, item.Genre, item.MediaType, item.AgeRating)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// LookupEnrichment reuses the logo and age rating of an already-cached
// external id so the seeder can skip the secondary API calls.
func (s *DBService) LookupEnrichment(tmdbID int) (logoPath, ageRating string, found bool, err error) {
	db, err := s.getDBConnection()
	if err != nil {
		return "", "", false, err
	}
	defer db.Close()

	row := db.QueryRow(`SELECT logo_path, age_rating FROM movies WHERE tmdb_id = ? LIMIT 1`, tmdbID)
	err = row.Scan(&logoPath, &ageRating)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return logoPath, ageRating, true, nil
}

// --- accounts ---

// InsertAccount hashes the password and creates the account. Duplicate
// emails are rejected before the insert so that the caller gets a clean
// user-visible error instead of a constraint failure.
func (s *DBService) InsertAccount(acc m.Account) (m.Account, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.Account{}, err
	}
	defer db.Close()

	var exists bool
	if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ?)`, acc.Email).Scan(&exists); err != nil {
		return m.Account{}, err
	}
	if exists {
		return m.Account{}, ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
	if err != nil {
		return m.Account{}, err
	}

	result, err := db.Exec(`INSERT INTO accounts (email, password, name) VALUES (?, ?, ?)`,
		acc.Email, hashedPassword, acc.Name)
	if err != nil {
		return m.Account{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return m.Account{}, err
	}
	acc.ID = int(id)
	acc.Password = ""
	return acc, nil
}

// ValidateAccount distinguishes "no such account" from "wrong password"
// so login can show the right message.
func (s *DBService) ValidateAccount(email, password string) (m.Account, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.Account{}, err
	}
	defer db.Close()

	var acc m.Account
	row := db.QueryRow(`SELECT id, email, password, name FROM accounts WHERE email = ?`, email)
	err = row.Scan(&acc.ID, &acc.Email, &acc.Password, &acc.Name)
	if err == sql.ErrNoRows {
		return m.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return m.Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(password)); err != nil {
		return m.Account{}, ErrWrongPassword
	}
	acc.Password = ""
	return acc, nil
}

func (s *DBService) GetAccountByID(accountID int) (m.Account, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.Account{}, err
	}
	defer db.Close()

	var acc m.Account
	row := db.QueryRow(`SELECT id, email, name FROM accounts WHERE id = ?`, accountID)
	err = row.Scan(&acc.ID, &acc.Email, &acc.Name)
	if err == sql.ErrNoRows {
		return m.Account{}, ErrNotFound
	}
	return acc, err
}

// --- profiles ---

func (s *DBService) GetProfiles(accountID int) ([]m.Profile, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, account_id, name, color FROM profiles WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []m.Profile
	for rows.Next() {
		var p m.Profile
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Name, &p.Color); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *DBService) GetProfileByID(profileID int) (m.Profile, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.Profile{}, err
	}
	defer db.Close()

	var p m.Profile
	row := db.QueryRow(`SELECT id, account_id, name, color FROM profiles WHERE id = ?`, profileID)
	err = row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Color)
	if err == sql.ErrNoRows {
		return m.Profile{}, ErrNotFound
	}
	return p, err
}

// InsertProfile enforces the five-profile limit at write time.
func (s *DBService) InsertProfile(p m.Profile) (m.Profile, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return m.Profile{}, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM profiles WHERE account_id = ?`, p.AccountID).Scan(&count); err != nil {
		return m.Profile{}, err
	}
	if count >= 5 {
		return m.Profile{}, ErrProfileLimit
	}

	result, err := db.Exec(`INSERT INTO profiles (account_id, name, color) VALUES (?, ?, ?)`,
		p.AccountID, p.Name, p.Color)
	if err != nil {
		return m.Profile{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return m.Profile{}, err
	}
	p.ID = int(id)
	return p, nil
}

// RenameProfile only touches profiles owned by the calling account.
func (s *DBService) RenameProfile(accountID, profileID int, name string) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.Exec(`UPDATE profiles SET name = ? WHERE id = ? AND account_id = ?`,
		name, profileID, accountID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProfile refuses to remove the only remaining profile.
func (s *DBService) DeleteProfile(accountID, profileID int) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM profiles WHERE account_id = ?`, accountID).Scan(&count); err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastProfile
	}

	result, err := db.Exec(`DELETE FROM profiles WHERE id = ? AND account_id = ?`, profileID, accountID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- saved items ---

func (s *DBService) IsSaved(accountID, tmdbID int, mediaType string) (bool, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return false, err
	}
	defer db.Close()

	var exists bool
	err = db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM saved_items
		WHERE account_id = ? AND tmdb_id = ? AND media_type = ?)`,
		accountID, tmdbID, mediaType).Scan(&exists)
	return exists, err
}

func (s *DBService) AddSavedItem(item m.SavedItem) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`
		INSERT INTO saved_items (account_id, tmdb_id, media_type)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id, tmdb_id, media_type) DO NOTHING`,
		item.AccountID, item.TmdbID, item.MediaType)
	return err
}

func (s *DBService) RemoveSavedItem(item m.SavedItem) error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`DELETE FROM saved_items WHERE account_id = ? AND tmdb_id = ? AND media_type = ?`,
		item.AccountID, item.TmdbID, item.MediaType)
	return err
}

// GetSavedItems joins the saved list to the catalog cache. Titles cached
// under several genre tags collapse to one entry.
func (s *DBService) GetSavedItems(accountID int) ([]m.CatalogItem, error) {
	db, err := s.getDBConnection()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT m.id, m.tmdb_id, m.title, m.overview, m.poster_path, m.backdrop_path,
		       m.logo_path, m.release_date, m.vote_average, m.genre, m.media_type, m.age_rating
		FROM saved_items s
		JOIN movies m ON m.tmdb_id = s.tmdb_id AND m.media_type = s.media_type
		WHERE s.account_id = ?
		GROUP BY m.tmdb_id, m.media_type
		ORDER BY m.title`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []m.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
