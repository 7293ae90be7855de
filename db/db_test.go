package db

import (
	"database/sql"
	"log"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	m "github.com/BheeshamKS/Netflix-Clone/models"
	_ "github.com/mattn/go-sqlite3"
)

const testDSN = "file::memory:?cache=shared"

// keepAlive keeps the in-memory DB alive across the per-call connections
// the service opens.
var keepAlive *sql.DB

func TestMain(tm *testing.M) {
	var err error
	keepAlive, err = sql.Open("sqlite3", testDSN)
	if err != nil {
		log.Fatalf("failed to open shared database: %v", err)
	}
	if err := setupSchema(keepAlive); err != nil {
		log.Fatalf("failed to setup schema: %v", err)
	}

	code := tm.Run()
	keepAlive.Close()
	os.Exit(code)
}

func setupSchema(db *sql.DB) error {
	data, err := migrationsFS.ReadFile("migrations/0001_init.up.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(data))
	return err
}

func resetDB(t *testing.T) {
	t.Helper()
	for _, table := range []string{"movies", "accounts", "profiles", "saved_items"} {
		if _, err := keepAlive.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("failed to clear table %s: %v", table, err)
		}
	}
}

func testService() *DBService {
	return NewDBServiceWithDSN("sqlite3", testDSN)
}

func TestNewDBServiceWithDSN(t *testing.T) {
	svc := NewDBServiceWithDSN("sqlite3", testDSN)
	if svc.driver != "sqlite3" || svc.dsn != testDSN {
		t.Errorf("unexpected service config: %+v", svc)
	}
}

func sampleItem(tmdbID int, genre string) m.CatalogItem {
	return m.CatalogItem{
		TmdbID:       tmdbID,
		Title:        "Test Title",
		Overview:     "Overview",
		PosterPath:   "https://image.tmdb.org/t/p/w500/p.jpg",
		BackdropPath: "https://image.tmdb.org/t/p/original/b.jpg",
		LogoPath:     "https://image.tmdb.org/t/p/w500/l.png",
		ReleaseDate:  "2025-01-01",
		VoteAverage:  7.5,
		Genre:        genre,
		MediaType:    m.MediaTypeMovie,
		AgeRating:    "PG-13",
	}
}

func TestUpsertCatalogItem(t *testing.T) {
	resetDB(t)
	svc := testService()

	// First insert writes a row.
	inserted, err := svc.UpsertCatalogItem(sampleItem(100, "popular"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("expected first upsert to insert")
	}

	// Same (tmdb_id, genre) pair is ignored on rerun.
	inserted, err = svc.UpsertCatalogItem(sampleItem(100, "popular"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Error("expected duplicate upsert to be ignored")
	}

	// Same title under another tag is a separate row by design.
	inserted, err = svc.UpsertCatalogItem(sampleItem(100, "action"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("expected upsert under a second tag to insert")
	}

	var count int
	if err := keepAlive.QueryRow(`SELECT COUNT(*) FROM movies WHERE tmdb_id = 100`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows for tmdb_id 100, got %d", count)
	}
}

func TestFindByGenre(t *testing.T) {
	resetDB(t)
	svc := testService()

	if _, err := svc.UpsertCatalogItem(sampleItem(1, "popular")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpsertCatalogItem(sampleItem(2, "popular")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpsertCatalogItem(sampleItem(3, "anime")); err != nil {
		t.Fatal(err)
	}

	items, err := svc.FindByGenre("popular")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 popular items, got %d", len(items))
	}

	items, err = svc.FindByGenre("kdrama")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no kdrama items, got %d", len(items))
	}
}

func TestSearchByTitle(t *testing.T) {
	resetDB(t)

	insert := func(tmdbID int, title string, rating float64) {
		t.Helper()
		_, err := keepAlive.Exec(`
			INSERT INTO movies (tmdb_id, title, genre, media_type, vote_average)
			VALUES (?, ?, 'popular', 'movie', ?)`, tmdbID, title, rating)
		if err != nil {
			t.Fatal(err)
		}
	}
	insert(1, "The Matrix", 8.2)
	insert(2, "The Matrix Reloaded", 7.0)
	insert(3, "Matrix Resurrections", 6.5)
	insert(4, "Totally Unrelated", 9.9)

	svc := testService()

	// Substring match, best rated first.
	items, err := svc.SearchByTitle("Matrix", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 results, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].VoteAverage > items[i-1].VoteAverage {
			t.Errorf("results not ordered by rating: %v before %v",
				items[i-1].VoteAverage, items[i].VoteAverage)
		}
	}

	// The limit caps the result set.
	items, err = svc.SearchByTitle("Matrix", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 results with limit 2, got %d", len(items))
	}

	// No match yields an empty list, not an error.
	items, err = svc.SearchByTitle("zzzz", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no results, got %d", len(items))
	}
}

func TestFindByTmdbID(t *testing.T) {
	resetDB(t)
	svc := testService()

	if _, err := svc.UpsertCatalogItem(sampleItem(55, "popular")); err != nil {
		t.Fatal(err)
	}

	item, err := svc.FindByTmdbID(55, m.MediaTypeMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Title != "Test Title" {
		t.Errorf("unexpected item: %+v", item)
	}

	if _, err := svc.FindByTmdbID(55, m.MediaTypeTV); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for wrong media type, got %v", err)
	}
	if _, err := svc.FindByTmdbID(999, m.MediaTypeMovie); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupEnrichment(t *testing.T) {
	resetDB(t)
	svc := testService()

	_, _, found, err := svc.LookupEnrichment(77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no enrichment for unknown id")
	}

	if _, err := svc.UpsertCatalogItem(sampleItem(77, "popular")); err != nil {
		t.Fatal(err)
	}

	logo, rating, found, err := svc.LookupEnrichment(77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected enrichment to be found")
	}
	if logo != "https://image.tmdb.org/t/p/w500/l.png" || rating != "PG-13" {
		t.Errorf("unexpected enrichment: logo=%q rating=%q", logo, rating)
	}
}

func TestInsertAccount(t *testing.T) {
	resetDB(t)
	svc := testService()

	acc, err := svc.InsertAccount(m.Account{Email: "new@example.com", Password: "secret", Name: "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.ID <= 0 {
		t.Errorf("expected valid account ID, got %d", acc.ID)
	}
	if acc.Password != "" {
		t.Error("password field should be empty in result")
	}

	// The stored password is a bcrypt hash.
	var stored string
	if err := keepAlive.QueryRow(`SELECT password FROM accounts WHERE id = ?`, acc.ID).Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte("secret")); err != nil {
		t.Errorf("stored password does not verify: %v", err)
	}

	// Duplicate email is rejected.
	_, err = svc.InsertAccount(m.Account{Email: "new@example.com", Password: "other"})
	if err != ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestValidateAccount(t *testing.T) {
	resetDB(t)
	svc := testService()

	if _, err := svc.InsertAccount(m.Account{Email: "test@example.com", Password: "secret", Name: "Tester"}); err != nil {
		t.Fatal(err)
	}

	// Valid credentials.
	acc, err := svc.ValidateAccount("test@example.com", "secret")
	if err != nil {
		t.Errorf("expected valid credentials, got error: %v", err)
	}
	if acc.Email != "test@example.com" || acc.Name != "Tester" {
		t.Errorf("unexpected account returned: %+v", acc)
	}
	if acc.Password != "" {
		t.Error("password field should be empty in result")
	}

	// Wrong password is distinct from unknown account.
	if _, err := svc.ValidateAccount("test@example.com", "wrong"); err != ErrWrongPassword {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
	if _, err := svc.ValidateAccount("nobody@example.com", "secret"); err != ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetAccountByID(t *testing.T) {
	resetDB(t)
	svc := testService()

	acc, err := svc.InsertAccount(m.Account{Email: "a@example.com", Password: "x", Name: "A"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetAccountByID(acc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "a@example.com" {
		t.Errorf("unexpected account: %+v", got)
	}

	if _, err := svc.GetAccountByID(9999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileInvariants(t *testing.T) {
	resetDB(t)
	svc := testService()

	acc, err := svc.InsertAccount(m.Account{Email: "p@example.com", Password: "x"})
	if err != nil {
		t.Fatal(err)
	}

	// Up to five profiles can be created.
	var profiles []m.Profile
	for i := 0; i < 5; i++ {
		p, err := svc.InsertProfile(m.Profile{AccountID: acc.ID, Name: "P", Color: "red"})
		if err != nil {
			t.Fatalf("unexpected error creating profile %d: %v", i+1, err)
		}
		profiles = append(profiles, p)
	}

	// The sixth is rejected and state is unchanged.
	if _, err := svc.InsertProfile(m.Profile{AccountID: acc.ID, Name: "P6"}); err != ErrProfileLimit {
		t.Errorf("expected ErrProfileLimit, got %v", err)
	}
	got, err := svc.GetProfiles(acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 profiles after rejected insert, got %d", len(got))
	}

	// Delete down to one.
	for _, p := range profiles[1:] {
		if err := svc.DeleteProfile(acc.ID, p.ID); err != nil {
			t.Fatalf("unexpected error deleting profile: %v", err)
		}
	}

	// The last profile cannot be deleted; state stays put.
	if err := svc.DeleteProfile(acc.ID, profiles[0].ID); err != ErrLastProfile {
		t.Errorf("expected ErrLastProfile, got %v", err)
	}
	got, err = svc.GetProfiles(acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 profile to remain, got %d", len(got))
	}
}

func TestProfileOwnership(t *testing.T) {
	resetDB(t)
	svc := testService()

	owner, err := svc.InsertAccount(m.Account{Email: "owner@example.com", Password: "x"})
	if err != nil {
		t.Fatal(err)
	}
	other, err := svc.InsertAccount(m.Account{Email: "other@example.com", Password: "x"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := svc.InsertProfile(m.Profile{AccountID: owner.ID, Name: "Mine"})
	if err != nil {
		t.Fatal(err)
	}
	// A second profile so deletes are not blocked by the last-profile rule.
	if _, err := svc.InsertProfile(m.Profile{AccountID: owner.ID, Name: "Spare"}); err != nil {
		t.Fatal(err)
	}

	if err := svc.RenameProfile(other.ID, p.ID, "Stolen"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound renaming someone else's profile, got %v", err)
	}
	if err := svc.DeleteProfile(other.ID, p.ID); err != ErrLastProfile {
		// The other account has no profiles, so the count guard fires first.
		t.Errorf("expected ErrLastProfile for foreign delete, got %v", err)
	}

	if err := svc.RenameProfile(owner.ID, p.ID, "Renamed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	renamed, err := svc.GetProfileByID(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Name != "Renamed" {
		t.Errorf("rename did not apply: %+v", renamed)
	}
}

func TestSavedItems(t *testing.T) {
	resetDB(t)
	svc := testService()

	if _, err := svc.UpsertCatalogItem(sampleItem(500, "popular")); err != nil {
		t.Fatal(err)
	}
	item := m.SavedItem{AccountID: 1, TmdbID: 500, MediaType: m.MediaTypeMovie}

	saved, err := svc.IsSaved(1, 500, m.MediaTypeMovie)
	if err != nil {
		t.Fatal(err)
	}
	if saved {
		t.Error("expected item to start unsaved")
	}

	if err := svc.AddSavedItem(item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, err = svc.IsSaved(1, 500, m.MediaTypeMovie)
	if err != nil {
		t.Fatal(err)
	}
	if !saved {
		t.Error("expected item to be saved")
	}

	// Re-adding is a no-op, not an error.
	if err := svc.AddSavedItem(item); err != nil {
		t.Fatalf("unexpected error on duplicate add: %v", err)
	}

	list, err := svc.GetSavedItems(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].TmdbID != 500 {
		t.Errorf("unexpected saved list: %+v", list)
	}

	if err := svc.RemoveSavedItem(item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, err = svc.IsSaved(1, 500, m.MediaTypeMovie)
	if err != nil {
		t.Fatal(err)
	}
	if saved {
		t.Error("expected item to be unsaved after removal")
	}
}

func TestGetSavedItemsCollapsesDuplicateTags(t *testing.T) {
	resetDB(t)
	svc := testService()

	// Same title cached under two tags still lists once.
	if _, err := svc.UpsertCatalogItem(sampleItem(600, "popular")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpsertCatalogItem(sampleItem(600, "action")); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddSavedItem(m.SavedItem{AccountID: 2, TmdbID: 600, MediaType: m.MediaTypeMovie}); err != nil {
		t.Fatal(err)
	}

	list, err := svc.GetSavedItems(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 saved entry, got %d", len(list))
	}
}
