package db

import (
	"embed"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date. The sqlite driver of
// golang-migrate only understands local files, so remote libsql DSNs fall
// back to executing the embedded statements directly; the migration SQL
// is written to be re-runnable for that path.
func (s *DBService) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	if s.driver == "sqlite3" {
		mig, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+s.dsn)
		if err != nil {
			return fmt.Errorf("migrate.New: %w", err)
		}
		defer mig.Close()
		if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migrate.Up: %w", err)
		}
		return nil
	}

	return s.execEmbeddedSchema()
}

func (s *DBService) execEmbeddedSchema() error {
	db, err := s.getDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		data, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(data)); err != nil {
			return fmt.Errorf("apply %s: %w", entry.Name(), err)
		}
	}
	return nil
}
