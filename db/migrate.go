package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations
var migrationFS embed.FS

// migrationsFor returns the migration scripts of one dialect directory.
func migrationsFor(dir string) (fs.FS, error) {
	return fs.Sub(migrationFS, path.Join("migrations", dir))
}

// migrate applies every pending migration in dir to db.
func migrate(ctx context.Context, dialect goose.Dialect, dir string, db *sql.DB) error {
	fsys, err := migrationsFor(dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	p, err := goose.NewProvider(dialect, db, fsys, goose.WithDisableGlobalRegistry(true))
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	for _, r := range results {
		log.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("took", r.Duration).
			Msg("applied migration")
	}
	return nil
}
