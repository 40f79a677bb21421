// Package db persists finished games: per-player totals in game_stats
// and one summary row per session in game_results. SQLite is the default
// backend; Postgres is available for shared deployments.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nihongo.exe.dev/game"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// GameStats are one player's totals for one game.
type GameStats struct {
	PlayerID     string    `json:"playerId"`
	Game         string    `json:"game"`
	GamesPlayed  int       `json:"gamesPlayed"`
	GamesWon     int       `json:"gamesWon"`
	TotalWords   int       `json:"totalWords"`
	BestScore    int       `json:"bestScore"`
	LastPlayedAt time.Time `json:"lastPlayedAt"`
}

// Store is the persistence API used by the engines and the HTTP API.
type Store interface {
	game.ResultStore
	// Leaderboard ranks players of a game by wins, then words.
	Leaderboard(ctx context.Context, gameID string, limit int) ([]GameStats, error)
	PlayerStats(ctx context.Context, playerID string) ([]GameStats, error)
	LoadSummary(ctx context.Context, id string) (game.Summary, error)
	RecentSummaries(ctx context.Context, channelID string, limit int) ([]game.Summary, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the store selected by driver. An empty driver means SQLite.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres, "pgx":
		return OpenPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown database driver %q", driver)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
