package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"nihongo.exe.dev/game"
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects to dsn. Call Migrate before use.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Postgres{pool: pool, now: time.Now}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Migrate applies every embedded migration not yet recorded. goose
// needs database/sql, so it runs over a handle borrowed from the pool.
func (p *Postgres) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()
	return migrate(ctx, goose.DialectPostgres, DriverPostgres, db)
}

// CommitGameResult adds one played game to the player's totals.
func (p *Postgres) CommitGameResult(ctx context.Context, playerID, gameID string, won bool, words int) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO game_stats (player_id, game, games_played, games_won, total_words, best_score, last_played_at)
		 VALUES ($1, $2, 1, $3, $4, $4, $5)
		 ON CONFLICT (player_id, game) DO UPDATE SET
			games_played = game_stats.games_played + 1,
			games_won = game_stats.games_won + EXCLUDED.games_won,
			total_words = game_stats.total_words + EXCLUDED.total_words,
			best_score = GREATEST(game_stats.best_score, EXCLUDED.best_score),
			last_played_at = EXCLUDED.last_played_at`,
		playerID, gameID, boolInt(won), words, p.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("commit game result: %w", err)
	}
	return nil
}

// SaveSummary stores the session summary. Saving the same session twice
// keeps the first row.
func (p *Postgres) SaveSummary(ctx context.Context, sum game.Summary) error {
	winners, err := json.Marshal(nonNil(sum.Winners))
	if err != nil {
		return err
	}
	scores, err := json.Marshal(sum.Scores)
	if err != nil {
		return err
	}
	history, err := json.Marshal(sum.History)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO game_results (id, channel_id, game, reason, loser_id, winners, scores, history, word_count, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		sum.SessionID, sum.ChannelID, string(sum.Game), string(sum.Reason), sum.LoserID,
		winners, scores, history, sum.WordCount, sum.StartedAt.UTC(), sum.EndedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

const pgStatsColumns = `player_id, game, games_played, games_won, total_words, best_score, last_played_at`

func (p *Postgres) Leaderboard(ctx context.Context, gameID string, limit int) ([]GameStats, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+pgStatsColumns+` FROM game_stats
		 WHERE game = $1
		 ORDER BY games_won DESC, total_words DESC, player_id
		 LIMIT $2`, gameID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanPgStats(rows)
}

func (p *Postgres) PlayerStats(ctx context.Context, playerID string) ([]GameStats, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+pgStatsColumns+` FROM game_stats WHERE player_id = $1 ORDER BY game`, playerID)
	if err != nil {
		return nil, err
	}
	return scanPgStats(rows)
}

func scanPgStats(rows pgx.Rows) ([]GameStats, error) {
	defer rows.Close()
	var out []GameStats
	for rows.Next() {
		var st GameStats
		if err := rows.Scan(&st.PlayerID, &st.Game, &st.GamesPlayed, &st.GamesWon, &st.TotalWords, &st.BestScore, &st.LastPlayedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

const pgSummaryColumns = `id::text, channel_id, game, reason, loser_id, winners, scores, history, word_count, started_at, ended_at`

func (p *Postgres) LoadSummary(ctx context.Context, id string) (game.Summary, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+pgSummaryColumns+` FROM game_results WHERE id::text = $1`, id)
	sum, err := scanPgSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Summary{}, ErrNotFound
	}
	return sum, err
}

func (p *Postgres) RecentSummaries(ctx context.Context, channelID string, limit int) ([]game.Summary, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+pgSummaryColumns+` FROM game_results
		 WHERE ($1 = '' OR channel_id = $1)
		 ORDER BY ended_at DESC
		 LIMIT $2`, channelID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []game.Summary
	for rows.Next() {
		sum, err := scanPgSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func scanPgSummary(row pgx.Row) (game.Summary, error) {
	var (
		sum                      game.Summary
		kind, reason             string
		winners, scores, history []byte
	)
	if err := row.Scan(&sum.SessionID, &sum.ChannelID, &kind, &reason, &sum.LoserID,
		&winners, &scores, &history, &sum.WordCount, &sum.StartedAt, &sum.EndedAt); err != nil {
		return game.Summary{}, err
	}
	sum.Game = game.Kind(kind)
	sum.Reason = game.Reason(reason)
	if err := decodeSummaryJSON(&sum, winners, scores, history); err != nil {
		return game.Summary{}, err
	}
	return sum, nil
}
