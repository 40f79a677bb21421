package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"

	"nihongo.exe.dev/game"

	_ "modernc.org/sqlite" // SQLite driver.
)

// sqliteTime sorts lexically in UTC.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is a Store backed by a local SQLite file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database at path. Call Migrate before use.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; readers queue behind it.
	db.SetMaxOpenConns(1)
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies every embedded migration not yet recorded.
func (s *SQLite) Migrate(ctx context.Context) error {
	return migrate(ctx, goose.DialectSQLite3, DriverSQLite, s.db)
}

// CommitGameResult adds one played game to the player's totals.
func (s *SQLite) CommitGameResult(ctx context.Context, playerID, gameID string, won bool, words int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_stats (player_id, game, games_played, games_won, total_words, best_score, last_played_at)
		 VALUES (?, ?, 1, ?, ?, ?, ?)
		 ON CONFLICT (player_id, game) DO UPDATE SET
			games_played = games_played + 1,
			games_won = games_won + excluded.games_won,
			total_words = total_words + excluded.total_words,
			best_score = MAX(best_score, excluded.best_score),
			last_played_at = excluded.last_played_at`,
		playerID, gameID, boolInt(won), words, words, s.now().UTC().Format(sqliteTime),
	)
	if err != nil {
		return fmt.Errorf("commit game result: %w", err)
	}
	return nil
}

// SaveSummary stores the session summary. Saving the same session twice
// keeps the first row.
func (s *SQLite) SaveSummary(ctx context.Context, sum game.Summary) error {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_results (id, channel_id, game, reason, loser_id, winners_json, scores_json, history_json, word_count, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		sum.SessionID, sum.ChannelID, string(sum.Game), string(sum.Reason), sum.LoserID,
		string(winners), string(scores), string(history), sum.WordCount,
		sum.StartedAt.UTC().Format(sqliteTime), sum.EndedAt.UTC().Format(sqliteTime),
	)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

const sqliteStatsColumns = `player_id, game, games_played, games_won, total_words, best_score, last_played_at`

func (s *SQLite) Leaderboard(ctx context.Context, gameID string, limit int) ([]GameStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteStatsColumns+` FROM game_stats
		 WHERE game = ?
		 ORDER BY games_won DESC, total_words DESC, player_id
		 LIMIT ?`, gameID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanSQLiteStats(rows)
}

func (s *SQLite) PlayerStats(ctx context.Context, playerID string) ([]GameStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteStatsColumns+` FROM game_stats WHERE player_id = ? ORDER BY game`, playerID)
	if err != nil {
		return nil, err
	}
	return scanSQLiteStats(rows)
}

func scanSQLiteStats(rows *sql.Rows) ([]GameStats, error) {
	defer rows.Close()
	var out []GameStats
	for rows.Next() {
		var st GameStats
		var last string
		if err := rows.Scan(&st.PlayerID, &st.Game, &st.GamesPlayed, &st.GamesWon, &st.TotalWords, &st.BestScore, &last); err != nil {
			return nil, err
		}
		st.LastPlayedAt, _ = time.Parse(sqliteTime, last)
		out = append(out, st)
	}
	return out, rows.Err()
}

const sqliteSummaryColumns = `id, channel_id, game, reason, loser_id, winners_json, scores_json, history_json, word_count, started_at, ended_at`

func (s *SQLite) LoadSummary(ctx context.Context, id string) (game.Summary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteSummaryColumns+` FROM game_results WHERE id = ?`, id)
	sum, err := scanSQLiteSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Summary{}, ErrNotFound
	}
	return sum, err
}

func (s *SQLite) RecentSummaries(ctx context.Context, channelID string, limit int) ([]game.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteSummaryColumns+` FROM game_results
		 WHERE (? = '' OR channel_id = ?)
		 ORDER BY ended_at DESC
		 LIMIT ?`, channelID, channelID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []game.Summary
	for rows.Next() {
		sum, err := scanSQLiteSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSummary(row scanner) (game.Summary, error) {
	var (
		sum                      game.Summary
		kind, reason             string
		winners, scores, history string
		startedAt, endedAt       string
	)
	if err := row.Scan(&sum.SessionID, &sum.ChannelID, &kind, &reason, &sum.LoserID,
		&winners, &scores, &history, &sum.WordCount, &startedAt, &endedAt); err != nil {
		return game.Summary{}, err
	}
	sum.Game = game.Kind(kind)
	sum.Reason = game.Reason(reason)
	if err := decodeSummaryJSON(&sum, []byte(winners), []byte(scores), []byte(history)); err != nil {
		return game.Summary{}, err
	}
	sum.StartedAt, _ = time.Parse(sqliteTime, startedAt)
	sum.EndedAt, _ = time.Parse(sqliteTime, endedAt)
	return sum, nil
}

func decodeSummaryJSON(sum *game.Summary, winners, scores, history []byte) error {
	if err := json.Unmarshal(winners, &sum.Winners); err != nil {
		return fmt.Errorf("decode winners: %w", err)
	}
	if err := json.Unmarshal(scores, &sum.Scores); err != nil {
		return fmt.Errorf("decode scores: %w", err)
	}
	if err := json.Unmarshal(history, &sum.History); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
