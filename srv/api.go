package srv

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/db"
	"nihongo.exe.dev/game"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// queryLimit reads ?limit=, falling back to def on absent or bad input.
func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// HandleHealth reports liveness and, when a store is configured, whether
// it answers.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Store != nil {
		if err := s.Store.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health: store ping failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "store_unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "games": len(s.Lobby.Games.Active())})
}

// HandleListGames returns every live session.
func (s *Server) HandleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"games": s.Lobby.Games.Active()})
}

// HandleGameInfo returns the live session in one channel.
func (s *Server) HandleGameInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := s.Lobby.Games.Lookup(chi.URLParam(r, "channel"))
	if !ok {
		writeError(w, http.StatusNotFound, "no_game")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleLeaderboard returns the top players of one game.
func (s *Server) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "game"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_game")
		return
	}
	board, err := s.Lobby.Leaderboard(r.Context(), kind, queryLimit(r, 10))
	if err != nil {
		log.Error().Err(err).Str("game", string(kind)).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	if board == nil {
		board = []db.GameStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"game": kind, "players": board})
}

// HandlePlayerStats returns one player's totals per game.
func (s *Server) HandlePlayerStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stats, err := s.Lobby.PlayerStats(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("player", id).Msg("player stats")
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	if stats == nil {
		stats = []db.GameStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": id, "games": stats})
}

// recentLimit caps /api/results when no limit is given.
const recentLimit = 20

// HandleRecentResults lists finished games, newest first, optionally for
// one channel (?channel=).
func (s *Server) HandleRecentResults(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"results": []game.Summary{}})
		return
	}
	list, err := s.Store.RecentSummaries(r.Context(), r.URL.Query().Get("channel"), queryLimit(r, recentLimit))
	if err != nil {
		log.Error().Err(err).Msg("recent results")
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	if list == nil {
		list = []game.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": list})
}
