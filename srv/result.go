package srv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/db"
	"nihongo.exe.dev/game"
)

// loadResult loads a finished game from the store.
func (s *Server) loadResult(ctx context.Context, id string) (game.Summary, error) {
	if s.Store == nil || id == "" {
		return game.Summary{}, db.ErrNotFound
	}
	return s.Store.LoadSummary(ctx, id)
}

// HandleResult returns one finished game as JSON.
func (s *Server) HandleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sum, err := s.loadResult(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("result", id).Msg("load result")
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// displayName strips transport prefixes from stored player ids.
func displayName(id string) string {
	if IsWeb(id) {
		return WebName(id)
	}
	return id
}

// resultTitle is the headline shared by the page and its preview card.
func resultTitle(sum game.Summary) string {
	words := len(sum.History)
	switch {
	case len(sum.Winners) > 0:
		names := make([]string, len(sum.Winners))
		for i, w := range sum.Winners {
			names[i] = displayName(w)
		}
		return fmt.Sprintf("%s: %s won! (%d words)", gameTitle(sum.Game), strings.Join(names, ", "), words)
	case sum.Reason == game.ReasonPlayerLost && sum.LoserID != "":
		return fmt.Sprintf("%s: %s said ん (%d words)", gameTitle(sum.Game), displayName(sum.LoserID), words)
	}
	return fmt.Sprintf("%s: a %d word game", gameTitle(sum.Game), words)
}

// chainText joins the played words, trimmed to fit a preview.
func chainText(sum game.Summary, maxRunes int) string {
	words := make([]string, len(sum.History))
	for i, h := range sum.History {
		words[i] = h.Word
	}
	sep := " → "
	if sum.Game == game.KindWordBomb {
		sep = " · "
	}
	text := strings.Join(words, sep)
	if r := []rune(text); len(r) > maxRunes {
		text = string(r[:maxRunes-3]) + "…"
	}
	return text
}

type scoreRow struct {
	Rank  string
	Name  string
	Score int
}

func scoreRows(scores []game.Score) []scoreRow {
	rows := make([]scoreRow, len(scores))
	for i, sc := range scores {
		rank := fmt.Sprint(i + 1)
		if i < len(medals) {
			rank = medals[i]
		}
		rows[i] = scoreRow{Rank: rank, Name: displayName(sc.PlayerID), Score: sc.Score}
	}
	return rows
}

type historyRow struct {
	Num     int
	Word    string
	Reading string
	Player  string
}

type resultPageData struct {
	Title       string
	Description string
	OGPURL      string
	PageURL     string
	Reason      string
	Scores      []scoreRow
	Chain       string
	History     []historyRow
}

// HandleViewResultPage serves the result page with OGP meta tags.
func (s *Server) HandleViewResultPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sum, err := s.loadResult(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	scheme := "https"
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	data := resultPageData{
		Title:       resultTitle(sum),
		Description: chainText(sum, 80),
		OGPURL:      fmt.Sprintf("%s/results/%s/ogp.svg", baseURL, id),
		PageURL:     fmt.Sprintf("%s/results/%s", baseURL, id),
		Reason:      endReason(game.Feedback{Reason: sum.Reason, PlayerID: sum.LoserID}, displayName),
		Scores:      scoreRows(sum.Scores),
		Chain:       chainText(sum, 400),
	}
	for i, h := range sum.History {
		data.History = append(data.History, historyRow{Num: i + 1, Word: h.Word, Reading: h.Reading, Player: displayName(h.Player)})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resultPage.Execute(w, data); err != nil {
		log.Error().Err(err).Str("result", id).Msg("render result page")
	}
}
