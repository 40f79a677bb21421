package srv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nihongo.exe.dev/db"
	"nihongo.exe.dev/game"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := get(t, f.server.Router(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		OK    bool `json:"ok"`
		Games int  `json:"games"`
	}
	decode(t, rec, &body)
	assert.True(t, body.OK)
	assert.Equal(t, 0, body.Games)
}

func TestGamesEndpoints(t *testing.T) {
	f := newFixture(t)
	_, err := f.lobby.Start(context.Background(), game.KindShiritori, "c1", "starter", "")
	require.NoError(t, err)

	rec := get(t, f.server.Router(), "/api/games")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var list struct {
		Games []game.Info `json:"games"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Games, 1)
	assert.Equal(t, "c1", list.Games[0].ChannelID)

	rec = get(t, f.server.Router(), "/api/games/c1")
	require.Equal(t, http.StatusOK, rec.Code)
	var info game.Info
	decode(t, rec, &info)
	assert.Equal(t, "さくら", info.CurrentWord)
	assert.Equal(t, game.KindShiritori, info.Kind)

	rec = get(t, f.server.Router(), "/api/games/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaderboardAndPlayerStats(t *testing.T) {
	f := newFixture(t)
	f.playLoss(t, "c1")

	rec := get(t, f.server.Router(), "/api/leaderboard/shiritori")
	require.Equal(t, http.StatusOK, rec.Code)
	var board struct {
		Game    game.Kind      `json:"game"`
		Players []db.GameStats `json:"players"`
	}
	decode(t, rec, &board)
	assert.Equal(t, game.KindShiritori, board.Game)
	require.NotEmpty(t, board.Players)
	assert.Equal(t, "alice", board.Players[0].PlayerID)
	assert.Equal(t, 1, board.Players[0].GamesWon)

	rec = get(t, f.server.Router(), "/api/leaderboard/word_bomb")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"players":[]`)

	rec = get(t, f.server.Router(), "/api/leaderboard/chess")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, f.server.Router(), "/api/players/alice/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Player string         `json:"player"`
		Games  []db.GameStats `json:"games"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, "alice", stats.Player)
	require.Len(t, stats.Games, 1)
	assert.Equal(t, 1, stats.Games[0].GamesWon)
	assert.Equal(t, 1, stats.Games[0].GamesPlayed)

	// bob never scored, so nothing was recorded for him.
	rec = get(t, f.server.Router(), "/api/players/bob/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"games":[]`)
}

func TestResultEndpoints(t *testing.T) {
	f := newFixture(t)
	f.playLoss(t, "c1")

	rec := get(t, f.server.Router(), "/api/results?channel=c1")
	require.Equal(t, http.StatusOK, rec.Code)
	var recent struct {
		Results []game.Summary `json:"results"`
	}
	decode(t, rec, &recent)
	require.Len(t, recent.Results, 1)
	id := recent.Results[0].SessionID

	rec = get(t, f.server.Router(), "/api/results/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum game.Summary
	decode(t, rec, &sum)
	assert.Equal(t, "bob", sum.LoserID)
	assert.Equal(t, []string{"alice"}, sum.Winners)
	assert.Equal(t, game.ReasonPlayerLost, sum.Reason)

	rec = get(t, f.server.Router(), "/api/results/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, f.server.Router(), "/results/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "alice won!")
	assert.Contains(t, body, "og:image")
	assert.Contains(t, body, "/results/"+id+"/ogp.svg")
	assert.Contains(t, body, "らっぱ")

	rec = get(t, f.server.Router(), "/results/"+id+"/ogp.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "さくら → らっぱ")

	rec = get(t, f.server.Router(), "/results/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultPageEscapesNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.lobby.Start(ctx, game.KindShiritori, "c1", "starter", "")
	require.NoError(t, err)
	_, ok := f.lobby.Say(ctx, game.Message{ChannelID: "c1", AuthorID: "<script>", MessageID: "m1", Text: "らっぱ"})
	require.True(t, ok)
	_, err = f.lobby.Stop(ctx, "c1", "")
	require.NoError(t, err)

	list, err := f.store.RecentSummaries(ctx, "c1", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	rec := get(t, f.server.Router(), "/results/"+list[0].SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestNotFoundIsJSON(t *testing.T) {
	f := newFixture(t)
	rec := get(t, f.server.Router(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())
}

func TestServerWithoutStore(t *testing.T) {
	f := newFixture(t)
	s := New(&Lobby{Games: f.lobby.Games}, f.hub, nil)

	rec := get(t, s.Router(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = get(t, s.Router(), "/api/results")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
	rec = get(t, s.Router(), "/api/results/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = get(t, s.Router(), "/api/leaderboard/shiritori")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeShutsDownWithContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, "127.0.0.1:0") }()
	cancel()
	require.NoError(t, <-done)
}

func TestWrapChain(t *testing.T) {
	lines := wrapChain([]string{"さくら", "らっぱ", "ぱせり", "りんご"}, 10, 4)
	require.Len(t, lines, 2)
	assert.Equal(t, "さくら → らっぱ", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "ぱせり"))

	assert.Equal(t, []string{"（なし）"}, wrapChain(nil, 10, 4))

	many := wrapChain([]string{"ああああああああ", "いいいいいいいい", "うううううううう"}, 8, 2)
	require.Len(t, many, 2)
	assert.True(t, strings.HasSuffix(many[1], "…"))
}
