package srv

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"nihongo.exe.dev/db"
	"nihongo.exe.dev/game"
)

type readings map[string]string

func (r readings) Resolve(_ context.Context, word string) (string, bool) {
	v, ok := r[word]
	return v, ok
}

// recorder is a game.Emitter that keeps everything it is given.
type recorder struct {
	mu  sync.Mutex
	fbs []game.Feedback
}

func (r *recorder) Emit(_ context.Context, fb game.Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fbs = append(r.fbs, fb)
}

func (r *recorder) kinds() []game.FeedbackKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.FeedbackKind, len(r.fbs))
	for i, fb := range r.fbs {
		out[i] = fb.Kind
	}
	return out
}

type fixture struct {
	store  db.Store
	hub    *Hub
	router *Router
	clock  *clockwork.FakeClock
	lobby  *Lobby
	server *Server
}

// newFixture wires a Lobby and Server over a fresh SQLite store. Word
// Bomb always picks あ.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "srv.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, hub: NewHub(), clock: clockwork.NewFakeClockAt(time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))}
	f.router = &Router{Web: f.hub}
	mgr := game.NewManager(game.Deps{
		Readings: readings{"落語": "らくご"},
		Emitter:  f.router,
		Results:  store,
		Clock:    f.clock,
	}, game.ShiritoriConfig{}, game.WordBombConfig{Pick: func(int) int { return 0 }})
	f.lobby = &Lobby{Games: mgr, Store: store, Limiter: NewTurnLimiter(0, 0), Emitter: f.router}
	f.server = New(f.lobby, f.hub, store)
	return f
}

// playLoss runs a Shiritori game in channel that alice wins and bob loses.
func (f *fixture) playLoss(t *testing.T, channel string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.lobby.Start(ctx, game.KindShiritori, channel, "starter", "")
	require.NoError(t, err)
	_, ok := f.lobby.Say(ctx, game.Message{ChannelID: channel, AuthorID: "alice", MessageID: "m1", Text: "らっぱ"})
	require.True(t, ok)
	fb, ok := f.lobby.Say(ctx, game.Message{ChannelID: channel, AuthorID: "bob", MessageID: "m2", Text: "ぱん"})
	require.True(t, ok)
	require.Equal(t, game.FeedbackLoss, fb.Kind)
}
