package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nihongo.exe.dev/config"
	"nihongo.exe.dev/db"
	"nihongo.exe.dev/dict"
	"nihongo.exe.dev/game"
)

func TestOpenDictionaryJisho(t *testing.T) {
	d, err := openDictionary(config.DictionaryConfig{Source: "jisho", JishoURL: "http://example.invalid", Timeout: config.Duration(time.Second)})
	require.NoError(t, err)
	j, ok := d.(*dict.Jisho)
	require.True(t, ok)
	assert.Equal(t, "http://example.invalid", j.BaseURL)
}

func TestGamesWiring(t *testing.T) {
	jisho := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meta":{"status":200},"data":[{"slug":"落語","japanese":[{"word":"落語","reading":"らくご"}],"senses":[]}]}`))
	}))
	defer jisho.Close()

	ctx := context.Background()
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	defer store.Close()

	cfg := config.Default()
	cfg.Dictionary.JishoURL = jisho.URL
	a := &app{cfg: cfg, store: store}

	var got []game.Feedback
	games, err := a.games(game.EmitterFunc(func(_ context.Context, fb game.Feedback) {
		got = append(got, fb)
	}))
	require.NoError(t, err)

	s, err := games.Shiritori.Start(ctx, "c1", "u1", "落語")
	require.NoError(t, err)
	assert.Equal(t, "らくご", s.Snapshot().CurrentReading)
	require.Len(t, got, 1)
	assert.Equal(t, "ご", got[0].Mora)

	_, err = games.Stop(ctx, "c1")
	require.NoError(t, err)
}
