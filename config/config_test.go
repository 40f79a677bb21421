package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Database, cfg.Database)
	assert.Equal(t, "さくら", cfg.Games.Shiritori.DefaultSeed)
	assert.Equal(t, 5*time.Minute, cfg.Games.Shiritori.Lifetime.Std())
	assert.Equal(t, 10*time.Second, cfg.Games.WordBomb.Round.Std())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "nihongo.toml", `
[database]
driver = "postgres"
url = "postgres://localhost/nihongo"

[dictionary]
source = "kagome"

[games]
channels = ["111", "222"]

[games.shiritori]
default_seed = "しりとり"
lifetime = "90s"

[games.word_bomb]
round = "15s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/nihongo", cfg.Database.DSN())
	assert.Equal(t, "kagome", cfg.Dictionary.Source)
	assert.Equal(t, "しりとり", cfg.Games.Shiritori.DefaultSeed)
	assert.Equal(t, 90*time.Second, cfg.Games.Shiritori.Lifetime.Std())
	assert.Equal(t, 15*time.Second, cfg.Games.WordBomb.Round.Std())
	// Unset keys keep their defaults.
	assert.Equal(t, 3*time.Minute, cfg.Games.WordBomb.Lifetime.Std())
	assert.True(t, cfg.Games.ChannelAllowed("222"))
	assert.False(t, cfg.Games.ChannelAllowed("333"))
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "nihongo.yaml", `
http:
  addr: ":9090"
log:
  level: debug
  pretty: true
games:
  word_bomb:
    lifetime: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, time.Minute, cfg.Games.WordBomb.Lifetime.Std())
	assert.True(t, cfg.Games.ChannelAllowed("anything"))
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "nihongo.toml", `
[database]
path = "from-file.db"
[http]
addr = ":1"
`)
	t.Setenv("DATABASE_PATH", "from-env.db")
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("GAME_CHANNELS", "a, b,,c")
	t.Setenv("JISHO_API_URL", "http://127.0.0.1:9/api")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, ":1", cfg.HTTP.Addr)
	assert.Equal(t, "secret", cfg.Discord.Token)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Games.Channels)
	assert.Equal(t, "http://127.0.0.1:9/api", cfg.Dictionary.JishoURL)
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"bad toml", "c.toml", "[database\n"},
		{"bad duration", "c.toml", "[games.shiritori]\nlifetime = \"soon\"\n"},
		{"unknown format", "c.ini", "x=1"},
		{"postgres without url", "c.yaml", "database:\n  driver: postgres\n"},
		{"unknown driver", "c.yaml", "database:\n  driver: oracle\n"},
		{"unknown source", "c.yaml", "dictionary:\n  source: google\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	closer, err := SetupLogging(LogConfig{Level: "warn", File: filepath.Join(t.TempDir(), "logs", "nihongo.log"), MaxSizeMB: 1})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	require.NoError(t, closer.Close())

	_, err = SetupLogging(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
