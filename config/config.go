// Package config loads service configuration from a TOML or YAML file,
// a .env file, and environment overrides, in that order of precedence
// (environment wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Discord    DiscordConfig    `toml:"discord" yaml:"discord"`
	Database   DatabaseConfig   `toml:"database" yaml:"database"`
	Dictionary DictionaryConfig `toml:"dictionary" yaml:"dictionary"`
	HTTP       HTTPConfig       `toml:"http" yaml:"http"`
	Log        LogConfig        `toml:"log" yaml:"log"`
	Games      GamesConfig      `toml:"games" yaml:"games"`
}

type DiscordConfig struct {
	Token   string `toml:"token" yaml:"token"`
	GuildID string `toml:"guild_id" yaml:"guild_id"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver" yaml:"driver"` // "sqlite" | "postgres"
	Path   string `toml:"path" yaml:"path"`     // sqlite file
	URL    string `toml:"url" yaml:"url"`       // postgres dsn
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

type DictionaryConfig struct {
	// Source picks the reading backend: "jisho" or "kagome".
	Source   string   `toml:"source" yaml:"source"`
	JishoURL string   `toml:"jisho_url" yaml:"jisho_url"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Pretty bool   `toml:"pretty" yaml:"pretty"`
	// File enables rotated file output in addition to stderr.
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days"`
}

type GamesConfig struct {
	// Channels restricts games to these channel ids; empty allows all.
	Channels  []string        `toml:"channels" yaml:"channels"`
	Shiritori ShiritoriConfig `toml:"shiritori" yaml:"shiritori"`
	WordBomb  WordBombConfig  `toml:"word_bomb" yaml:"word_bomb"`
	// Rate limits chat turns per author.
	RatePerSecond float64 `toml:"rate_per_second" yaml:"rate_per_second"`
	RateBurst     int     `toml:"rate_burst" yaml:"rate_burst"`
}

type ShiritoriConfig struct {
	DefaultSeed string   `toml:"default_seed" yaml:"default_seed"`
	Lifetime    Duration `toml:"lifetime" yaml:"lifetime"`
}

type WordBombConfig struct {
	Lifetime Duration `toml:"lifetime" yaml:"lifetime"`
	Round    Duration `toml:"round" yaml:"round"`
}

// ChannelAllowed reports whether games may run in channelID.
func (g GamesConfig) ChannelAllowed(channelID string) bool {
	if len(g.Channels) == 0 {
		return true
	}
	for _, c := range g.Channels {
		if c == channelID {
			return true
		}
	}
	return false
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data/nihongo.db",
		},
		Dictionary: DictionaryConfig{
			Source:   "jisho",
			JishoURL: "https://jisho.org/api/v1/search/words",
			Timeout:  Duration(10 * time.Second),
		},
		HTTP: HTTPConfig{Addr: ":8000"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Games: GamesConfig{
			Shiritori: ShiritoriConfig{
				DefaultSeed: "さくら",
				Lifetime:    Duration(5 * time.Minute),
			},
			WordBomb: WordBombConfig{
				Lifetime: Duration(3 * time.Minute),
				Round:    Duration(10 * time.Second),
			},
			RatePerSecond: 2,
			RateBurst:     5,
		},
	}
}

// Load builds the configuration: defaults, then the file at path (if it
// exists), then .env, then the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	applyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Discord.Token, "DISCORD_TOKEN")
	set(&cfg.Discord.GuildID, "DISCORD_GUILD_ID")
	set(&cfg.Database.Driver, "DATABASE_DRIVER")
	set(&cfg.Database.Path, "DATABASE_PATH")
	set(&cfg.Database.URL, "DATABASE_URL")
	set(&cfg.Dictionary.JishoURL, "JISHO_API_URL")
	set(&cfg.Dictionary.Source, "DICTIONARY_SOURCE")
	set(&cfg.HTTP.Addr, "HTTP_ADDR")
	set(&cfg.Log.Level, "LOG_LEVEL")
	if v := getenv("GAME_CHANNELS"); v != "" {
		cfg.Games.Channels = nil
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.Games.Channels = append(cfg.Games.Channels, c)
			}
		}
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	switch c.Dictionary.Source {
	case "jisho", "kagome":
	default:
		return fmt.Errorf("unknown dictionary.source %q", c.Dictionary.Source)
	}
	return nil
}

// Duration is a time.Duration written as "10s" or "5m" in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML accepts the same strings as UnmarshalText.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}
