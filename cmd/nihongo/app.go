package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/config"
	"nihongo.exe.dev/db"
	"nihongo.exe.dev/dict"
	"nihongo.exe.dev/game"
	"nihongo.exe.dev/reading"
)

// app is what every subcommand needs: configuration, logging and the store.
type app struct {
	cfg     config.Config
	store   db.Store
	logFile io.Closer
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logFile, err := config.SetupLogging(cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &app{cfg: cfg, store: store, logFile: logFile}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("closing database")
	}
	a.logFile.Close()
}

// dictionary is the configured reading backend.
type dictionary interface {
	dict.Lookuper
	dict.Exister
}

func openDictionary(c config.DictionaryConfig) (dictionary, error) {
	switch c.Source {
	case "kagome":
		return dict.NewKagome()
	default:
		return dict.NewJisho(c.JishoURL, c.Timeout.Std()), nil
	}
}

// games wires both engines to the dictionary, store, and emitter.
func (a *app) games(emitter game.Emitter) (*game.Manager, error) {
	d, err := openDictionary(a.cfg.Dictionary)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary: %w", err)
	}
	log.Info().Str("source", a.cfg.Dictionary.Source).Msg("dictionary ready")

	gc := a.cfg.Games
	return game.NewManager(game.Deps{
		Readings: reading.NewResolver(d, reading.NewMemoryCache()),
		Words:    reading.NewValidator(dict.Chain{dict.CommonWords(), d}),
		Emitter:  emitter,
		Results:  a.store,
	}, game.ShiritoriConfig{
		DefaultSeed: gc.Shiritori.DefaultSeed,
		Lifetime:    gc.Shiritori.Lifetime.Std(),
	}, game.WordBombConfig{
		Lifetime: gc.WordBomb.Lifetime.Std(),
		Round:    gc.WordBomb.Round.Std(),
	}), nil
}
