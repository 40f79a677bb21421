package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nihongo.exe.dev/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Discord bot and the web console",
	Long: `Serve runs the HTTP API and WebSocket console, and connects to
Discord when a bot token is configured.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := srv.NewHub()
	router := &srv.Router{Web: hub}
	games, err := a.games(router)
	if err != nil {
		return err
	}

	gc := a.cfg.Games
	limiter := srv.NewTurnLimiter(gc.RatePerSecond, gc.RateBurst)
	limiter.StartCleanup(ctx, srv.LimiterCleanupInterval, srv.LimiterMaxIdle)
	lobby := &srv.Lobby{
		Games:   games,
		Store:   a.store,
		Limiter: limiter,
		Allowed: gc.ChannelAllowed,
		Emitter: router,
	}
	server := srv.New(lobby, hub, a.store)

	var bot *srv.Bot
	if a.cfg.Discord.Token != "" {
		bot, err = srv.NewBot(a.cfg.Discord.Token, a.cfg.Discord.GuildID, lobby)
		if err != nil {
			return err
		}
		router.Chat = bot
	} else {
		log.Warn().Msg("no discord token set, running the web console only")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", a.cfg.HTTP.Addr).Msg("http server listening")
		if err := server.Serve(ctx, a.cfg.HTTP.Addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if bot != nil {
		g.Go(func() error { return bot.Run(ctx) })
	}
	err = g.Wait()

	// End whatever is still running so scores are recorded.
	for _, info := range games.Active() {
		if _, err := games.Stop(context.WithoutCancel(ctx), info.ChannelID); err != nil {
			log.Warn().Err(err).Str("channel", info.ChannelID).Msg("stopping game on shutdown")
		}
	}
	log.Info().Msg("shut down")
	return err
}
