// Package srv connects the game engines to players: a Discord bot, a
// WebSocket web console, and a small HTTP API over stored results.
package srv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/db"
	"nihongo.exe.dev/game"
	"nihongo.exe.dev/kana"
)

var (
	ErrChannelNotAllowed = errors.New("games are not enabled in this channel")
	ErrUnknownGame       = errors.New("unknown game")
)

// Lobby is the transport-independent front of the game engines. Every
// transport starts, stops, and plays games through it so the channel
// allow-list and turn limits apply everywhere.
type Lobby struct {
	Games   *game.Manager
	Store   db.Store // optional
	Limiter *TurnLimiter
	// Allowed reports whether games may run in a channel. Nil allows all.
	Allowed func(channelID string) bool
	// Emitter receives lobby-level feedback such as dropped turns. Optional.
	Emitter game.Emitter
}

func (l *Lobby) allowed(channelID string) bool {
	return l.Allowed == nil || l.Allowed(channelID)
}

// ParseKind accepts the names players type for each game.
func ParseKind(name string) (game.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shiritori", "しりとり":
		return game.KindShiritori, nil
	case "word_bomb", "wordbomb", "word-bomb", "bomb":
		return game.KindWordBomb, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownGame, name)
}

// Start opens a game of kind in channelID. seed only applies to Shiritori.
func (l *Lobby) Start(ctx context.Context, kind game.Kind, channelID, starterID, seed string) (game.Info, error) {
	if !l.allowed(channelID) {
		return game.Info{}, ErrChannelNotAllowed
	}
	var (
		s   *game.Session
		err error
	)
	switch kind {
	case game.KindShiritori:
		s, err = l.Games.Shiritori.Start(ctx, channelID, starterID, seed)
	case game.KindWordBomb:
		s, err = l.Games.WordBomb.Start(ctx, channelID, starterID)
	default:
		return game.Info{}, fmt.Errorf("%w %q", ErrUnknownGame, kind)
	}
	if err != nil {
		return game.Info{}, err
	}
	return s.Snapshot(), nil
}

// Stop ends the game in channelID. An empty kind stops whatever runs there.
func (l *Lobby) Stop(ctx context.Context, channelID string, kind game.Kind) (game.Summary, error) {
	if kind == "" {
		return l.Games.Stop(ctx, channelID)
	}
	return l.Games.StopKind(ctx, channelID, kind)
}

// Say offers a chat message to the game running in its channel. Only
// Japanese text in a channel with a game counts against the author's
// turn budget. A turn over budget is answered with RateLimited feedback.
func (l *Lobby) Say(ctx context.Context, msg game.Message) (game.Feedback, bool) {
	if !l.allowed(msg.ChannelID) {
		return game.Feedback{}, false
	}
	info, ok := l.Games.Lookup(msg.ChannelID)
	if !ok {
		return game.Feedback{}, false
	}
	word := strings.TrimSpace(msg.Text)
	if !kana.IsJapaneseText(word) {
		return game.Feedback{}, false
	}
	if !l.Limiter.Allow(msg.AuthorID) {
		log.Debug().Str("channel", msg.ChannelID).Str("player", msg.AuthorID).Msg("turn rate limited")
		fb := game.Feedback{
			Kind:      game.FeedbackRateLimited,
			Game:      info.Kind,
			ChannelID: msg.ChannelID,
			ReplyTo:   msg.MessageID,
			PlayerID:  msg.AuthorID,
			Word:      word,
		}
		if l.Emitter != nil {
			l.Emitter.Emit(ctx, fb)
		}
		return fb, true
	}
	return l.Games.HandleMessage(ctx, msg)
}

// Leaderboard returns the top players of kind. Without a store it is empty.
func (l *Lobby) Leaderboard(ctx context.Context, kind game.Kind, limit int) ([]db.GameStats, error) {
	if l.Store == nil {
		return nil, nil
	}
	return l.Store.Leaderboard(ctx, string(kind), limit)
}

// PlayerStats returns the per-game totals of playerID.
func (l *Lobby) PlayerStats(ctx context.Context, playerID string) ([]db.GameStats, error) {
	if l.Store == nil {
		return nil, nil
	}
	return l.Store.PlayerStats(ctx, playerID)
}
