package srv

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/game"
)

// Sender is the part of the Discord API the bot talks to.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var gameChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Shiritori", Value: string(game.KindShiritori)},
	{Name: "Word Bomb", Value: string(game.KindWordBomb)},
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "shiritori",
		Description: "Play Shiritori, the Japanese word chain game",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start a new game",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "word",
					Description: "Starting word (optional)",
				}},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "stop", Description: "Stop the running game"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "rules", Description: "Show the rules"},
		},
	},
	{
		Name:        "wordbomb",
		Description: "Play Word Bomb: find a word containing the character",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "start", Description: "Start a new game"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "stop", Description: "Stop the running game"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "rules", Description: "Show the rules"},
		},
	},
	{
		Name:        "stats",
		Description: "Game statistics",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "leaderboard",
				Description: "Top players of a game",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Which game",
					Required:    true,
					Choices:     gameChoices,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "player",
				Description: "A player's totals",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Player (defaults to you)",
				}},
			},
		},
	},
}

// Bot plays the games in Discord text channels. Chat messages become
// turns; slash commands start, stop, and explain games.
type Bot struct {
	Lobby *Lobby

	sender  Sender
	session *discordgo.Session
	guildID string
	ctx     context.Context
	turns   *turnQueue
}

// NewBot creates a bot for token. Commands are registered in guildID, or
// globally when it is empty.
func NewBot(token, guildID string, lobby *Lobby) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	b := newBot(dg, lobby)
	b.session = dg
	b.guildID = guildID
	// Handlers run on the event loop in arrival order. Messages only
	// enqueue, so a slow turn never holds up the gateway.
	dg.SyncEvents = true
	dg.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(m.Message)
	})
	dg.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		go b.handleInteraction(i.Interaction)
	})
	return b, nil
}

func newBot(sender Sender, lobby *Lobby) *Bot {
	return &Bot{Lobby: lobby, sender: sender, ctx: context.Background(), turns: newTurnQueue()}
}

// Run connects to the gateway, registers the slash commands, and blocks
// until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer b.session.Close()

	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, commands); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	log.Info().Str("user", b.session.State.User.Username).Str("guild", b.guildID).Msg("discord bot online")

	<-ctx.Done()
	b.turns.Wait()
	return nil
}

func mention(id string) string { return "<@" + id + ">" }

func embed(c Card) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Body,
		Color:       c.Color,
	}
	for _, f := range c.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if c.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: c.Footer}
	}
	return e
}

// Emit implements game.Emitter for Discord channels. Turn outcomes reply
// to the message that caused them.
func (b *Bot) Emit(_ context.Context, fb game.Feedback) {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed(Render(fb, mention))},
	}
	if fb.ReplyTo != "" {
		msg.Reference = &discordgo.MessageReference{MessageID: fb.ReplyTo, ChannelID: fb.ChannelID}
	}
	if _, err := b.sender.ChannelMessageSendComplex(fb.ChannelID, msg); err != nil {
		log.Warn().Err(err).Str("channel", fb.ChannelID).Str("kind", fb.Kind.String()).Msg("discord send failed")
	}
}

func (b *Bot) handleMessage(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	msg := game.Message{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		MessageID: m.ID,
		Text:      m.Content,
	}
	b.turns.Submit(m.ChannelID, func() { b.Lobby.Say(b.ctx, msg) })
}

func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name == name && o.Value != nil {
			return fmt.Sprint(o.Value)
		}
	}
	return ""
}

func (b *Bot) handleInteraction(i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	userID := interactionUser(i)

	switch data.Name {
	case "shiritori", "wordbomb":
		kind := game.KindShiritori
		if data.Name == "wordbomb" {
			kind = game.KindWordBomb
		}
		switch sub.Name {
		case "rules":
			b.respond(i, RulesCard(kind), false)
		case "start":
			seed := optionString(sub.Options, "word")
			b.deferred(i, func(ctx context.Context) Card {
				if _, err := b.Lobby.Start(ctx, kind, i.ChannelID, userID, seed); err != nil {
					return errorCard("Could not start the game", commandError(err))
				}
				return Card{Title: "✅ " + gameTitle(kind) + " started", Color: colorSuccess}
			})
		case "stop":
			b.deferred(i, func(ctx context.Context) Card {
				if _, err := b.Lobby.Stop(ctx, i.ChannelID, kind); err != nil {
					return errorCard("Could not stop the game", commandError(err))
				}
				return Card{Title: "🛑 " + gameTitle(kind) + " stopped", Color: colorInfo}
			})
		}

	case "stats":
		switch sub.Name {
		case "leaderboard":
			kind, err := ParseKind(optionString(sub.Options, "game"))
			if err != nil {
				b.respond(i, errorCard("Unknown game", err.Error()), true)
				return
			}
			board, err := b.Lobby.Leaderboard(b.ctx, kind, 10)
			if err != nil {
				log.Error().Err(err).Msg("leaderboard")
				b.respond(i, errorCard("Leaderboard unavailable", "Try again later."), true)
				return
			}
			b.respond(i, LeaderboardCard(kind, board, mention), false)
		case "player":
			target := optionString(sub.Options, "user")
			if target == "" {
				target = userID
			}
			stats, err := b.Lobby.PlayerStats(b.ctx, target)
			if err != nil {
				log.Error().Err(err).Str("player", target).Msg("player stats")
				b.respond(i, errorCard("Stats unavailable", "Try again later."), true)
				return
			}
			b.respond(i, StatsCard(target, stats, mention), false)
		}
	}
}

func errorCard(title, body string) Card {
	return Card{Title: "❌ " + title, Body: body, Color: colorError}
}

// commandError explains a failed start or stop to the player.
func commandError(err error) string {
	switch {
	case errors.Is(err, game.ErrAlreadyActive):
		return "A game is already running in this channel."
	case errors.Is(err, game.ErrNoGame):
		return "No game is running in this channel."
	case errors.Is(err, ErrChannelNotAllowed):
		return "Games are not enabled in this channel."
	}
	return startError(err)
}

func (b *Bot) respond(i *discordgo.Interaction, c Card, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed(c)}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.sender.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Warn().Err(err).Msg("interaction respond")
	}
}

// deferred acknowledges i at once, privately, and edits the answer in
// when run returns. Starting a game may wait on a dictionary lookup
// longer than Discord allows before the first response.
func (b *Bot) deferred(i *discordgo.Interaction, run func(ctx context.Context) Card) {
	err := b.sender.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Warn().Err(err).Msg("interaction defer")
		return
	}
	embeds := []*discordgo.MessageEmbed{embed(run(b.ctx))}
	if _, err := b.sender.InteractionResponseEdit(i, &discordgo.WebhookEdit{Embeds: &embeds}); err != nil {
		log.Warn().Err(err).Msg("interaction edit")
	}
}
