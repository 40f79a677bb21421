package srv

import (
	"fmt"
	"strings"

	"nihongo.exe.dev/db"
	"nihongo.exe.dev/game"
)

// Embed colors shared by every transport.
const (
	colorPrimary = 0xBC002D
	colorSuccess = 0x00C853
	colorError   = 0xFF1744
	colorWarning = 0xFFAB00
	colorInfo    = 0x2979FF
	colorGold    = 0xFFD700
)

var medals = []string{"🥇", "🥈", "🥉"}

// Card is a transport-neutral rendering of one message to players.
type Card struct {
	Title  string  `json:"title"`
	Body   string  `json:"body,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Footer string  `json:"footer,omitempty"`
	Color  int     `json:"color"`
}

// Field is a labelled value shown under a card body.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Namer turns a player id into something to show, such as a mention.
type Namer func(playerID string) string

func plainName(id string) string { return id }

// Text renders c as plain lines for terminals and logs.
func (c Card) Text() string {
	var b strings.Builder
	b.WriteString(c.Title)
	if c.Body != "" {
		b.WriteString("\n")
		b.WriteString(strings.ReplaceAll(c.Body, "**", ""))
	}
	for _, f := range c.Fields {
		fmt.Fprintf(&b, "\n%s: %s", f.Name, strings.ReplaceAll(f.Value, "`", ""))
	}
	if c.Footer != "" {
		b.WriteString("\n")
		b.WriteString(c.Footer)
	}
	return b.String()
}

func withReading(word, reading string) string {
	if reading == "" || reading == word {
		return "**" + word + "**"
	}
	return fmt.Sprintf("**%s** (%s)", word, reading)
}

// Render turns a Feedback into a Card.
func Render(fb game.Feedback, name Namer) Card {
	if name == nil {
		name = plainName
	}
	word := withReading(fb.Word, fb.Reading)
	switch fb.Kind {
	case game.FeedbackStarted:
		if fb.Game == game.KindWordBomb {
			return Card{
				Title: "💣 Word Bomb started!",
				Body:  fmt.Sprintf("Write a word that contains `%s` before the bomb goes off!", fb.Mora),
				Fields: []Field{
					{Name: "🎯 Character", Value: "`" + fb.Mora + "`", Inline: true},
					{Name: "🔁 Round", Value: fmt.Sprint(fb.Round), Inline: true},
				},
				Footer: "Every word must be new. Use /wordbomb stop to end the game.",
				Color:  colorPrimary,
			}
		}
		return Card{
			Title: "🎌 Shiritori started! (しりとり)",
			Body:  fmt.Sprintf("%s started the chain with %s.", name(fb.PlayerID), word),
			Fields: []Field{
				{Name: "🎯 Next mora", Value: "`" + fb.Mora + "`", Inline: true},
			},
			Footer: "Words ending in ん lose! Use /shiritori stop to end the game.",
			Color:  colorPrimary,
		}
	case game.FeedbackWrongMora:
		return Card{
			Title: "❌ Wrong mora",
			Body: fmt.Sprintf("The word must start with `%s`!\n\n**Your word:** %s\n**Starts with:** `%s`",
				fb.Mora, word, fb.Got),
			Color: colorError,
		}
	case game.FeedbackAlreadyUsed:
		return Card{
			Title: "❌ Word already used",
			Body:  word + " has already been played in this game!",
			Color: colorError,
		}
	case game.FeedbackReadingNotFound:
		return Card{
			Title: "⚠️ Reading not found",
			Body:  fmt.Sprintf("I can't find the reading of **%s**. It may not be a real word.", fb.Word),
			Color: colorWarning,
		}
	case game.FeedbackAdvisoryUnverified:
		return Card{
			Title: "⚠️ Word not found",
			Body:  fmt.Sprintf("I can't find **%s** in the dictionary. It may not be valid, but the game goes on.", fb.Word),
			Color: colorWarning,
		}
	case game.FeedbackAccepted:
		if fb.Game == game.KindWordBomb {
			return Card{
				Title: "✅ Defused!",
				Body:  word + " is correct!",
				Fields: []Field{
					{Name: "🎯 Next character", Value: "`" + fb.Mora + "`", Inline: true},
					{Name: "🔁 Round", Value: fmt.Sprint(fb.Round), Inline: true},
					{Name: "⭐ Score", Value: fmt.Sprint(fb.Score), Inline: true},
				},
				Color: colorSuccess,
			}
		}
		return Card{
			Title: "✅ Correct!",
			Body:  word + " is correct!",
			Fields: []Field{
				{Name: "🎯 Next mora", Value: "`" + fb.Mora + "`", Inline: true},
				{Name: "📊 Words played", Value: fmt.Sprint(fb.WordCount), Inline: true},
			},
			Footer: "The next word must start with: " + fb.Mora,
			Color:  colorSuccess,
		}
	case game.FeedbackLoss:
		return Card{
			Title:  "💀 GAME OVER!",
			Body:   fmt.Sprintf("%s ends in ん!\n\n%s lost the game!", word, name(fb.PlayerID)),
			Footer: fmt.Sprintf("Words played: %d", fb.WordCount),
			Color:  colorError,
		}
	case game.FeedbackEnded:
		return Card{
			Title:  "🏁 " + gameTitle(fb.Game) + " is over",
			Body:   endReason(fb, name),
			Fields: []Field{{Name: "🏆 Scores", Value: scoreLines(fb.Scoreboard, name)}},
			Footer: fmt.Sprintf("Words played: %d", fb.WordCount),
			Color:  colorGold,
		}
	case game.FeedbackMissingChar:
		return Card{
			Title: "❌ Missing character",
			Body:  fmt.Sprintf("%s does not contain `%s`!", word, fb.Mora),
			Color: colorError,
		}
	case game.FeedbackRoundExpired:
		return Card{
			Title: "💥 Boom!",
			Body:  fmt.Sprintf("Nobody found a word with `%s` in time.", fb.Got),
			Fields: []Field{
				{Name: "🎯 New character", Value: "`" + fb.Mora + "`", Inline: true},
				{Name: "🔁 Round", Value: fmt.Sprint(fb.Round), Inline: true},
			},
			Color: colorWarning,
		}
	case game.FeedbackRateLimited:
		return Card{
			Title: "⏳ Slow down",
			Body:  fmt.Sprintf("%s was not played. You are answering too fast, try again in a moment.", word),
			Color: colorWarning,
		}
	}
	return Card{Title: fb.Kind.String(), Color: colorInfo}
}

func gameTitle(k game.Kind) string {
	if k == game.KindWordBomb {
		return "Word Bomb"
	}
	return "Shiritori"
}

func endReason(fb game.Feedback, name Namer) string {
	switch fb.Reason {
	case game.ReasonPlayerLost:
		if fb.PlayerID != "" {
			return name(fb.PlayerID) + " lost the game."
		}
		return "A player lost the game."
	case game.ReasonTimeout:
		return "⏰ Time is up!"
	default:
		return "The game was stopped."
	}
}

func scoreLines(scores []game.Score, name Namer) string {
	if len(scores) == 0 {
		return "No words were played."
	}
	lines := make([]string, 0, len(scores))
	for i, s := range scores {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d", rank, name(s.PlayerID), s.Score))
	}
	return strings.Join(lines, "\n")
}

// RulesCard explains how to play kind.
func RulesCard(kind game.Kind) Card {
	if kind == game.KindWordBomb {
		return Card{
			Title: "📖 Word Bomb rules",
			Body:  "Each round shows a hiragana character. Be the first to write a word that contains it!",
			Fields: []Field{
				{Name: "🎯 How to play", Value: "1. The bot picks a character\n2. Write a word containing it before the timer runs out\n3. A correct word scores a point and starts a new round"},
				{Name: "❌ Rules", Value: "• Words cannot be reused\n• Kanji words are read through the dictionary"},
				{Name: "🎮 Commands", Value: "`/wordbomb start` - Start a game\n`/wordbomb stop` - Stop the game"},
			},
			Footer: "The top scorer wins when time runs out.",
			Color:  colorInfo,
		}
	}
	return Card{
		Title: "📖 Shiritori rules (しりとり)",
		Body:  "Shiritori is a Japanese word chain: every word must start with the last mora of the previous one.",
		Fields: []Field{
			{Name: "🎯 How to play", Value: "1. Someone says a Japanese word\n2. The next word starts with its last mora\n3. Example: さくら → らっこ → こあら"},
			{Name: "❌ How to lose", Value: "• A word ending in **ん** loses!\n• Words cannot be repeated\n• Words must be Japanese"},
			{Name: "💡 Tips", Value: "• Small kana count: きしゃ ends on しゃ\n• ー is its own mora"},
			{Name: "🎮 Commands", Value: "`/shiritori start` - Start a game\n`/shiritori start [word]` - Start from a word\n`/shiritori stop` - Stop the game"},
		},
		Footer: "頑張って! (Ganbatte!)",
		Color:  colorInfo,
	}
}

// LeaderboardCard lists the top players of kind.
func LeaderboardCard(kind game.Kind, board []db.GameStats, name Namer) Card {
	if name == nil {
		name = plainName
	}
	c := Card{Title: "🏆 " + gameTitle(kind) + " leaderboard", Color: colorGold}
	if len(board) == 0 {
		c.Body = "Nobody has played yet."
		return c
	}
	lines := make([]string, 0, len(board))
	for i, st := range board {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d wins, %d words (%d games)",
			rank, name(st.PlayerID), st.GamesWon, st.TotalWords, st.GamesPlayed))
	}
	c.Body = strings.Join(lines, "\n")
	return c
}

// StatsCard shows one player's totals for every game they played.
func StatsCard(playerID string, stats []db.GameStats, name Namer) Card {
	if name == nil {
		name = plainName
	}
	c := Card{Title: "📊 Stats for " + name(playerID), Color: colorInfo}
	if len(stats) == 0 {
		c.Body = "No games played yet."
		return c
	}
	for _, st := range stats {
		c.Fields = append(c.Fields, Field{
			Name: gameTitle(game.Kind(st.Game)),
			Value: fmt.Sprintf("Games: %d\nWins: %d\nWords: %d\nBest: %d",
				st.GamesPlayed, st.GamesWon, st.TotalWords, st.BestScore),
			Inline: true,
		})
	}
	return c
}
