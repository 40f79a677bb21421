package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nihongo.exe.dev/game"
	"nihongo.exe.dev/srv"
)

const consoleChannel = "console"

var consoleName string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Play in the terminal",
	Long: `Console plays against the configured dictionary from standard input.

  /start [word]   start Shiritori
  /bomb           start Word Bomb
  /stop           stop the game
  /rules          show the rules
  /quit           leave

Anything else is played as a word.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVarP(&consoleName, "name", "n", "you", "Player name")
}

// printer writes every card to stdout. Timers fire on their own
// goroutines, so writes are serialized.
type printer struct {
	mu sync.Mutex
}

func (p *printer) Emit(_ context.Context, fb game.Feedback) {
	p.print(srv.Render(fb, nil))
}

func (p *printer) print(c srv.Card) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("\n%s\n> ", c.Text())
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := &printer{}
	games, err := a.games(out)
	if err != nil {
		return err
	}
	lobby := &srv.Lobby{Games: games, Store: a.store, Emitter: out}
	defer lobby.Stop(context.WithoutCancel(ctx), consoleChannel, "")

	fmt.Print("> ")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		cmdName, rest, _ := strings.Cut(line, " ")
		switch cmdName {
		case "/quit", "/exit":
			return nil
		case "/start":
			if _, err := lobby.Start(ctx, game.KindShiritori, consoleChannel, consoleName, strings.TrimSpace(rest)); err != nil {
				out.print(srv.Card{Title: "❌ " + err.Error()})
			}
		case "/bomb":
			if _, err := lobby.Start(ctx, game.KindWordBomb, consoleChannel, consoleName, ""); err != nil {
				out.print(srv.Card{Title: "❌ " + err.Error()})
			}
		case "/stop":
			if _, err := lobby.Stop(ctx, consoleChannel, ""); err != nil {
				out.print(srv.Card{Title: "❌ " + err.Error()})
			}
		case "/rules":
			kind := game.KindShiritori
			if info, ok := games.Lookup(consoleChannel); ok {
				kind = info.Kind
			}
			out.print(srv.RulesCard(kind))
		default:
			if _, ok := lobby.Say(ctx, game.Message{
				ChannelID: consoleChannel,
				AuthorID:  consoleName,
				MessageID: uuid.NewString(),
				Text:      line,
			}); !ok {
				if _, running := games.Lookup(consoleChannel); !running {
					out.print(srv.Card{Title: "No game is running. Type /start or /bomb."})
				} else {
					fmt.Print("> ")
				}
			}
		}
	}
	return sc.Err()
}
