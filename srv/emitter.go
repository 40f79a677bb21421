package srv

import (
	"context"
	"strings"

	"nihongo.exe.dev/game"
)

// WebPrefix marks channel and player ids that belong to the web console,
// keeping them apart from Discord snowflakes in the shared registry and
// the score store.
const WebPrefix = "web:"

// IsWeb reports whether id belongs to the web console.
func IsWeb(id string) bool { return strings.HasPrefix(id, WebPrefix) }

// WebName strips the web console prefix for display.
func WebName(id string) string { return strings.TrimPrefix(id, WebPrefix) }

// Router sends feedback to the web console or the chat transport based
// on the channel it belongs to. Either side may be nil.
type Router struct {
	Web  game.Emitter
	Chat game.Emitter
}

func (r Router) Emit(ctx context.Context, fb game.Feedback) {
	dst := r.Chat
	if IsWeb(fb.ChannelID) {
		dst = r.Web
	}
	if dst != nil {
		dst.Emit(ctx, fb)
	}
}
