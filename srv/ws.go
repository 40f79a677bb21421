package srv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/game"
)

const (
	writeWait   = 10 * time.Second
	sendBufSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSMessage is the envelope for all web console messages.
type WSMessage struct {
	Type string `json:"type"`
	Game string `json:"game,omitempty"` // for start and stop
	Seed string `json:"seed,omitempty"` // for start
	Text string `json:"text,omitempty"` // for say

	// Response fields
	Message  string         `json:"message,omitempty"`
	Feedback *game.Feedback `json:"feedback,omitempty"`
	Card     *Card          `json:"card,omitempty"`
	State    *game.Info     `json:"state,omitempty"`
}

// mustMarshal marshals v to JSON or panics.
func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("json marshal: %v", err))
	}
	return b
}

// client is one web console connection watching one channel.
type client struct {
	player  string
	channel string
	send    chan []byte
}

// Hub fans feedback out to every web console connection of a channel.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*client]struct{})}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[c.channel]
	if !ok {
		set = make(map[*client]struct{})
		h.channels[c.channel] = set
	}
	set[c] = struct{}{}
}

// leave removes c and reports how many clients remain in its channel.
func (h *Hub) leave(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.channels[c.channel]
	delete(set, c)
	if len(set) == 0 {
		delete(h.channels, c.channel)
	}
	return len(set)
}

// Clients returns the number of connections watching channel.
func (h *Hub) Clients(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Broadcast sends data to all clients in channel.
func (h *Hub) Broadcast(channel string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.channels[channel] {
		select {
		case c.send <- data:
		default:
			// drop if channel full
		}
	}
}

// Emit implements game.Emitter for web console channels.
func (h *Hub) Emit(_ context.Context, fb game.Feedback) {
	card := Render(fb, WebName)
	h.Broadcast(fb.ChannelID, mustMarshal(WSMessage{
		Type:     "feedback",
		Feedback: &fb,
		Card:     &card,
	}))
}

// HandleWS serves the web console. The query names the room and the
// player: /ws?channel=lobby&name=alice. Both are namespaced under
// WebPrefix so they never collide with chat ids.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	room := strings.TrimSpace(r.URL.Query().Get("channel"))
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if room == "" || name == "" {
		http.Error(w, `{"error":"channel and name are required"}`, http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade")
		return
	}

	c := &client{
		player:  WebPrefix + name,
		channel: WebPrefix + room,
		send:    make(chan []byte, sendBufSize),
	}
	s.Hub.join(c)
	log.Info().Str("channel", c.channel).Str("player", c.player).Msg("console joined")

	done := make(chan struct{})
	go func() {
		writePump(conn, c)
		close(done)
	}()
	defer func() {
		remaining := s.Hub.leave(c)
		close(c.send)
		<-done
		conn.Close()
		log.Info().Str("channel", c.channel).Str("player", c.player).Int("remaining", remaining).Msg("console left")
	}()

	send := func(m WSMessage) {
		select {
		case c.send <- mustMarshal(m):
		default:
		}
	}
	sendErr := func(message string) {
		send(WSMessage{Type: "error", Message: message})
	}
	sendState := func() {
		if info, ok := s.Lobby.Games.Lookup(c.channel); ok {
			send(WSMessage{Type: "state", State: &info})
			return
		}
		send(WSMessage{Type: "state"})
	}

	sendState()
	limiter := NewConnectionRateLimiter()
	ctx := r.Context()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		allowed, disconnect := limiter.Allow(msg.Type)
		if disconnect {
			log.Warn().Str("player", c.player).Msg("console disconnected for flooding")
			return
		}
		if !allowed {
			sendErr("slow down")
			continue
		}

		switch msg.Type {
		case "ping":
			send(WSMessage{Type: "pong"})

		case "state":
			sendState()

		case "start":
			kind, err := ParseKind(msg.Game)
			if err != nil {
				sendErr(err.Error())
				continue
			}
			if _, err := s.Lobby.Start(ctx, kind, c.channel, c.player, msg.Seed); err != nil {
				sendErr(startError(err))
			}

		case "stop":
			var kind game.Kind
			if msg.Game != "" {
				if kind, err = ParseKind(msg.Game); err != nil {
					sendErr(err.Error())
					continue
				}
			}
			if _, err := s.Lobby.Stop(ctx, c.channel, kind); err != nil {
				sendErr(err.Error())
			}

		case "say":
			s.Lobby.Say(ctx, game.Message{
				ChannelID: c.channel,
				AuthorID:  c.player,
				MessageID: uuid.NewString(),
				Text:      msg.Text,
			})

		default:
			sendErr(fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

// startError explains why a game could not start.
func startError(err error) string {
	switch {
	case errors.Is(err, game.ErrEndsWithN):
		return "the starting word cannot end in ん"
	case errors.Is(err, game.ErrNotJapanese):
		return "the starting word must be Japanese"
	case errors.Is(err, game.ErrReadingNotFound):
		return "could not find the reading of the starting word"
	}
	return err.Error()
}

// writePump pumps messages from the client's send channel to the WebSocket.
func writePump(conn *websocket.Conn, c *client) {
	for msg := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Keep draining so senders never block on a dead peer.
			for range c.send {
			}
			return
		}
	}
}
