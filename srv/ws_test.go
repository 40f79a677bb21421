package srv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nihongo.exe.dev/game"
)

func dialConsole(t *testing.T, ts *httptest.Server, channel, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?channel=" + channel + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Every connection opens with the channel state.
	first := readMsg(t, conn)
	require.Equal(t, "state", first.Type)
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m WSMessage
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

// readFeedback skips envelopes until a feedback of kind arrives.
func readFeedback(t *testing.T, conn *websocket.Conn, kind game.FeedbackKind) WSMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		m := readMsg(t, conn)
		if m.Type == "feedback" && m.Feedback != nil && m.Feedback.Kind == kind {
			return m
		}
	}
	t.Fatalf("no %s feedback received", kind)
	return WSMessage{}
}

func waitClients(t *testing.T, h *Hub, channel string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients(channel) != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients in %s, want %d", h.Clients(channel), channel, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConsoleRequiresChannelAndName(t *testing.T) {
	f := newFixture(t)
	rec := get(t, f.server.Router(), "/ws?channel=lobby")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsolePlaysShiritori(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Router())
	defer ts.Close()

	alice := dialConsole(t, ts, "lobby", "alice")
	bob := dialConsole(t, ts, "lobby", "bob")
	waitClients(t, f.hub, "web:lobby", 2)

	require.NoError(t, alice.WriteJSON(WSMessage{Type: "start", Game: "shiritori"}))
	started := readFeedback(t, bob, game.FeedbackStarted)
	assert.Equal(t, "ら", started.Feedback.Mora)
	assert.Equal(t, "web:lobby", started.Feedback.ChannelID)
	require.NotNil(t, started.Card)
	assert.Contains(t, started.Card.Title, "Shiritori started")
	readFeedback(t, alice, game.FeedbackStarted)

	require.NoError(t, bob.WriteJSON(WSMessage{Type: "say", Text: "らっぱ"}))
	accepted := readFeedback(t, alice, game.FeedbackAccepted)
	assert.Equal(t, "web:bob", accepted.Feedback.PlayerID)
	assert.Equal(t, "ぱ", accepted.Feedback.Mora)

	info, ok := f.lobby.Games.Lookup("web:lobby")
	require.True(t, ok)
	assert.Equal(t, "らっぱ", info.CurrentWord)

	require.NoError(t, alice.WriteJSON(WSMessage{Type: "stop"}))
	ended := readFeedback(t, bob, game.FeedbackEnded)
	assert.Equal(t, game.ReasonManualStop, ended.Feedback.Reason)
	require.Len(t, ended.Feedback.Scoreboard, 1)
	assert.Equal(t, "web:bob", ended.Feedback.Scoreboard[0].PlayerID)
	// Names are shown without the console prefix.
	assert.Contains(t, ended.Card.Fields[0].Value, "bob: 1")
}

func TestConsoleErrors(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Router())
	defer ts.Close()
	conn := dialConsole(t, ts, "lobby", "alice")

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "start", Game: "chess"}))
	m := readMsg(t, conn)
	assert.Equal(t, "error", m.Type)
	assert.Contains(t, m.Message, "unknown game")

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "start", Game: "shiritori", Seed: "みかん"}))
	m = readMsg(t, conn)
	assert.Equal(t, "error", m.Type)
	assert.Equal(t, "the starting word cannot end in ん", m.Message)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "stop"}))
	m = readMsg(t, conn)
	assert.Equal(t, "error", m.Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "dance"}))
	m = readMsg(t, conn)
	assert.Equal(t, "error", m.Type)
	assert.Contains(t, m.Message, "unknown message type")

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "ping"}))
	m = readMsg(t, conn)
	assert.Equal(t, "pong", m.Type)
}

func TestConsoleStateAndLeave(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Router())
	defer ts.Close()

	conn := dialConsole(t, ts, "room", "alice")
	require.NoError(t, conn.WriteJSON(WSMessage{Type: "start", Game: "bomb"}))
	started := readFeedback(t, conn, game.FeedbackStarted)
	assert.Equal(t, game.KindWordBomb, started.Feedback.Game)
	assert.Equal(t, "あ", started.Feedback.Mora)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "state"}))
	m := readMsg(t, conn)
	require.Equal(t, "state", m.Type)
	require.NotNil(t, m.State)
	assert.Equal(t, "あ", m.State.TargetChar)
	assert.Equal(t, 1, m.State.Round)

	conn.Close()
	waitClients(t, f.hub, "web:room", 0)
}

func TestHubIgnoresOtherChannels(t *testing.T) {
	h := NewHub()
	a := &client{channel: "web:a", send: make(chan []byte, 1)}
	b := &client{channel: "web:b", send: make(chan []byte, 1)}
	h.join(a)
	h.join(b)

	h.Emit(context.Background(), game.Feedback{Kind: game.FeedbackAccepted, ChannelID: "web:a"})
	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 0)

	// A full buffer drops instead of blocking.
	h.Emit(context.Background(), game.Feedback{Kind: game.FeedbackAccepted, ChannelID: "web:a"})
	assert.Len(t, a.send, 1)

	assert.Equal(t, 0, h.leave(a))
	assert.Equal(t, 0, h.Clients("web:a"))
	assert.Equal(t, 1, h.Clients("web:b"))
}
