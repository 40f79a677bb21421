// Package game runs the channel word games: Shiritori and Word Bomb.
// Each channel holds at most one live Session; engines validate turns,
// keep scores, and commit results when the session ends.
package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the per-game state carried by a Session.
type Kind string

const (
	KindShiritori Kind = "shiritori"
	KindWordBomb  Kind = "word_bomb"
)

// Reason records why a session ended.
type Reason string

const (
	ReasonPlayerLost Reason = "player_lost"
	ReasonManualStop Reason = "manual_stop"
	ReasonTimeout    Reason = "timeout"
)

var (
	ErrAlreadyActive   = errors.New("a game is already running in this channel")
	ErrNoGame          = errors.New("no game is running in this channel")
	ErrNotJapanese     = errors.New("word must be written in Japanese")
	ErrEndsWithN       = errors.New("word must not end in ん")
	ErrReadingNotFound = errors.New("reading not found")
)

// WordEntry records a word played in the game.
type WordEntry struct {
	Word    string    `json:"word"`
	Reading string    `json:"reading,omitempty"`
	Player  string    `json:"player"`
	Time    time.Time `json:"time"`
}

// ShiritoriState is the word-chain part of a Session.
type ShiritoriState struct {
	CurrentWord    string
	CurrentReading string // empty when CurrentWord is kana
	UsedWords      map[string]bool
	LastPlayerID   string
	History        []WordEntry
}

// WordBombState is the Word Bomb part of a Session.
type WordBombState struct {
	TargetChar string
	UsedWords  map[string]bool
	Round      int
	History    []WordEntry
}

// Session is one live game in one channel. Exactly one of Shiritori or
// WordBomb is set, selected by Kind. Exported state fields are guarded by
// the session lock; read them through Snapshot.
type Session struct {
	ID        string
	ChannelID string
	Kind      Kind
	StarterID string
	StartedAt time.Time

	// turnMu serializes turn evaluation; mu guards everything below.
	turnMu sync.Mutex
	mu     sync.Mutex

	players   map[string]int
	ended     bool
	life      context.Context
	endLife   context.CancelFunc
	lifetime  *TimerManager
	round     *TimerManager
	Shiritori *ShiritoriState
	WordBomb  *WordBombState
}

func newSession(kind Kind, channelID, starterID string, now time.Time) *Session {
	life, endLife := context.WithCancel(context.Background())
	return &Session{
		life:      life,
		endLife:   endLife,
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Kind:      kind,
		StarterID: starterID,
		StartedAt: now,
		players:   make(map[string]int),
	}
}

// Ended reports whether the session has already been torn down.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// markEnded flips the session to ended and stops its timers. It returns
// false if another path got there first.
func (s *Session) markEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	s.endLife()
	if s.lifetime != nil {
		s.lifetime.Close()
	}
	if s.round != nil {
		s.round.Close()
	}
	return true
}

// bind returns a ctx that is also cancelled when the session ends, so
// lookups still in flight for a turn are abandoned.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Score is one line of a scoreboard.
type Score struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

// scoreboardLocked returns scores sorted high to low, ties by player id.
func (s *Session) scoreboardLocked() []Score {
	board := make([]Score, 0, len(s.players))
	for id, score := range s.players {
		board = append(board, Score{PlayerID: id, Score: score})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].PlayerID < board[j].PlayerID
	})
	return board
}

func (s *Session) wordCountLocked() int {
	switch s.Kind {
	case KindShiritori:
		return len(s.Shiritori.UsedWords)
	case KindWordBomb:
		return len(s.WordBomb.UsedWords)
	}
	return 0
}

func (s *Session) historyLocked() []WordEntry {
	var src []WordEntry
	switch s.Kind {
	case KindShiritori:
		src = s.Shiritori.History
	case KindWordBomb:
		src = s.WordBomb.History
	}
	out := make([]WordEntry, len(src))
	copy(out, src)
	return out
}

// Info is a read-only copy of a session's state.
type Info struct {
	ID             string    `json:"id"`
	ChannelID      string    `json:"channelId"`
	Kind           Kind      `json:"kind"`
	StarterID      string    `json:"starterId"`
	StartedAt      time.Time `json:"startedAt"`
	Scores         []Score   `json:"scores"`
	WordCount      int       `json:"wordCount"`
	CurrentWord    string    `json:"currentWord,omitempty"`
	CurrentReading string    `json:"currentReading,omitempty"`
	LastPlayerID   string    `json:"lastPlayerId,omitempty"`
	TargetChar     string    `json:"targetChar,omitempty"`
	Round          int       `json:"round,omitempty"`
	UsedWords      []string  `json:"usedWords"`
	Ended          bool      `json:"ended"`
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		ID:        s.ID,
		ChannelID: s.ChannelID,
		Kind:      s.Kind,
		StarterID: s.StarterID,
		StartedAt: s.StartedAt,
		Scores:    s.scoreboardLocked(),
		WordCount: s.wordCountLocked(),
		Ended:     s.ended,
	}
	var used map[string]bool
	switch s.Kind {
	case KindShiritori:
		info.CurrentWord = s.Shiritori.CurrentWord
		info.CurrentReading = s.Shiritori.CurrentReading
		info.LastPlayerID = s.Shiritori.LastPlayerID
		used = s.Shiritori.UsedWords
	case KindWordBomb:
		info.TargetChar = s.WordBomb.TargetChar
		info.Round = s.WordBomb.Round
		used = s.WordBomb.UsedWords
	}
	info.UsedWords = make([]string, 0, len(used))
	for w := range used {
		info.UsedWords = append(info.UsedWords, w)
	}
	sort.Strings(info.UsedWords)
	return info
}

// Summary is the final record of an ended session.
type Summary struct {
	SessionID string      `json:"sessionId"`
	ChannelID string      `json:"channelId"`
	Game      Kind        `json:"game"`
	Reason    Reason      `json:"reason"`
	LoserID   string      `json:"loserId,omitempty"`
	Winners   []string    `json:"winners,omitempty"`
	Scores    []Score     `json:"scores"`
	History   []WordEntry `json:"history"`
	WordCount int         `json:"wordCount"`
	StartedAt time.Time   `json:"startedAt"`
	EndedAt   time.Time   `json:"endedAt"`
}

// Won reports whether playerID is among the winners.
func (sum Summary) Won(playerID string) bool {
	for _, w := range sum.Winners {
		if w == playerID {
			return true
		}
	}
	return false
}
