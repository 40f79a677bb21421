package game

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/kana"
)

const (
	DefaultBombLifetime = 3 * time.Minute
	DefaultBombRound    = 10 * time.Second
)

var bombTargets = []rune("あいうえおかきくけこさしすせそたちつてとなにぬねのはひふへほまみむめもやゆよらりるれろわをん")

// WordBombConfig tunes a WordBomb engine.
type WordBombConfig struct {
	Lifetime time.Duration
	Round    time.Duration
	// Pick returns a random index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

// WordBomb runs games where each word must contain a random target kana
// before the round timer runs out.
type WordBomb struct {
	core
	cfg WordBombConfig
}

// NewWordBomb creates a WordBomb engine.
func NewWordBomb(d Deps, cfg WordBombConfig) *WordBomb {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultBombLifetime
	}
	if cfg.Round <= 0 {
		cfg.Round = DefaultBombRound
	}
	if cfg.Pick == nil {
		cfg.Pick = rand.IntN
	}
	return &WordBomb{core: newCore(KindWordBomb, d), cfg: cfg}
}

func (e *WordBomb) target() string {
	return string(bombTargets[e.cfg.Pick(len(bombTargets))])
}

// Start opens a Word Bomb session in channelID.
func (e *WordBomb) Start(ctx context.Context, channelID, starterID string) (*Session, error) {
	s := newSession(KindWordBomb, channelID, starterID, e.clock.Now())
	s.WordBomb = &WordBombState{
		TargetChar: e.target(),
		UsedWords:  make(map[string]bool),
		Round:      1,
	}
	s.round = NewTimerManager(e.clock, func() { e.expireRound(s) })
	lifetime := e.newLifetime(s, topScorer)
	target := s.WordBomb.TargetChar
	if err := e.registry.Create(channelID, s); err != nil {
		return nil, err
	}
	lifetime.Start(e.cfg.Lifetime)
	s.round.Start(e.cfg.Round)

	log.Info().Str("channel", channelID).Str("starter", starterID).Str("target", target).Msg("word bomb started")
	e.emit(ctx, s, Feedback{
		Kind:     FeedbackStarted,
		PlayerID: starterID,
		Mora:     target,
		Round:    1,
	})
	return s, nil
}

// expireRound moves to a fresh target when nobody answered in time.
func (e *WordBomb) expireRound(s *Session) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	st := s.WordBomb
	prev := st.TargetChar
	st.TargetChar = e.target()
	st.Round++
	fb := Feedback{Kind: FeedbackRoundExpired, Got: prev, Mora: st.TargetChar, Round: st.Round}
	s.mu.Unlock()

	e.emit(context.Background(), s, fb)
	s.round.Reset()
}

// HandleMessage evaluates one channel message as a Word Bomb answer.
func (e *WordBomb) HandleMessage(ctx context.Context, msg Message) (fb Feedback, handled bool) {
	word := strings.TrimSpace(msg.Text)
	if !kana.IsJapaneseText(word) {
		return Feedback{}, false
	}
	s, ok := e.session(msg.ChannelID)
	if !ok {
		return Feedback{}, false
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	defer recoverTurn(s, msg)
	if s.Ended() {
		return Feedback{}, false
	}
	ctx, cancel := s.bind(ctx)
	defer cancel()

	reply := func(fb Feedback) (Feedback, bool) {
		fb.ReplyTo = msg.MessageID
		fb.PlayerID = msg.AuthorID
		e.emit(ctx, s, fb)
		return fb, true
	}

	reading, ok := e.readingOf(ctx, word)
	if !ok {
		return reply(Feedback{Kind: FeedbackReadingNotFound, Word: word})
	}
	norm := normalize(word, reading)

	s.mu.Lock()
	target := s.WordBomb.TargetChar
	used := s.WordBomb.UsedWords[norm]
	s.mu.Unlock()
	if !strings.Contains(norm, target) {
		return reply(Feedback{Kind: FeedbackMissingChar, Word: word, Reading: reading, Mora: target})
	}
	if used {
		return reply(Feedback{Kind: FeedbackAlreadyUsed, Word: word, Reading: reading})
	}

	if !e.words.Exists(ctx, word) {
		reply(Feedback{Kind: FeedbackAdvisoryUnverified, Word: word, Reading: reading})
	}

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return Feedback{}, false
	}
	st := s.WordBomb
	if st.TargetChar != target && !strings.Contains(norm, st.TargetChar) {
		// The round expired while the dictionary was being consulted.
		next := st.TargetChar
		s.mu.Unlock()
		return reply(Feedback{Kind: FeedbackMissingChar, Word: word, Reading: reading, Mora: next})
	}
	st.UsedWords[norm] = true
	st.History = append(st.History, WordEntry{Word: word, Reading: reading, Player: msg.AuthorID, Time: e.clock.Now()})
	s.players[msg.AuthorID]++
	score := s.players[msg.AuthorID]
	st.TargetChar = e.target()
	st.Round++
	next, round, count := st.TargetChar, st.Round, len(st.UsedWords)
	s.mu.Unlock()
	s.round.Reset()

	return reply(Feedback{
		Kind:      FeedbackAccepted,
		Word:      word,
		Reading:   reading,
		Mora:      next,
		Round:     round,
		WordCount: count,
		Score:     score,
	})
}

// Stop ends the Word Bomb session in channelID; the top scorer wins.
func (e *WordBomb) Stop(ctx context.Context, channelID string) (Summary, error) {
	s, ok := e.session(channelID)
	if !ok {
		return Summary{}, ErrNoGame
	}
	sum, ok := e.finish(ctx, s, ReasonManualStop, "", topScorer)
	if !ok {
		return Summary{}, ErrNoGame
	}
	return sum, nil
}

// topScorer picks the first entry of the sorted scoreboard.
func topScorer(sum Summary) []string {
	if len(sum.Scores) == 0 || sum.Scores[0].Score == 0 {
		return nil
	}
	return []string{sum.Scores[0].PlayerID}
}
