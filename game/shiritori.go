package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/kana"
)

const (
	DefaultSeed              = "さくら"
	DefaultShiritoriLifetime = 5 * time.Minute
)

// ShiritoriConfig tunes a Shiritori engine.
type ShiritoriConfig struct {
	// DefaultSeed is used when Start is called without a seed word.
	DefaultSeed string
	// Lifetime caps how long a session may run before it times out.
	Lifetime time.Duration
}

// Shiritori runs word-chain games: each word must start with the mora
// the previous word ended on, and a word ending in ん loses.
type Shiritori struct {
	core
	cfg ShiritoriConfig
}

// NewShiritori creates a Shiritori engine.
func NewShiritori(d Deps, cfg ShiritoriConfig) *Shiritori {
	if cfg.DefaultSeed == "" {
		cfg.DefaultSeed = DefaultSeed
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultShiritoriLifetime
	}
	return &Shiritori{core: newCore(KindShiritori, d), cfg: cfg}
}

// Start opens a session in channelID seeded with seed.
func (e *Shiritori) Start(ctx context.Context, channelID, starterID, seed string) (*Session, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		seed = e.cfg.DefaultSeed
	}
	if _, ok := e.registry.Get(channelID); ok {
		return nil, ErrAlreadyActive
	}
	if !kana.IsJapaneseText(seed) {
		return nil, ErrNotJapanese
	}
	reading, ok := e.readingOf(ctx, seed)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReadingNotFound, seed)
	}
	if kana.EndsWithN(seed, reading) {
		return nil, ErrEndsWithN
	}

	s := newSession(KindShiritori, channelID, starterID, e.clock.Now())
	s.Shiritori = &ShiritoriState{
		CurrentWord:    seed,
		CurrentReading: reading,
		UsedWords:      map[string]bool{normalize(seed, reading): true},
		LastPlayerID:   starterID,
		History: []WordEntry{{
			Word:    seed,
			Reading: reading,
			Player:  starterID,
			Time:    s.StartedAt,
		}},
	}
	lifetime := e.newLifetime(s, chainWinners)
	if err := e.registry.Create(channelID, s); err != nil {
		return nil, err
	}
	lifetime.Start(e.cfg.Lifetime)

	log.Info().Str("channel", channelID).Str("starter", starterID).Str("seed", seed).Msg("shiritori started")
	e.emit(ctx, s, Feedback{
		Kind:     FeedbackStarted,
		PlayerID: starterID,
		Word:     seed,
		Reading:  reading,
		Mora:     kana.LastMora(seed, reading),
	})
	return s, nil
}

// HandleMessage evaluates one channel message as a turn. Messages that
// are not Japanese, or arrive in a channel without a Shiritori session,
// are ignored and reported as not handled. The returned Feedback is the
// turn's final outcome.
func (e *Shiritori) HandleMessage(ctx context.Context, msg Message) (fb Feedback, handled bool) {
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

	s.mu.Lock()
	cur, curReading := s.Shiritori.CurrentWord, s.Shiritori.CurrentReading
	s.mu.Unlock()
	if curReading == "" && kana.ContainsKanji(cur) {
		// Only reachable if a kanji word got in without a reading.
		curReading, _ = e.readingOf(ctx, cur)
	}

	required := kana.LastMora(cur, curReading)
	got := kana.FirstMora(word, reading)
	if required != got {
		return reply(Feedback{Kind: FeedbackWrongMora, Word: word, Reading: reading, Mora: required, Got: got})
	}

	norm := normalize(word, reading)
	s.mu.Lock()
	used := s.Shiritori.UsedWords[norm]
	count := len(s.Shiritori.UsedWords)
	s.mu.Unlock()
	if used {
		return reply(Feedback{Kind: FeedbackAlreadyUsed, Word: word, Reading: reading})
	}

	if kana.EndsWithN(word, reading) {
		loss := Feedback{
			Kind:      FeedbackLoss,
			ReplyTo:   msg.MessageID,
			PlayerID:  msg.AuthorID,
			Word:      word,
			Reading:   reading,
			WordCount: count,
		}
		if _, ok := e.finish(ctx, s, ReasonPlayerLost, msg.AuthorID, chainWinners, loss); !ok {
			return Feedback{}, false
		}
		log.Info().Str("channel", s.ChannelID).Str("loser", msg.AuthorID).Str("word", word).Msg("shiritori lost on ん")
		return loss, true
	}

	if !e.words.Exists(ctx, word) {
		reply(Feedback{Kind: FeedbackAdvisoryUnverified, Word: word, Reading: reading})
	}

	s.mu.Lock()
	if s.ended {
		// Stopped while the dictionary was being consulted.
		s.mu.Unlock()
		return Feedback{}, false
	}
	score := e.applyWordLocked(s, word, reading, norm, msg.AuthorID)
	count = len(s.Shiritori.UsedWords)
	s.mu.Unlock()

	log.Debug().Str("channel", s.ChannelID).Str("player", msg.AuthorID).Str("word", word).Int("words", count).Msg("word accepted")
	return reply(Feedback{
		Kind:      FeedbackAccepted,
		Word:      word,
		Reading:   reading,
		Mora:      kana.LastMora(word, reading),
		WordCount: count,
		Score:     score,
	})
}

func (e *Shiritori) applyWordLocked(s *Session, word, reading, norm, playerID string) int {
	st := s.Shiritori
	st.UsedWords[norm] = true
	st.CurrentWord = word
	st.CurrentReading = reading
	st.LastPlayerID = playerID
	st.History = append(st.History, WordEntry{
		Word:    word,
		Reading: reading,
		Player:  playerID,
		Time:    e.clock.Now(),
	})
	s.players[playerID]++
	return s.players[playerID]
}

// Stop ends the Shiritori session in channelID with no winner.
func (e *Shiritori) Stop(ctx context.Context, channelID string) (Summary, error) {
	s, ok := e.session(channelID)
	if !ok {
		return Summary{}, ErrNoGame
	}
	sum, ok := e.finish(ctx, s, ReasonManualStop, "", chainWinners)
	if !ok {
		return Summary{}, ErrNoGame
	}
	return sum, nil
}

// normalize is the form used for duplicate detection: the kana
// pronunciation, so 東京 and とうきょう collide.
func normalize(word, reading string) string {
	if reading != "" {
		return kana.ToKana(reading)
	}
	return kana.ToKana(word)
}
