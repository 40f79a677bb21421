package game

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/kana"
)

// Deps are the collaborators shared by every game engine.
type Deps struct {
	Registry Registry
	Readings ReadingResolver
	Words    WordChecker
	Emitter  Emitter
	Results  ResultStore
	Clock    clockwork.Clock
}

// core holds the parts of an engine that do not depend on the game rules.
type core struct {
	kind     Kind
	registry Registry
	readings ReadingResolver
	words    WordChecker
	emitter  Emitter
	results  ResultStore
	clock    clockwork.Clock
}

func newCore(kind Kind, d Deps) core {
	c := core{
		kind:     kind,
		registry: d.Registry,
		readings: d.Readings,
		words:    d.Words,
		emitter:  d.Emitter,
		results:  d.Results,
		clock:    d.Clock,
	}
	if c.registry == nil {
		c.registry = NewMemoryRegistry()
	}
	if c.words == nil {
		c.words = acceptAll{}
	}
	if c.emitter == nil {
		c.emitter = discardEmitter{}
	}
	if c.results == nil {
		c.results = discardStore{}
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	return c
}

// Registry returns the registry the engine publishes sessions to.
func (c *core) Registry() Registry { return c.registry }

// session returns the live session of this engine's kind in channelID.
func (c *core) session(channelID string) (*Session, bool) {
	s, ok := c.registry.Get(channelID)
	if !ok || s.Kind != c.kind {
		return nil, false
	}
	return s, true
}

// readingOf returns the reading to use for word. Kana words have none.
func (c *core) readingOf(ctx context.Context, word string) (string, bool) {
	if !kana.ContainsKanji(word) {
		return "", true
	}
	if c.readings == nil {
		return "", false
	}
	return c.readings.Resolve(ctx, word)
}

func (c *core) emit(ctx context.Context, s *Session, fb Feedback) {
	fb.Game = s.Kind
	fb.ChannelID = s.ChannelID
	c.emitter.Emit(ctx, fb)
}

// newLifetime attaches the lifetime countdown to s. It must run before
// s is published so a Stop that races Start always finds it to close.
func (c *core) newLifetime(s *Session, winners func(Summary) []string) *TimerManager {
	tm := NewTimerManager(c.clock, func() {
		log.Info().Str("channel", s.ChannelID).Str("game", string(s.Kind)).Msg("session lifetime elapsed")
		c.finish(context.Background(), s, ReasonTimeout, "", winners)
	})
	s.mu.Lock()
	s.lifetime = tm
	s.mu.Unlock()
	return tm
}

// finish runs the end effect exactly once per session: stop timers,
// unpublish from the registry, commit results, and announce the end.
// announce is emitted before the Ended feedback, only by the winning caller.
func (c *core) finish(ctx context.Context, s *Session, reason Reason, loserID string, winners func(Summary) []string, announce ...Feedback) (Summary, bool) {
	if !s.markEnded() {
		return Summary{}, false
	}
	// The caller's ctx may be bound to the session, which is now over.
	ctx = context.WithoutCancel(ctx)
	c.registry.RemoveSession(s)

	s.mu.Lock()
	sum := Summary{
		SessionID: s.ID,
		ChannelID: s.ChannelID,
		Game:      s.Kind,
		Reason:    reason,
		LoserID:   loserID,
		Scores:    s.scoreboardLocked(),
		History:   s.historyLocked(),
		WordCount: s.wordCountLocked(),
		StartedAt: s.StartedAt,
		EndedAt:   c.clock.Now(),
	}
	s.mu.Unlock()
	sum.Winners = winners(sum)

	for _, fb := range announce {
		c.emit(ctx, s, fb)
	}
	c.commit(ctx, sum)
	c.emit(ctx, s, Feedback{
		Kind:       FeedbackEnded,
		PlayerID:   loserID,
		Reason:     reason,
		WordCount:  sum.WordCount,
		Scoreboard: sum.Scores,
	})

	log.Info().
		Str("channel", s.ChannelID).
		Str("game", string(s.Kind)).
		Str("reason", string(reason)).
		Int("words", sum.WordCount).
		Int("players", len(sum.Scores)).
		Msg("game ended")
	return sum, true
}

// chainWinners is the Shiritori rule: on a loss every other scoring
// player wins; stops and timeouts have no winner.
func chainWinners(sum Summary) []string {
	if sum.Reason != ReasonPlayerLost {
		return nil
	}
	var out []string
	for _, sc := range sum.Scores {
		if sc.PlayerID != sum.LoserID && sc.Score >= 1 {
			out = append(out, sc.PlayerID)
		}
	}
	return out
}

// commit writes per-player results and the summary. Failures are logged;
// the game has already ended by the time this runs.
func (c *core) commit(ctx context.Context, sum Summary) {
	for _, sc := range sum.Scores {
		if err := c.results.CommitGameResult(ctx, sc.PlayerID, string(sum.Game), sum.Won(sc.PlayerID), sc.Score); err != nil {
			log.Error().Err(err).Str("player", sc.PlayerID).Str("game", string(sum.Game)).Msg("commit game result")
		}
	}
	if err := c.results.SaveSummary(ctx, sum); err != nil {
		log.Error().Err(err).Str("session", sum.SessionID).Msg("save game summary")
	}
}

// recoverTurn keeps a panicking turn from taking down the transport loop.
func recoverTurn(s *Session, msg Message) {
	if r := recover(); r != nil {
		log.Error().
			Interface("panic", r).
			Str("channel", s.ChannelID).
			Str("author", msg.AuthorID).
			Str("text", msg.Text).
			Msg("turn handler panicked")
	}
}
