package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// testClock is a clockwork fake that knows which of its AfterFunc
// callbacks are still outstanding. clockwork runs each callback on its
// own goroutine, so Advance waits for the ones it released.
type testClock struct {
	*clockwork.FakeClock

	mu     sync.Mutex
	timers map[*testTimer]struct{}
}

type testTimer struct {
	clockwork.Timer
	clock *testClock
	at    time.Time
}

func newTestClock() *testClock {
	return &testClock{
		FakeClock: clockwork.NewFakeClockAt(time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)),
		timers:    make(map[*testTimer]struct{}),
	}
}

func (c *testClock) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	t := &testTimer{clock: c, at: c.Now().Add(d)}
	c.mu.Lock()
	c.timers[t] = struct{}{}
	c.mu.Unlock()
	t.Timer = c.FakeClock.AfterFunc(d, func() {
		defer c.forget(t)
		f()
	})
	return t
}

func (t *testTimer) Stop() bool {
	stopped := t.Timer.Stop()
	if stopped {
		t.clock.forget(t)
	}
	return stopped
}

func (c *testClock) forget(t *testTimer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, t)
}

// Advance moves the clock forward and returns once every callback that
// came due has finished.
func (c *testClock) Advance(d time.Duration) {
	c.FakeClock.Advance(d)
	for wait := time.Now().Add(2 * time.Second); time.Now().Before(wait); {
		if c.due() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func (c *testClock) due() int {
	now := c.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for t := range c.timers {
		if !t.at.After(now) {
			n++
		}
	}
	return n
}

// Pending reports how many callbacks are scheduled and not yet run or stopped.
func (c *testClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

type recorder struct {
	mu  sync.Mutex
	fbs []Feedback
}

func (r *recorder) Emit(_ context.Context, fb Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fbs = append(r.fbs, fb)
}

func (r *recorder) kinds() []FeedbackKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FeedbackKind, len(r.fbs))
	for i, fb := range r.fbs {
		out[i] = fb.Kind
	}
	return out
}

func (r *recorder) last(kind FeedbackKind) (Feedback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.fbs) - 1; i >= 0; i-- {
		if r.fbs[i].Kind == kind {
			return r.fbs[i], true
		}
	}
	return Feedback{}, false
}

func (r *recorder) count(kind FeedbackKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

type commit struct {
	Player string
	Game   string
	Won    bool
	Words  int
}

type memStore struct {
	mu        sync.Mutex
	commits   []commit
	summaries []Summary
}

func (m *memStore) CommitGameResult(_ context.Context, playerID, game string, won bool, words int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits = append(m.commits, commit{playerID, game, won, words})
	return nil
}

func (m *memStore) SaveSummary(_ context.Context, sum Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, sum)
	return nil
}

func (m *memStore) byPlayer() map[string]commit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]commit, len(m.commits))
	for _, c := range m.commits {
		out[c.Player] = c
	}
	return out
}

// slowStore takes a moment per write and records whether the ctx it
// was given had already been cancelled by then.
type slowStore struct {
	memStore
	errs []error
}

func (m *slowStore) CommitGameResult(ctx context.Context, playerID, game string, won bool, words int) error {
	time.Sleep(5 * time.Millisecond)
	m.record(ctx.Err())
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return m.memStore.CommitGameResult(ctx, playerID, game, won, words)
}

func (m *slowStore) SaveSummary(ctx context.Context, sum Summary) error {
	time.Sleep(5 * time.Millisecond)
	m.record(ctx.Err())
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return m.memStore.SaveSummary(ctx, sum)
}

func (m *slowStore) record(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

// stopOnCreate runs stop right after a session is published, the way a
// concurrent /stop landing mid-Start would.
type stopOnCreate struct {
	Registry
	stop func(channelID string)
}

func (r *stopOnCreate) Create(channelID string, s *Session) error {
	if err := r.Registry.Create(channelID, s); err != nil {
		return err
	}
	r.stop(channelID)
	return nil
}

// readings resolves from a fixed table.
type readings map[string]string

func (r readings) Resolve(_ context.Context, word string) (string, bool) {
	reading, ok := r[word]
	return reading, ok
}

type wordSet map[string]bool

func (w wordSet) Exists(_ context.Context, word string) bool { return w[word] }

type harness struct {
	clock    *testClock
	emitter  *recorder
	store    *memStore
	registry Registry
	deps     Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:    newTestClock(),
		emitter:  &recorder{},
		store:    &memStore{},
		registry: NewMemoryRegistry(),
	}
	h.deps = Deps{
		Registry: h.registry,
		Readings: readings{"落語": "らくご", "東京": "とうきょう", "極意": "ごくい"},
		Emitter:  h.emitter,
		Results:  h.store,
		Clock:    h.clock,
	}
	return h
}

func (h *harness) shiritori(t *testing.T, channel, seed string) (*Shiritori, *Session) {
	t.Helper()
	e := NewShiritori(h.deps, ShiritoriConfig{})
	s, err := e.Start(context.Background(), channel, "starter", seed)
	if err != nil {
		t.Fatalf("Start(%q): %v", seed, err)
	}
	return e, s
}

func say(channel, author, text string) Message {
	return Message{ChannelID: channel, AuthorID: author, MessageID: author + ":" + text, Text: text}
}
