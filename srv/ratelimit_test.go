package srv

import (
	"testing"
	"time"
)

// fakeNow is a settable clock for limiter tests.
type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func newFakeNow() *fakeNow {
	return &fakeNow{t: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func TestTokenBucket_BasicAllow(t *testing.T) {
	clk := newFakeNow()
	tb := newTokenBucket(10, 3, clk.now()) // 10/sec, burst 3
	for i := 0; i < 3; i++ {
		if !tb.allow(clk.now()) {
			t.Fatalf("expected allow on request %d", i)
		}
	}
	if tb.allow(clk.now()) {
		t.Fatal("expected deny after burst exhausted")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	clk := newFakeNow()
	tb := newTokenBucket(10, 3, clk.now())
	for i := 0; i < 3; i++ {
		tb.allow(clk.now())
	}
	// 150ms at 10/sec is one and a half tokens
	clk.advance(150 * time.Millisecond)
	if !tb.allow(clk.now()) {
		t.Fatal("expected allow after refill")
	}
	if tb.allow(clk.now()) {
		t.Fatal("expected deny once the refilled token is spent")
	}
}

func TestTokenBucket_CapsAtBurst(t *testing.T) {
	clk := newFakeNow()
	tb := newTokenBucket(10, 2, clk.now())
	clk.advance(time.Hour)
	allowed := 0
	for i := 0; i < 5; i++ {
		if tb.allow(clk.now()) {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed %d after long idle, want burst 2", allowed)
	}
}

func TestConnectionRateLimiter_AllowNormal(t *testing.T) {
	rl := NewConnectionRateLimiter()
	for i := 0; i < 5; i++ {
		allowed, disconnect := rl.Allow("state")
		if !allowed {
			t.Fatalf("expected allow on request %d", i)
		}
		if disconnect {
			t.Fatal("unexpected disconnect")
		}
	}
}

func TestConnectionRateLimiter_PerTypeLimit(t *testing.T) {
	rl := newConnectionRateLimiter(newFakeNow().now)
	// say: burst=5, so 6th should be denied
	for i := 0; i < 5; i++ {
		allowed, _ := rl.Allow("say")
		if !allowed {
			t.Fatalf("expected allow on say %d", i)
		}
	}
	allowed, _ := rl.Allow("say")
	if allowed {
		t.Fatal("expected deny on say after burst")
	}
}

func TestConnectionRateLimiter_GlobalLimit(t *testing.T) {
	clk := newFakeNow()
	rl := newConnectionRateLimiter(clk.now)
	// Global burst is 20; spread across types so no per-type bucket runs out first.
	denied := false
	types := []string{"say", "state", "ping", "start", "stop"}
	for i := 0; i < 30; i++ {
		allowed, _ := rl.Allow(types[i%len(types)])
		if !allowed && i >= 20 {
			denied = true
			break
		}
	}
	if !denied {
		t.Fatal("expected global rate limit to kick in")
	}
}

func TestConnectionRateLimiter_DisconnectOnExcessiveViolations(t *testing.T) {
	rl := newConnectionRateLimiter(newFakeNow().now)
	for i := 0; i < 5; i++ {
		rl.Allow("say")
	}
	disconnected := false
	for i := 0; i < 100; i++ {
		_, shouldDisconnect := rl.Allow("say")
		if shouldDisconnect {
			disconnected = true
			break
		}
	}
	if !disconnected {
		t.Fatal("expected disconnect after excessive violations")
	}
}

func TestConnectionRateLimiter_UnknownType(t *testing.T) {
	rl := newConnectionRateLimiter(newFakeNow().now)
	// Unknown types get strict default (burst=2)
	allowed1, _ := rl.Allow("unknown_type")
	allowed2, _ := rl.Allow("unknown_type")
	allowed3, _ := rl.Allow("unknown_type")
	if !allowed1 || !allowed2 {
		t.Fatal("expected first 2 unknown type messages to be allowed")
	}
	if allowed3 {
		t.Fatal("expected 3rd unknown type message to be denied")
	}
}

func TestTurnLimiter_PerAuthor(t *testing.T) {
	clk := newFakeNow()
	l := NewTurnLimiter(1, 2)
	l.now = clk.now

	if !l.Allow("alice") || !l.Allow("alice") {
		t.Fatal("expected alice's burst to be allowed")
	}
	if l.Allow("alice") {
		t.Fatal("expected alice to be limited")
	}
	if !l.Allow("bob") {
		t.Fatal("bob has his own bucket")
	}
	clk.advance(time.Second)
	if !l.Allow("alice") {
		t.Fatal("expected alice to recover after a second")
	}
}

func TestTurnLimiter_Disabled(t *testing.T) {
	l := NewTurnLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("alice") {
			t.Fatal("zero rate must not limit")
		}
	}
	var nilLimiter *TurnLimiter
	if !nilLimiter.Allow("alice") {
		t.Fatal("nil limiter must not limit")
	}
}
