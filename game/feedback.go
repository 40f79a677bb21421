package game

import (
	"context"
	"fmt"
)

// FeedbackKind tells the transport which outcome to render.
type FeedbackKind int

const (
	FeedbackStarted FeedbackKind = iota
	FeedbackWrongMora
	FeedbackAlreadyUsed
	FeedbackReadingNotFound
	FeedbackAdvisoryUnverified
	FeedbackAccepted
	FeedbackLoss
	FeedbackEnded
	FeedbackMissingChar
	FeedbackRoundExpired
	FeedbackRateLimited
)

var feedbackNames = map[FeedbackKind]string{
	FeedbackStarted:            "started",
	FeedbackWrongMora:          "wrong_mora",
	FeedbackAlreadyUsed:        "already_used",
	FeedbackReadingNotFound:    "reading_not_found",
	FeedbackAdvisoryUnverified: "advisory_unverified",
	FeedbackAccepted:           "accepted",
	FeedbackLoss:               "loss",
	FeedbackEnded:              "ended",
	FeedbackMissingChar:        "missing_char",
	FeedbackRoundExpired:       "round_expired",
	FeedbackRateLimited:        "rate_limited",
}

func (k FeedbackKind) String() string {
	if n, ok := feedbackNames[k]; ok {
		return n
	}
	return "unknown"
}

// MarshalText renders the kind by name in JSON payloads.
func (k FeedbackKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind written by MarshalText.
func (k *FeedbackKind) UnmarshalText(b []byte) error {
	for kind, name := range feedbackNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown feedback kind %q", b)
}

// Feedback is a structured game outcome. Which fields are meaningful
// depends on Kind:
//
//	Started            Word, Reading, Mora (next required), PlayerID (starter)
//	WrongMora          Word, Reading, Mora (required), Got (candidate's first mora)
//	AlreadyUsed        Word, Reading
//	ReadingNotFound    Word
//	AdvisoryUnverified Word
//	Accepted           Word, Reading, Mora (next), WordCount, Score, Round
//	Loss               PlayerID (loser), Word, Reading, WordCount
//	Ended              Reason, Scoreboard, WordCount, PlayerID (loser, if any)
//	MissingChar        Word, Reading, Mora (target)
//	RoundExpired       Got (previous target), Mora (new target), Round
//	RateLimited        PlayerID, Word (the dropped turn)
type Feedback struct {
	Kind       FeedbackKind `json:"kind"`
	Game       Kind         `json:"game"`
	ChannelID  string       `json:"channelId"`
	ReplyTo    string       `json:"replyTo,omitempty"`
	PlayerID   string       `json:"playerId,omitempty"`
	Word       string       `json:"word,omitempty"`
	Reading    string       `json:"reading,omitempty"`
	Mora       string       `json:"mora,omitempty"`
	Got        string       `json:"got,omitempty"`
	WordCount  int          `json:"wordCount,omitempty"`
	Score      int          `json:"score,omitempty"`
	Round      int          `json:"round,omitempty"`
	Reason     Reason       `json:"reason,omitempty"`
	Scoreboard []Score      `json:"scoreboard,omitempty"`
}

// Message is an inbound human-authored channel message.
type Message struct {
	ChannelID string
	AuthorID  string
	MessageID string
	Text      string
}

// Emitter delivers feedback to players.
type Emitter interface {
	Emit(ctx context.Context, fb Feedback)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, fb Feedback)

func (f EmitterFunc) Emit(ctx context.Context, fb Feedback) { f(ctx, fb) }

// ResultStore persists finished games.
type ResultStore interface {
	CommitGameResult(ctx context.Context, playerID, game string, won bool, words int) error
	SaveSummary(ctx context.Context, sum Summary) error
}

// ReadingResolver finds the kana reading of a kanji word.
type ReadingResolver interface {
	Resolve(ctx context.Context, word string) (string, bool)
}

// WordChecker reports whether a word is in the dictionary.
type WordChecker interface {
	Exists(ctx context.Context, word string) bool
}

type discardEmitter struct{}

func (discardEmitter) Emit(context.Context, Feedback) {}

type discardStore struct{}

func (discardStore) CommitGameResult(context.Context, string, string, bool, int) error { return nil }
func (discardStore) SaveSummary(context.Context, Summary) error { return nil }

type acceptAll struct{}

func (acceptAll) Exists(context.Context, string) bool { return true }
