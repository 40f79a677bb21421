package reading

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"nihongo.exe.dev/dict"
	"nihongo.exe.dev/kana"
)

// Resolver finds the kana reading of words written with kanji.
type Resolver struct {
	lookup dict.Lookuper
	cache  Cache
	group  singleflight.Group
}

// NewResolver creates a Resolver. A nil cache gets a fresh memory cache.
func NewResolver(lookup dict.Lookuper, cache Cache) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Resolver{lookup: lookup, cache: cache}
}

// Resolve returns the reading of word and whether one was found.
// Kana-only words are their own reading and never hit the dictionary.
// Lookup errors count as "not found" and are cached like any other miss.
// A cancelled ctx returns a miss without waiting for the lookup.
func (r *Resolver) Resolve(ctx context.Context, word string) (string, bool) {
	if !kana.ContainsKanji(word) {
		return word, true
	}
	if reading, found, ok := r.cache.Get(word); ok {
		return reading, found
	}

	// The shared lookup is detached from the caller's cancellation.
	ch := r.group.DoChan(word, func() (any, error) {
		if reading, found, ok := r.cache.Get(word); ok {
			return result{reading, found}, nil
		}
		reading, found := r.fetch(context.WithoutCancel(ctx), word)
		r.cache.Set(word, reading, found)
		return result{reading, found}, nil
	})
	select {
	case res := <-ch:
		v := res.Val.(result)
		return v.reading, v.found
	case <-ctx.Done():
		return "", false
	}
}

type result struct {
	reading string
	found   bool
}

func (r *Resolver) fetch(ctx context.Context, word string) (string, bool) {
	entries, err := r.lookup.Lookup(ctx, word)
	if err != nil {
		log.Warn().Err(err).Str("word", word).Msg("reading lookup failed")
		return "", false
	}
	if reading, ok := pickReading(word, entries); ok {
		log.Debug().Str("word", word).Str("reading", reading).Msg("reading resolved")
		return reading, true
	}
	log.Debug().Str("word", word).Msg("no reading found")
	return "", false
}

// pickReading prefers an entry written exactly as word. Failing that it
// takes the first entry whose reading contains word; for short or common
// substrings this can pick an unrelated reading.
func pickReading(word string, entries []dict.Entry) (string, bool) {
	for _, e := range entries {
		if e.Word == word && e.Reading != "" {
			return e.Reading, true
		}
	}
	for _, e := range entries {
		if e.Reading != "" && strings.Contains(e.Reading, word) {
			return e.Reading, true
		}
	}
	return "", false
}
