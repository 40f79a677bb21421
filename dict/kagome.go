package dict

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"nihongo.exe.dev/kana"
)

// Kagome reads words offline with the IPA morphological dictionary.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome loads the IPA dictionary. Loading takes a moment and a few
// tens of megabytes, so build one and share it.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load kagome tokenizer: %w", err)
	}
	return &Kagome{t: t}, nil
}

// Lookup returns a single entry whose reading is the hiragana reading of
// every token in word. Unknown tokens make the lookup fail.
func (k *Kagome) Lookup(ctx context.Context, word string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := k.t.Tokenize(word)
	if len(tokens) == 0 {
		return nil, nil
	}
	var b strings.Builder
	for _, tok := range tokens {
		r, ok := tok.Reading()
		if !ok || r == "" || r == "*" {
			return nil, fmt.Errorf("kagome: no reading for %q", tok.Surface)
		}
		b.WriteString(kana.ToKana(r))
	}
	return []Entry{{Word: word, Reading: b.String()}}, nil
}

// Exists reports whether every token of word is a known dictionary entry.
func (k *Kagome) Exists(ctx context.Context, word string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tokens := k.t.Tokenize(word)
	if len(tokens) == 0 {
		return false, nil
	}
	for _, tok := range tokens {
		if tok.Class == tokenizer.UNKNOWN {
			return false, nil
		}
	}
	return true, nil
}
