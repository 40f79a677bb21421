package dict

import (
	"bufio"
	"context"
	_ "embed"
	"strings"

	"nihongo.exe.dev/kana"
)

//go:embed wordlists/common.txt
var commonTxt string

// WordList is an in-memory set of kana words.
type WordList struct {
	words map[string]bool
}

// CommonWords returns the embedded list of everyday words.
func CommonWords() *WordList {
	return NewWordList(commonTxt)
}

// NewWordList reads a newline-delimited string into a set. Lines are
// stored in hiragana; blank lines and lines starting with # are skipped.
func NewWordList(data string) *WordList {
	m := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		m[kana.ToKana(w)] = true
	}
	return &WordList{words: m}
}

// Len returns the number of words in the list.
func (l *WordList) Len() int { return len(l.words) }

// Exists checks membership of the hiragana form of word.
func (l *WordList) Exists(_ context.Context, word string) (bool, error) {
	return l.words[kana.ToKana(word)], nil
}

// Chain asks each Exister in turn and reports true on the first that
// confirms the word. The last error is returned only when nobody confirmed.
type Chain []Exister

func (c Chain) Exists(ctx context.Context, word string) (bool, error) {
	var lastErr error
	for _, e := range c {
		ok, err := e.Exists(ctx, word)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, lastErr
}
