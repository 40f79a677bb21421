// Package dict talks to the dictionaries used to verify words and to find
// the kana reading of kanji words.
package dict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultJishoURL is the public Jisho word search endpoint.
const DefaultJishoURL = "https://jisho.org/api/v1/search/words"

// Entry is one written form of a word together with its reading.
// Word is empty for kana-only entries.
type Entry struct {
	Word    string `json:"word,omitempty"`
	Reading string `json:"reading"`
}

// Sense is one meaning of a Jisho result.
type Sense struct {
	EnglishDefinitions []string `json:"english_definitions"`
	PartsOfSpeech      []string `json:"parts_of_speech"`
	Tags               []string `json:"tags"`
	Info               []string `json:"info"`
}

// Word is a single Jisho search result.
type Word struct {
	Slug     string   `json:"slug"`
	IsCommon bool     `json:"is_common"`
	Tags     []string `json:"tags"`
	JLPT     []string `json:"jlpt"`
	Japanese []Entry  `json:"japanese"`
	Senses   []Sense  `json:"senses"`
}

type searchResponse struct {
	Meta struct {
		Status int `json:"status"`
	} `json:"meta"`
	Data []Word `json:"data"`
}

// Lookuper returns the written forms and readings known for a word.
type Lookuper interface {
	Lookup(ctx context.Context, word string) ([]Entry, error)
}

// Exister reports whether a word is attested in a dictionary.
type Exister interface {
	Exists(ctx context.Context, word string) (bool, error)
}

// Jisho is a client for the Jisho search API.
type Jisho struct {
	BaseURL string
	HTTP    *http.Client
}

// NewJisho creates a Jisho client. An empty baseURL selects DefaultJishoURL.
func NewJisho(baseURL string, timeout time.Duration) *Jisho {
	if baseURL == "" {
		baseURL = DefaultJishoURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Jisho{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Search runs a keyword search and returns the raw results.
func (j *Jisho) Search(ctx context.Context, query string) ([]Word, error) {
	u := j.BaseURL + "?keyword=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("jisho request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := j.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jisho search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("jisho api error: %d", resp.StatusCode)
	}
	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode jisho response: %w", err)
	}
	return body.Data, nil
}

// Lookup flattens every written form of every search result.
func (j *Jisho) Lookup(ctx context.Context, word string) ([]Entry, error) {
	results, err := j.Search(ctx, word)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, r := range results {
		entries = append(entries, r.Japanese...)
	}
	return entries, nil
}

// Exists reports whether any result has word as its written form or reading.
func (j *Jisho) Exists(ctx context.Context, word string) (bool, error) {
	results, err := j.Search(ctx, word)
	if err != nil {
		return false, err
	}
	for _, r := range results {
		for _, jp := range r.Japanese {
			if jp.Word == word || jp.Reading == word {
				return true, nil
			}
		}
	}
	return false, nil
}

// FormatJLPT renders JLPT tags like "jlpt-n5" as "N5".
func FormatJLPT(jlpt []string) string {
	if len(jlpt) == 0 {
		return "N/A"
	}
	levels := make([]string, 0, len(jlpt))
	for _, l := range jlpt {
		levels = append(levels, strings.ToUpper(strings.TrimPrefix(l, "jlpt-")))
	}
	sort.Strings(levels)
	return strings.Join(levels, ", ")
}

// FormatReadings renders every written form as "word (reading)".
func FormatReadings(w Word) string {
	parts := make([]string, 0, len(w.Japanese))
	for _, jp := range w.Japanese {
		switch {
		case jp.Word != "" && jp.Reading != "":
			parts = append(parts, fmt.Sprintf("%s (%s)", jp.Word, jp.Reading))
		case jp.Word != "":
			parts = append(parts, jp.Word)
		default:
			parts = append(parts, jp.Reading)
		}
	}
	return strings.Join(parts, ", ")
}

// FormatMeanings renders up to max senses as a numbered list.
func FormatMeanings(w Word, max int) string {
	var lines []string
	for i, s := range w.Senses {
		if i >= max {
			break
		}
		pos := ""
		if len(s.PartsOfSpeech) > 0 {
			pos = "[" + s.PartsOfSpeech[0] + "] "
		}
		lines = append(lines, fmt.Sprintf("%d. %s%s", i+1, pos, strings.Join(s.EnglishDefinitions, ", ")))
	}
	return strings.Join(lines, "\n")
}
