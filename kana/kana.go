// Package kana classifies Japanese text and splits it into the mora units
// used as the join point between shiritori words.
package kana

import (
	"strings"
	"unicode/utf8"
)

// smallLast are the small kana that glue onto the preceding kana when
// they close a word. っ is included: "らっきょ" and "きっ" both end in a
// two-rune mora.
var smallLast = map[rune]bool{
	'ゃ': true, 'ゅ': true, 'ょ': true,
	'ぁ': true, 'ぃ': true, 'ぅ': true, 'ぇ': true, 'ぉ': true,
	'っ': true,
}

// smallFirst is smallLast without っ, which never forms a digraph with
// the kana before it at the start of a word.
var smallFirst = map[rune]bool{
	'ゃ': true, 'ゅ': true, 'ょ': true,
	'ぁ': true, 'ぃ': true, 'ぅ': true, 'ぇ': true, 'ぉ': true,
}

// katakanaToHiragana converts a single katakana rune to hiragana.
// If the rune is not katakana, it is returned unchanged.
func katakanaToHiragana(r rune) rune {
	// ァ (0x30A1) through ヶ (0x30F6) sit exactly 0x60 above hiragana.
	if r >= 0x30A1 && r <= 0x30F6 {
		return r - 0x60
	}
	return r
}

// isHiragana checks if a rune is hiragana (including ん).
func isHiragana(r rune) bool {
	return r >= 0x3040 && r <= 0x309F
}

// isKatakana checks if a rune is katakana, full or half width.
func isKatakana(r rune) bool {
	return (r >= 0x30A0 && r <= 0x30FF) || (r >= 0xFF66 && r <= 0xFF9F)
}

// isKanji checks if a rune is a CJK ideograph or the 々 repeat mark.
func isKanji(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF:
		return true
	case r >= 0x3400 && r <= 0x4DBF:
		return true
	case r >= 0xF900 && r <= 0xFAFF:
		return true
	}
	return r == '々'
}

// IsJapaneseText reports whether s contains any hiragana, katakana or kanji.
func IsJapaneseText(s string) bool {
	for _, r := range s {
		if isHiragana(r) || isKatakana(r) || isKanji(r) {
			return true
		}
	}
	return false
}

// ContainsKanji reports whether s contains any CJK ideograph.
func ContainsKanji(s string) bool {
	for _, r := range s {
		if isKanji(r) {
			return true
		}
	}
	return false
}

// effective returns the kana form mora rules operate on: the reading when
// one is supplied, otherwise the word itself.
func effective(word, reading string) []rune {
	if reading != "" {
		return []rune(ToKana(reading))
	}
	return []rune(ToKana(word))
}

// LastMora returns the trailing mora of word, using reading instead when it
// is non-empty. A trailing small kana makes the mora two runes long.
func LastMora(word, reading string) string {
	runes := effective(word, reading)
	n := len(runes)
	if n == 0 {
		return ""
	}
	if n >= 2 && smallLast[runes[n-1]] {
		return string(runes[n-2:])
	}
	return string(runes[n-1:])
}

// FirstMora returns the leading mora of word, using reading instead when it
// is non-empty. A small kana in second position makes the mora two runes long.
func FirstMora(word, reading string) string {
	runes := effective(word, reading)
	if len(runes) == 0 {
		return ""
	}
	if len(runes) >= 2 && smallFirst[runes[1]] {
		return string(runes[:2])
	}
	return string(runes[:1])
}

// EndsWithN reports whether the effective kana form ends in ん.
func EndsWithN(word, reading string) bool {
	return strings.HasSuffix(string(effective(word, reading)), "ん")
}

// CharCount returns the number of runes in a string.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}
