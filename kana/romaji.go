package kana

import (
	"strings"

	"golang.org/x/text/width"
)

// romajiTable maps Hepburn and kunrei spellings to hiragana.
var romajiTable = map[string]string{
	"a": "あ", "i": "い", "u": "う", "e": "え", "o": "お",

	"ka": "か", "ki": "き", "ku": "く", "ke": "け", "ko": "こ",
	"kya": "きゃ", "kyu": "きゅ", "kyo": "きょ",
	"ga": "が", "gi": "ぎ", "gu": "ぐ", "ge": "げ", "go": "ご",
	"gya": "ぎゃ", "gyu": "ぎゅ", "gyo": "ぎょ",

	"sa": "さ", "si": "し", "shi": "し", "su": "す", "se": "せ", "so": "そ",
	"sha": "しゃ", "shu": "しゅ", "she": "しぇ", "sho": "しょ",
	"sya": "しゃ", "syu": "しゅ", "syo": "しょ",
	"za": "ざ", "zi": "じ", "ji": "じ", "zu": "ず", "ze": "ぜ", "zo": "ぞ",
	"ja": "じゃ", "ju": "じゅ", "je": "じぇ", "jo": "じょ",
	"jya": "じゃ", "jyu": "じゅ", "jyo": "じょ",
	"zya": "じゃ", "zyu": "じゅ", "zyo": "じょ",

	"ta": "た", "ti": "ち", "chi": "ち", "tu": "つ", "tsu": "つ", "te": "て", "to": "と",
	"cha": "ちゃ", "chu": "ちゅ", "che": "ちぇ", "cho": "ちょ",
	"tya": "ちゃ", "tyu": "ちゅ", "tyo": "ちょ",
	"da": "だ", "di": "ぢ", "du": "づ", "de": "で", "do": "ど",
	"dya": "ぢゃ", "dyu": "ぢゅ", "dyo": "ぢょ",

	"na": "な", "ni": "に", "nu": "ぬ", "ne": "ね", "no": "の",
	"nya": "にゃ", "nyu": "にゅ", "nyo": "にょ",

	"ha": "は", "hi": "ひ", "hu": "ふ", "fu": "ふ", "he": "へ", "ho": "ほ",
	"hya": "ひゃ", "hyu": "ひゅ", "hyo": "ひょ",
	"fa": "ふぁ", "fi": "ふぃ", "fe": "ふぇ", "fo": "ふぉ",
	"ba": "ば", "bi": "び", "bu": "ぶ", "be": "べ", "bo": "ぼ",
	"bya": "びゃ", "byu": "びゅ", "byo": "びょ",
	"pa": "ぱ", "pi": "ぴ", "pu": "ぷ", "pe": "ぺ", "po": "ぽ",
	"pya": "ぴゃ", "pyu": "ぴゅ", "pyo": "ぴょ",

	"ma": "ま", "mi": "み", "mu": "む", "me": "め", "mo": "も",
	"mya": "みゃ", "myu": "みゅ", "myo": "みょ",
	"ya": "や", "yu": "ゆ", "yo": "よ",
	"ra": "ら", "ri": "り", "ru": "る", "re": "れ", "ro": "ろ",
	"rya": "りゃ", "ryu": "りゅ", "ryo": "りょ",
	"wa": "わ", "wi": "うぃ", "we": "うぇ", "wo": "を",
	"vu": "ゔ",

	"xa": "ぁ", "xi": "ぃ", "xu": "ぅ", "xe": "ぇ", "xo": "ぉ",
	"xya": "ゃ", "xyu": "ゅ", "xyo": "ょ", "xtu": "っ", "xtsu": "っ",
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

func isLatin(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// ToKana converts romaji and katakana to hiragana. Hiragana, kanji and any
// other text pass through. Full-width Latin and half-width katakana are
// folded to their canonical widths first.
func ToKana(s string) string {
	s = width.Fold.String(s)
	runes := []rune(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	prevLatin := false
	for i := 0; i < len(runes); {
		r := runes[i]
		if !isLatin(r) {
			if r == '-' && prevLatin {
				b.WriteRune('ー')
				i++
				continue
			}
			b.WriteRune(katakanaToHiragana(r))
			prevLatin = false
			i++
			continue
		}
		prevLatin = true

		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		if r == 'n' {
			switch {
			case next == '\'':
				b.WriteRune('ん')
				i += 2
				continue
			case next == 'n':
				// "nn" before a vowel is ん followed by a na-row syllable.
				if i+2 < len(runes) && (isVowel(runes[i+2]) || runes[i+2] == 'y') {
					b.WriteRune('ん')
					i++
				} else {
					b.WriteRune('ん')
					i += 2
				}
				continue
			case !isVowel(next) && next != 'y':
				b.WriteRune('ん')
				i++
				continue
			}
		}

		// Geminate consonant: "kk", "tt", and "tch" become っ.
		if !isVowel(r) && r != 'n' && (next == r || (r == 't' && next == 'c')) {
			b.WriteRune('っ')
			i++
			continue
		}

		matched := false
		for l := 4; l >= 1; l-- {
			if i+l > len(runes) {
				continue
			}
			if kana, ok := romajiTable[string(runes[i:i+l])]; ok {
				b.WriteString(kana)
				i += l
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(r)
			i++
		}
	}
	return b.String()
}
