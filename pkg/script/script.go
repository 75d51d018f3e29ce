// Package script classifies runes and strings by the writing system they
// belong to. The ranges are the ones the feed and the click handler use to
// decide tokenization and translation direction.
package script

import (
	"strings"
	"unicode"
)

// Script is the writing system of a rune or token.
type Script int

const (
	Other Script = iota
	Hiragana
	Katakana
	Kanji
	Latin
	Punct // whitespace, punctuation and symbols
	Mixed
)

func (s Script) String() string {
	switch s {
	case Hiragana:
		return "hiragana"
	case Katakana:
		return "katakana"
	case Kanji:
		return "kanji"
	case Latin:
		return "latin"
	case Punct:
		return "punct"
	case Mixed:
		return "mixed"
	default:
		return "other"
	}
}

// IsHiragana reports whether r is in U+3040–U+309F.
func IsHiragana(r rune) bool { return r >= 0x3040 && r <= 0x309F }

// IsKatakana reports whether r is in U+30A0–U+30FF (this includes ー and ・).
func IsKatakana(r rune) bool { return r >= 0x30A0 && r <= 0x30FF }

// IsKanji reports whether r is in the CJK unified ideograph block U+4E00–U+9FAF.
func IsKanji(r rune) bool { return r >= 0x4E00 && r <= 0x9FAF }

// IsLatin reports whether r is an ASCII letter or digit.
func IsLatin(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsJapanese reports whether r is kana or kanji.
func IsJapanese(r rune) bool { return IsHiragana(r) || IsKatakana(r) || IsKanji(r) }

// Classify returns the script of a single rune.
func Classify(r rune) Script {
	switch {
	case IsHiragana(r):
		return Hiragana
	case IsKatakana(r):
		return Katakana
	case IsKanji(r):
		return Kanji
	case IsLatin(r):
		return Latin
	case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
		return Punct
	default:
		return Other
	}
}

// Of classifies a whole string. Punctuation and whitespace are ignored unless
// the string has nothing else; more than one letter class yields Mixed.
func Of(s string) Script {
	found := Punct
	seen := false
	for _, r := range s {
		c := Classify(r)
		if c == Punct {
			continue
		}
		if !seen {
			found, seen = c, true
			continue
		}
		if c != found {
			return Mixed
		}
	}
	if !seen && s == "" {
		return Other
	}
	return found
}

// HasJapanese reports whether s contains any kana or kanji.
func HasJapanese(s string) bool {
	return strings.IndexFunc(s, IsJapanese) >= 0
}

// HasLatin reports whether s contains an ASCII letter.
func HasLatin(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}

// IsPunctOnly reports whether s is made only of punctuation, symbols or
// whitespace. The empty string is not.
func IsPunctOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if Classify(r) != Punct {
			return false
		}
	}
	return true
}

// EstimateDifficulty rates a post on a 3..8 scale from the share of Japanese
// characters and the presence of long kanji compounds.
func EstimateDifficulty(title, body string) int {
	text := strings.ToLower(title + " " + body)
	var total, ja, kanjiRun, longestKanji int
	hasHiragana := false
	for _, r := range text {
		total++
		if IsJapanese(r) {
			ja++
		}
		if IsHiragana(r) {
			hasHiragana = true
		}
		if IsKanji(r) {
			kanjiRun++
			if kanjiRun > longestKanji {
				longestKanji = kanjiRun
			}
		} else {
			kanjiRun = 0
		}
	}
	if total == 0 {
		return 3
	}
	ratio := float64(ja) / float64(total)
	complexKanji := longestKanji >= 3

	switch {
	case ratio > 0.7 && complexKanji:
		return 8
	case ratio > 0.5 && complexKanji:
		return 7
	case ratio > 0.3 && hasHiragana:
		return 6
	case ratio > 0.1:
		return 5
	case ratio > 0:
		return 4
	}
	return 3
}
