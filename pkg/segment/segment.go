// Package segment splits mixed Japanese/English text into tokens.
//
// Two paths exist. The click path (Segmenter.All / Segment) cuts the whole
// text into contiguous tokens that concatenate back to the input. The
// candidate path (Candidates) pulls out distinct kanji and katakana runs that
// are worth sending to a translator.
package segment

import (
	"iter"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/japaniel/livepeek/pkg/script"
)

// Token is a contiguous piece of the input text.
type Token struct {
	Text   string
	Script script.Script
	Start  int // byte offset into the input
	End    int // byte offset one past the token
	// IsWord is true when the token came from a Latin run with letters or a
	// known phrase, false for single-rune fallbacks and punctuation runs.
	IsWord bool
}

// Len returns the token length in runes.
func (t Token) Len() int { return utf8.RuneCountInString(t.Text) }

// Segmenter scans text using a fixed priority phrase list.
type Segmenter struct {
	phrases []string
}

// NewSegmenter returns a segmenter whose phrase list is sorted by descending
// rune length so the longest known phrase always wins. Empty and duplicate
// phrases are dropped.
func NewSegmenter(phrases ...string) *Segmenter {
	seen := make(map[string]bool, len(phrases))
	var list []string
	for _, p := range phrases {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(list[i]), utf8.RuneCountInString(list[j])
		if li != lj {
			return li > lj
		}
		return list[i] < list[j]
	})
	return &Segmenter{phrases: list}
}

var defaultSegmenter = NewSegmenter(DefaultPhrases...)

// Default returns the segmenter built from DefaultPhrases.
func Default() *Segmenter { return defaultSegmenter }

// Phrases returns a copy of the priority list in match order.
func (s *Segmenter) Phrases() []string {
	return append([]string(nil), s.phrases...)
}

// All yields the tokens of text from left to right. The sequence is a pure
// function of text and can be ranged over any number of times.
func (s *Segmenter) All(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		pos := 0
		for pos < len(text) {
			tok := s.next(text, pos)
			if !yield(tok) {
				return
			}
			pos = tok.End
		}
	}
}

// Segment collects All into a slice.
func (s *Segmenter) Segment(text string) []Token {
	var out []Token
	for tok := range s.All(text) {
		out = append(out, tok)
	}
	return out
}

func (s *Segmenter) next(text string, pos int) Token {
	rest := text[pos:]

	if n := latinRunLen(rest); n > 0 {
		run := rest[:n]
		tok := Token{Text: run, Start: pos, End: pos + n, Script: script.Latin, IsWord: true}
		if !hasLetterOrDigit(run) {
			tok.Script = script.Punct
			tok.IsWord = false
		}
		return tok
	}

	for _, p := range s.phrases {
		if strings.HasPrefix(rest, p) {
			return Token{Text: p, Start: pos, End: pos + len(p), Script: script.Of(p), IsWord: true}
		}
	}

	r, size := utf8.DecodeRuneInString(rest)
	return Token{Text: rest[:size], Start: pos, End: pos + size, Script: script.Classify(r)}
}

// latinRunLen returns the byte length of the leading run of
// [A-Za-z0-9 \-._,'"()\[\]/:%+&!?] in s.
func latinRunLen(s string) int {
	n := 0
	for n < len(s) && isLatinRunByte(s[n]) {
		n++
	}
	return n
}

func isLatinRunByte(b byte) bool {
	if script.IsLatin(rune(b)) {
		return true
	}
	switch b {
	case ' ', '-', '.', '_', ',', '\'', '"', '(', ')', '[', ']', '/', ':', '%', '+', '&', '!', '?':
		return true
	}
	return false
}

func hasLetterOrDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if script.IsLatin(rune(s[i])) {
			return true
		}
	}
	return false
}
