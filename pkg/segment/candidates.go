package segment

import (
	"unicode/utf8"

	"github.com/japaniel/livepeek/pkg/script"
)

// DefaultStopWords are grammatical fragments never worth a gloss.
var DefaultStopWords = []string{"です", "ます", "から", "まで", "ので"}

const (
	minKanjiRun = 2
	maxKanjiRun = 5
	minKanaRun  = 2

	minCandidateLen = 2
	maxCandidateLen = 8

	// DefaultMaxCandidates bounds translator calls per text.
	DefaultMaxCandidates = 20
)

// CandidateOptions tunes Candidates. The zero value uses the defaults.
type CandidateOptions struct {
	Max       int      // 0 means DefaultMaxCandidates
	StopWords []string // nil means DefaultStopWords
}

// Candidates returns the distinct kanji compounds (2–5 runes) and katakana
// words (2+ runes) of text, kanji first, each in order of first appearance.
// Kanji runs longer than five runes are cut into consecutive five-rune
// chunks, and a trailing chunk shorter than two runes is dropped.
func Candidates(text string, opts CandidateOptions) []string {
	limit := opts.Max
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	stop := opts.StopWords
	if stop == nil {
		stop = DefaultStopWords
	}
	stopSet := make(map[string]bool, len(stop))
	for _, w := range stop {
		stopSet[w] = true
	}

	var all []string
	for _, run := range runs(text, script.IsKanji) {
		all = append(all, chunk(run, maxKanjiRun, minKanjiRun)...)
	}
	for _, run := range runs(text, script.IsKatakana) {
		if utf8.RuneCountInString(run) >= minKanaRun {
			all = append(all, run)
		}
	}

	seen := make(map[string]bool, len(all))
	var out []string
	for _, c := range all {
		if seen[c] || stopSet[c] {
			continue
		}
		seen[c] = true
		n := utf8.RuneCountInString(c)
		if n < minCandidateLen || n > maxCandidateLen {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

// runs returns the maximal substrings of text whose runes all satisfy in.
func runs(text string, in func(rune) bool) []string {
	var out []string
	start := -1
	for i, r := range text {
		switch {
		case in(r) && start < 0:
			start = i
		case !in(r) && start >= 0:
			out = append(out, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, text[start:])
	}
	return out
}

func chunk(run string, size, minLen int) []string {
	rs := []rune(run)
	var out []string
	for i := 0; i < len(rs); i += size {
		end := i + size
		if end > len(rs) {
			end = len(rs)
		}
		if end-i >= minLen {
			out = append(out, string(rs[i:end]))
		}
	}
	return out
}
