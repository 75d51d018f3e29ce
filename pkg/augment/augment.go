// Package augment inserts inline translations ("glosses") next to selected
// words of a text, so a learner reads the original with a few words
// explained in place.
package augment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/livepeek/pkg/script"
	"github.com/japaniel/livepeek/pkg/segment"
	"github.com/japaniel/livepeek/pkg/translate"
)

// Mode selects how many candidates get a gloss and how it is written.
type Mode int

const (
	// Generous glosses at least MinSubstitutions words, written "東京 Tokyo".
	// Used for post titles and bodies.
	Generous Mode = iota
	// Sparse draws for each word independently, written "東京 (Tokyo)".
	// Used for comments.
	Sparse
)

func (m Mode) String() string {
	switch m {
	case Generous:
		return "generous"
	case Sparse:
		return "sparse"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "generous" or "sparse".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generous", "":
		return Generous, nil
	case "sparse":
		return Sparse, nil
	}
	return 0, fmt.Errorf("unknown augmentation mode %q", s)
}

const (
	DefaultProbability      = 0.8
	DefaultMinSubstitutions = 5
	DefaultConcurrency      = 4

	// glosses this long are sentences, not word translations
	maxGlossLen = 80
)

// Translator is the part of translate.Chain the composer needs.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Composer builds augmented text. Its fields may be changed before first use.
type Composer struct {
	Translator Translator
	Mode       Mode
	// Probability is the share of valid candidates to gloss, in [0, 1].
	Probability float64
	// MinSubstitutions is the generous-mode floor on glosses per text.
	MinSubstitutions int
	// MaxCandidates caps translator calls per text.
	MaxCandidates int
	// Concurrency bounds in-flight translator calls per text.
	Concurrency int
	Source      string
	Target      string
	Logger      zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewComposer returns a ja→en composer with default tuning. A nil rng gets
// a time-seeded source.
func NewComposer(tr Translator, mode Mode, rng *rand.Rand) *Composer {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Composer{
		Translator:       tr,
		Mode:             mode,
		Probability:      DefaultProbability,
		MinSubstitutions: DefaultMinSubstitutions,
		MaxCandidates:    segment.DefaultMaxCandidates,
		Concurrency:      DefaultConcurrency,
		Source:           "ja",
		Target:           "en",
		Logger:           zerolog.Nop(),
		rng:              rng,
	}
}

// Pair is a candidate with its accepted translation.
type Pair struct {
	Token       string
	Translation string
}

// Augment glosses the candidate words found in text.
func (c *Composer) Augment(ctx context.Context, text string) string {
	cands := segment.Candidates(text, segment.CandidateOptions{Max: c.MaxCandidates})
	return c.Compose(ctx, text, cands)
}

// Process is the feed entry point. Japanese text is augmented directly.
// Text with Latin letters and no Japanese is first translated into the
// source language and the translation is augmented. Anything else is
// returned unchanged.
func (c *Composer) Process(ctx context.Context, text string) string {
	switch {
	case strings.TrimSpace(text) == "":
		return text
	case script.HasJapanese(text):
		return c.Augment(ctx, text)
	case script.HasLatin(text) && c.Translator != nil:
		tr, err := c.Translator.Translate(ctx, text, c.Target, c.Source)
		if err != nil || tr == text || !script.HasJapanese(tr) {
			return text
		}
		return c.Augment(ctx, tr)
	}
	return text
}

// Compose glosses some of candidates inside text. Candidates whose
// translation fails or is unusable are skipped. The original characters of
// text are never removed or reordered.
func (c *Composer) Compose(ctx context.Context, text string, candidates []string) string {
	if text == "" || len(candidates) == 0 || c.Translator == nil {
		return text
	}
	pairs := c.translateAll(ctx, candidates)
	if len(pairs) == 0 {
		return text
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return utf8.RuneCountInString(pairs[i].Token) > utf8.RuneCountInString(pairs[j].Token)
	})
	selected, limit := c.selectPairs(pairs)
	return c.apply(text, selected, limit)
}

func (c *Composer) translateAll(ctx context.Context, candidates []string) []Pair {
	results := make([]string, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	limit := c.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, cand := range candidates {
		g.Go(func() error {
			tr, err := c.Translator.Translate(gctx, cand, c.Source, c.Target)
			if err != nil {
				c.Logger.Debug().Str("token", cand).Err(err).Msg("translation failed, skipping")
				return nil
			}
			results[i] = strings.TrimSpace(tr)
			return nil
		})
	}
	_ = g.Wait()

	pairs := make([]Pair, 0, len(candidates))
	for i, cand := range candidates {
		if valid(cand, results[i]) {
			pairs = append(pairs, Pair{Token: cand, Translation: results[i]})
		}
	}
	return pairs
}

func valid(token, tr string) bool {
	return translate.Acceptable(token, tr, false) && utf8.RuneCountInString(tr) < maxGlossLen
}

// selectPairs picks the pairs to gloss, keeping their order, and how many of
// them may actually insert a gloss.
func (c *Composer) selectPairs(pairs []Pair) ([]Pair, int) {
	p := math.Max(0, math.Min(1, c.Probability))
	switch c.Mode {
	case Sparse:
		c.mu.Lock()
		defer c.mu.Unlock()
		var out []Pair
		for _, pr := range pairs {
			if c.rng.Float64() < p {
				out = append(out, pr)
			}
		}
		if len(out) == 0 {
			out = append(out, pairs[c.rng.IntN(len(pairs))])
		}
		return out, len(out)
	default:
		n := max(c.MinSubstitutions, int(math.Ceil(float64(len(pairs))*p)))
		return pairs, n
	}
}

func (c *Composer) gloss(pr Pair) string {
	if c.Mode == Sparse {
		return " (" + pr.Translation + ")"
	}
	return " " + pr.Translation
}

// apply inserts a gloss after each eligible occurrence of each pair's token,
// stopping once limit pairs have been glossed. Pairs with no eligible
// occurrence do not count.
func (c *Composer) apply(text string, pairs []Pair, limit int) string {
	glossed := 0
	for _, pr := range pairs {
		if glossed >= limit {
			break
		}
		var n int
		text, n = insertGloss(text, pr, c.gloss(pr))
		if n > 0 {
			glossed++
		}
	}
	return text
}

// insertGloss writes gloss after every occurrence of pr.Token that stands
// on its own. An occurrence is skipped when it touches a parenthesis, when it
// sits inside a longer run of the same kanji or katakana script, or when it
// already carries a gloss in either mode. It returns the new text and the
// number of glosses written.
func insertGloss(text string, pr Pair, gloss string) (string, int) {
	token := pr.Token
	if token == "" {
		return text, 0
	}
	var b strings.Builder
	pos, n := 0, 0
	for {
		i := strings.Index(text[pos:], token)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(token)
		b.WriteString(text[pos:end])
		if eligible(text, pr, start, end) {
			b.WriteString(gloss)
			n++
		}
		pos = end
	}
	if n == 0 {
		return text, 0
	}
	b.WriteString(text[pos:])
	return b.String(), n
}

func eligible(text string, pr Pair, start, end int) bool {
	rest := text[end:]
	if strings.HasPrefix(rest, " "+pr.Translation) || strings.HasPrefix(rest, " ("+pr.Translation) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(pr.Token)
	last, _ := utf8.DecodeLastRuneInString(pr.Token)

	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if prev == '(' || prev == '（' || continuesRun(prev, first) {
			return false
		}
	}
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(rest)
		switch next {
		case '(', ')', '（', '）':
			return false
		}
		if continuesRun(next, last) {
			return false
		}
	}
	return true
}

// continuesRun reports whether neighbor extends the kanji or katakana run
// that edge belongs to.
func continuesRun(neighbor, edge rune) bool {
	s := script.Classify(edge)
	if s != script.Kanji && s != script.Katakana {
		return false
	}
	return script.Classify(neighbor) == s
}
