// Package resolve answers "what does this word mean?" for a word the reader
// tapped. A result is always produced for non-empty input: curated
// dictionary entries first, then a live translation, then a placeholder.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/japaniel/livepeek/pkg/dictionary"
	"github.com/japaniel/livepeek/pkg/script"
	"github.com/japaniel/livepeek/pkg/translate"
)

// Provenance says how much to trust a result.
type Provenance string

const (
	Curated  Provenance = "curated"
	Live     Provenance = "live"
	Fallback Provenance = "fallback"
)

// DefaultLevel is assigned to words nothing else can grade.
const DefaultLevel = 4

// Query is a tapped word with the sentence around it.
type Query struct {
	Token string
	// Japanese is true when the token is written in Japanese script. Leave it
	// false and set Detect to classify the token automatically.
	Japanese bool
	Detect   bool
	Context  string
}

// Result is what the reader sees after tapping a word.
type Result struct {
	Token              string     `json:"token"`
	Headword           string     `json:"headword"`
	Reading            string     `json:"reading,omitempty"`
	Meaning            string     `json:"meaning"`
	Level              int        `json:"level"`
	Example            string     `json:"example"`
	ExampleTranslation string     `json:"exampleTranslation,omitempty"`
	Provenance         Provenance `json:"provenance"`
}

// Lookuper is the part of translate.Chain used for live lookups.
type Lookuper interface {
	Lookup(ctx context.Context, req translate.Request) (translate.Result, error)
}

// ReadingFunc returns the pronunciation of a Japanese word, or "".
type ReadingFunc func(word string) string

// Resolver looks words up. The zero value only produces placeholders.
type Resolver struct {
	// Dictionaries are consulted in order; the first hit wins.
	Dictionaries []dictionary.Dictionary
	// Translator performs live lookups. Nil disables them.
	Translator Lookuper
	// Readings supplies readings for Japanese words that lack one.
	Readings ReadingFunc
	// Native is the reader's language, "en" by default.
	Native string
	Logger zerolog.Logger
}

// New returns a resolver over the built-in curated dictionary.
func New(tr Lookuper, extra ...dictionary.Dictionary) *Resolver {
	dicts := append([]dictionary.Dictionary{dictionary.Builtin()}, extra...)
	return &Resolver{
		Dictionaries: dicts,
		Translator:   tr,
		Native:       "en",
		Logger:       zerolog.Nop(),
	}
}

// Clean trims whitespace and one trailing ASCII sentence mark from a tapped
// token.
func Clean(token string) string {
	t := strings.TrimSpace(token)
	if n := len(t); n > 1 && strings.ContainsRune(".,!?", rune(t[n-1])) {
		t = strings.TrimSpace(t[:n-1])
	}
	return t
}

// Resolve never fails for a non-empty token. An empty token yields the zero
// Result and false.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Result, bool) {
	token := Clean(q.Token)
	if token == "" {
		return Result{}, false
	}
	japanese := q.Japanese
	if q.Detect {
		japanese = script.HasJapanese(token)
	}

	if res, ok := r.curated(token); ok {
		if res.Example == "" && q.Context != "" {
			res.Example = strings.TrimSpace(q.Context)
		}
		return r.withReading(res, japanese), true
	}
	if res, ok := r.live(ctx, token, japanese, q.Context); ok {
		return r.withReading(res, japanese), true
	}
	return r.withReading(placeholder(token, q.Context), japanese), true
}

func (r *Resolver) curated(token string) (Result, bool) {
	for _, d := range r.Dictionaries {
		if d == nil {
			continue
		}
		e, ok := d.Lookup(token)
		if !ok {
			continue
		}
		level := e.Level
		if level <= 0 {
			level = EstimateLevel(e.Headword)
		}
		return Result{
			Token:              token,
			Headword:           e.Headword,
			Reading:            e.Reading,
			Meaning:            e.Meaning,
			Level:              level,
			Example:            e.Example,
			ExampleTranslation: e.ExampleTranslation,
			Provenance:         Curated,
		}, true
	}
	return Result{}, false
}

func (r *Resolver) live(ctx context.Context, token string, japanese bool, context string) (Result, bool) {
	if r.Translator == nil {
		return Result{}, false
	}
	native := r.Native
	if native == "" {
		native = "en"
	}
	req := translate.Request{Text: token, Source: "en", Target: "ja"}
	if japanese {
		req = translate.Request{Text: token, Source: "ja", Target: native}
	}
	tr, err := r.Translator.Lookup(ctx, req)
	if err != nil {
		r.Logger.Warn().Err(err).Str("token", token).Msg("live lookup rejected")
		return Result{}, false
	}
	if !translate.Acceptable(token, tr.TranslatedText, false) {
		return Result{}, false
	}

	res := Result{
		Token:      token,
		Headword:   token,
		Meaning:    tr.TranslatedText,
		Level:      EstimateLevel(token),
		Example:    exampleFor(token, context),
		Provenance: Fallback,
	}
	if tr.Success {
		res.Provenance = Live
	}
	return res, true
}

func placeholder(token, context string) Result {
	return Result{
		Token:      token,
		Headword:   token,
		Meaning:    token,
		Level:      DefaultLevel,
		Example:    exampleFor(token, context),
		Provenance: Fallback,
	}
}

func exampleFor(token, context string) string {
	if c := strings.TrimSpace(context); c != "" {
		return c
	}
	if script.HasJapanese(token) {
		return fmt.Sprintf("「%s」という言葉を見ました。", token)
	}
	return fmt.Sprintf("I saw the word %q today.", token)
}

func (r *Resolver) withReading(res Result, japanese bool) Result {
	if res.Reading != "" {
		return res
	}
	if japanese {
		if r.Readings != nil {
			res.Reading = r.Readings(res.Headword)
		}
		return res
	}
	res.Reading = Pronunciation(res.Headword)
	return res
}

var (
	commonWords       = set("the", "is", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by")
	basicWords        = set("good", "bad", "big", "small", "new", "old", "hot", "cold")
	intermediateWords = set("beautiful", "interesting", "important", "different", "similar")
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// EstimateLevel grades a word from 1 to 5 when no dictionary knows it.
func EstimateLevel(word string) int {
	w := strings.ToLower(strings.TrimSpace(word))
	switch {
	case commonWords[w]:
		return 1
	case basicWords[w]:
		return 2
	case intermediateWords[w]:
		return 3
	case utf8.RuneCountInString(w) > 8:
		return 5
	}
	return DefaultLevel
}

var pronunciations = map[string]string{
	"thank":     "さんく",
	"hello":     "はろー",
	"beautiful": "びゅーてぃふる",
	"sakura":    "さくら",
	"season":    "しーずん",
	"legendary": "れじぇんだりー",
	"special":   "すぺしゃる",
	"valuable":  "ばりゅあぶる",
}

// Pronunciation returns a kana approximation of an English word, or the
// lowercased word when none is known.
func Pronunciation(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if p, ok := pronunciations[w]; ok {
		return p
	}
	return w
}

// ProposeEntry shapes a result into a dictionary entry for the learner's
// collection. Storing it is up to the caller.
func ProposeEntry(res Result, source string) dictionary.Entry {
	level := res.Level
	if level < 1 {
		level = 1
	} else if level > 10 {
		level = 10
	}
	return dictionary.Entry{
		Headword:           res.Headword,
		Reading:            res.Reading,
		Meaning:            res.Meaning,
		Level:              level,
		Example:            res.Example,
		ExampleTranslation: res.ExampleTranslation,
		SourceAttribution:  source,
	}
}
