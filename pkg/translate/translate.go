// Package translate turns short snippets of text into another language by
// trying a list of unreliable web translators in order, remembering good
// answers, and falling back to a built-in bilingual word table.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/japaniel/livepeek/pkg/script"
)

// ErrInvalidLanguage is returned for language codes that are not two
// lowercase ASCII letters naming a known language.
var ErrInvalidLanguage = errors.New("invalid language code")

// Provider is a single translation backend. A non-nil error means the
// provider declined; callers move on to the next one.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc struct {
	ID string
	Fn func(ctx context.Context, text, source, target string) (string, error)
}

func (p ProviderFunc) Name() string { return p.ID }

func (p ProviderFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return p.Fn(ctx, text, source, target)
}

// Request identifies a translation. Two requests are the same cache entry
// when their trimmed text and language pair match exactly.
type Request struct {
	Text   string
	Source string
	Target string
}

// Normalize returns r with surrounding whitespace removed from the text.
func (r Request) Normalize() Request {
	r.Text = strings.TrimSpace(r.Text)
	return r
}

func (r Request) key() string {
	return r.Source + "\x00" + r.Target + "\x00" + r.Text
}

// Result is the outcome of a translation.
type Result struct {
	SourceText     string
	TranslatedText string
	// Provider names the backend that answered: a provider name, "cache",
	// "static" for the word table, or "" when nothing changed the text.
	Provider string
	// Success is true only for validated answers from a provider or the cache.
	Success bool
}

const (
	ProviderCache  = "cache"
	ProviderStatic = "static"
)

// Acceptable reports whether candidate is a usable translation of input. A
// candidate must be non-blank, differ from the input ignoring case, and not
// consist of punctuation alone. In strict mode, used for answers that go in
// the cache, it must also be longer than one rune.
func Acceptable(input, candidate string, strict bool) bool {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return false
	}
	if strict && utf8.RuneCountInString(c) <= 1 {
		return false
	}
	if strings.EqualFold(c, strings.TrimSpace(input)) {
		return false
	}
	return !script.IsPunctOnly(c)
}

// ValidateLanguage checks that code is a two-letter lowercase ISO 639-1 code.
func ValidateLanguage(code string) error {
	if len(code) != 2 || code[0] < 'a' || code[0] > 'z' || code[1] < 'a' || code[1] > 'z' {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
	}
	if _, err := language.ParseBase(code); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, code, err)
	}
	return nil
}
