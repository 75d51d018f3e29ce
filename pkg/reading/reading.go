// Package reading runs morphological analysis over Japanese text with
// kagome: readings for clicked words, sentence splitting for exposure
// context, and readable-text extraction from linked articles.
package reading

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/livepeek/pkg/dictionary"
	"github.com/japaniel/livepeek/pkg/script"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface       string   // The text as it appears (e.g. "行っ")
	BaseForm      string   // The dictionary form (e.g. "行く")
	Reading       string   // The pronunciation (katakana, e.g. "イッ")
	PartsOfSpeech []string // e.g. ["動詞", "自立", "*", "*"] (Kagome POS labels)
	// PrimaryPOS stores the first (primary) part of speech if available.
	PrimaryPOS string
}

// IsContent reports whether the token is a noun, verb or adjective worth
// recording as vocabulary.
func (t Token) IsContent() bool {
	switch t.PrimaryPOS {
	case "名詞", "動詞", "形容詞":
	default:
		return false
	}
	if len(t.PartsOfSpeech) > 1 {
		switch t.PartsOfSpeech[1] {
		case "数", "非自立", "代名詞", "接尾":
			return false
		}
	}
	return script.HasJapanese(t.Surface)
}

// Sentence represents a sentence containing tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analyzer handles text segmentation. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("create tokenizer: %w", err)
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (a *Analyzer) Analyze(text string) ([]Token, error) {
	tokens := a.t.Tokenize(text)
	var result []Token

	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: POS, three sub-POS, conjugation type and form,
		// base form, reading, pronunciation.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}

		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}

		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}

	return result, nil
}

// AnalyzeDocument splits the text into sentences and tokenizes each sentence.
func (a *Analyzer) AnalyzeDocument(text string) ([]Sentence, error) {
	var result []Sentence
	for _, s := range SplitSentences(text) {
		tokens, err := a.Analyze(s)
		if err != nil {
			return nil, err
		}
		result = append(result, Sentence{
			Text:   s,
			Tokens: tokens,
		})
	}
	return result, nil
}

// Reading returns the hiragana reading of text. Parts kagome cannot read,
// such as Latin words, are kept as written.
func (a *Analyzer) Reading(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		r, ok := tok.Reading()
		if !ok || r == "*" || r == "" {
			b.WriteString(tok.Surface)
			continue
		}
		b.WriteString(dictionary.ToHiragana(r))
	}
	return b.String()
}

// SplitSentences splits text after 。！？ and newlines. Blank sentences are
// dropped and the rest are trimmed.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for _, r := range text {
		if r != '\n' {
			current.WriteRune(r)
		}
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			flush()
		}
	}
	flush()
	return sentences
}

// SentenceContaining returns the first sentence of text that contains word,
// or "" when none does.
func SentenceContaining(text, word string) string {
	if word == "" {
		return ""
	}
	for _, s := range SplitSentences(text) {
		if strings.Contains(s, word) {
			return s
		}
	}
	return ""
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability keeps furigana as text, which would turn
// "漢字" into "漢字かんじ".
// This function operates on bytes and is generally safe for Shift_JIS as well,
// because <, >, r, t, p are ASCII and < is not a trailing byte in Shift_JIS.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}

// Article is the readable part of an HTML page.
type Article struct {
	Title string
	Text  string
}

// ExtractArticle strips furigana from page and extracts its main text.
func ExtractArticle(page []byte, pageURL *url.URL) (Article, error) {
	art, err := readability.FromReader(bytes.NewReader(SanitizeRuby(page)), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	return Article{
		Title: strings.TrimSpace(art.Title),
		Text:  strings.TrimSpace(art.TextContent),
	}, nil
}
