// Package dictionary holds vocabulary entries: the curated built-in set and
// the JMdict index used to fill in meanings for words seen while reading.
package dictionary

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Logger receives download and import progress.
var Logger = zerolog.Nop()

// Entry is a vocabulary item as shown to the learner and as saved to their
// collection. Level runs from 1 (easiest) to 10.
type Entry struct {
	Headword           string `json:"headword"`
	Reading            string `json:"reading,omitempty"`
	Meaning            string `json:"meaning"`
	Level              int    `json:"level"`
	Example            string `json:"example,omitempty"`
	ExampleTranslation string `json:"exampleTranslation,omitempty"`
	SourceAttribution  string `json:"source,omitempty"`
}

// Dictionary answers exact-match lookups.
type Dictionary interface {
	Lookup(word string) (Entry, bool)
}

// JMdictEntry matches the structure of jmdict-simplified entries.
type JMdictEntry struct {
	Id    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string      `json:"partOfSpeech"`
	Gloss        []JMdictGloss `json:"gloss"`
}

type JMdictGloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // defaults to 'eng' if missing
}

// LoadJMdictSimplified reads a jmdict-simplified JSON file, either the
// release object {"words": [...]} or a bare array of entries.
func LoadJMdictSimplified(path string) ([]JMdictEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var getEntries struct {
		Words []JMdictEntry `json:"words"`
	}
	// Try parsing as full object wrapper first { "words": [...] }
	dec := json.NewDecoder(f)
	if err := dec.Decode(&getEntries); err == nil && len(getEntries.Words) > 0 {
		return getEntries.Words, nil
	}

	// Reset and try as array [...]
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	var entries []JMdictEntry
	dec = json.NewDecoder(f)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary as object or array: %w", err)
	}
	return entries, nil
}
