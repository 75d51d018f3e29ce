package dictionary

import (
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/japaniel/livepeek/pkg/db"
)

// JMdictAttribution is the source recorded on entries built from JMdict.
const JMdictAttribution = "JMdict"

// maxGlosses bounds the glosses joined into one meaning.
const maxGlosses = 3

// Importer matches words against a JMdict index and fills in meanings.
type Importer struct {
	conn *sql.DB
	// index is read concurrently by resolver goroutines; mu guards it so the
	// index can be extended after creation.
	mu    sync.RWMutex
	index map[string][]JMdictEntry
}

// NewImporter creates an importer and builds an in-memory index of the
// provided dictionary. conn may be nil when only lookups are needed.
func NewImporter(conn *sql.DB, entries []JMdictEntry) *Importer {
	im := &Importer{conn: conn, index: make(map[string][]JMdictEntry)}
	im.Add(entries...)
	return im
}

// Add indexes more entries by every kanji and kana spelling.
func (im *Importer) Add(entries ...JMdictEntry) {
	im.mu.Lock()
	defer im.mu.Unlock()
	for _, e := range entries {
		for _, k := range e.Kanji {
			im.index[k.Text] = append(im.index[k.Text], e)
		}
		for _, k := range e.Kana {
			im.index[k.Text] = append(im.index[k.Text], e)
		}
	}
}

// ProcessUpdates fills the meaning of every stored word that lacks one.
func (im *Importer) ProcessUpdates() (int, error) {
	words, err := db.WordsMissingMeaning(im.conn)
	if err != nil {
		return 0, err
	}

	updatedCount := 0
	for _, w := range words {
		matches := im.findMatches(w.Word, "", w.Reading)
		if len(matches) == 0 {
			continue
		}
		meaning := Summarize(matches)
		if meaning == "" {
			continue
		}
		if err := db.UpdateWordMeaning(im.conn, w.ID, meaning); err != nil {
			Logger.Warn().Err(err).Int64("word_id", w.ID).Str("word", w.Word).Msg("failed to update meaning")
			continue
		}
		updatedCount++
	}
	Logger.Info().Int("updated", updatedCount).Int("missing", len(words)).Msg("dictionary import finished")
	return updatedCount, nil
}

// Matches finds entries for a surface form, its lemma and pronunciation.
func (im *Importer) Matches(word, lemma, pronunciation string) []JMdictEntry {
	return im.findMatches(word, lemma, pronunciation)
}

// Lookup returns an entry for word built from its JMdict matches.
func (im *Importer) Lookup(word string) (Entry, bool) {
	w := strings.TrimSpace(word)
	matches := im.findMatches(w, "", "")
	if len(matches) == 0 {
		return Entry{}, false
	}
	e := Entry{
		Headword:          w,
		Meaning:           Summarize(matches),
		SourceAttribution: JMdictAttribution,
	}
	if len(matches[0].Kana) > 0 {
		e.Reading = ToHiragana(matches[0].Kana[0].Text)
	}
	return e, e.Meaning != ""
}

func (im *Importer) findMatches(word, lemma, pronunciation string) []JMdictEntry {
	candidates := make(map[string]JMdictEntry) // dedupe by entry id

	search := func(term string) {
		if term == "" {
			return
		}
		im.mu.RLock()
		entries, ok := im.index[term]
		im.mu.RUnlock()
		if ok {
			for _, e := range entries {
				candidates[e.Id] = e
			}
		}
	}

	search(word)
	search(lemma)

	var results []JMdictEntry
	for _, entry := range candidates {
		if isMatch(entry, word, lemma, pronunciation) {
			results = append(results, entry)
		}
	}

	// common entries first, then by id for stable output
	sort.Slice(results, func(i, j int) bool {
		ci, cj := isCommon(results[i]), isCommon(results[j])
		if ci != cj {
			return ci
		}
		return results[i].Id < results[j].Id
	})

	return results
}

func isCommon(e JMdictEntry) bool {
	for _, k := range e.Kanji {
		if k.Common {
			return true
		}
	}
	for _, k := range e.Kana {
		if k.Common {
			return true
		}
	}
	return false
}

func isMatch(entry JMdictEntry, word, lemma, pronunciation string) bool {
	// The entry must contain the word or lemma as a kanji or kana spelling,
	// and when a pronunciation is known one of its kana must agree.
	hasText := false
	for _, k := range entry.Kanji {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	for _, k := range entry.Kana {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	if !hasText {
		return false
	}

	if pronunciation == "" {
		return true
	}

	normalizedPron := ToHiragana(pronunciation)
	for _, k := range entry.Kana {
		if ToHiragana(k.Text) == normalizedPron {
			return true
		}
	}
	return false
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// Summarize joins the first few English glosses of the best match.
func Summarize(entries []JMdictEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var glosses []string
	for _, s := range entries[0].Sense {
		for _, g := range s.Gloss {
			if g.Lang != "" && g.Lang != "eng" {
				continue
			}
			glosses = append(glosses, g.Text)
			if len(glosses) == maxGlosses {
				return strings.Join(glosses, "; ")
			}
		}
	}
	return strings.Join(glosses, "; ")
}
