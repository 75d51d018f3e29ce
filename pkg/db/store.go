package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested word does not exist.
var ErrNotFound = errors.New("not found")

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

const wordColumns = `w.id, w.word, w.reading, w.meaning, w.level, w.example, w.example_translation,
	w.source_attribution, w.language, w.saved, w.added_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWord(r rowScanner) (Word, error) {
	var w Word
	err := r.Scan(&w.ID, &w.Word, &w.Reading, &w.Meaning, &w.Level, &w.Example,
		&w.ExampleTranslation, &w.SourceAttribution, &w.Language, &w.Saved, &w.AddedAt)
	return w, err
}

func collectWords(rows *sql.Rows) ([]Word, error) {
	defer rows.Close()
	var out []Word
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func language(lang string) string {
	if lang = strings.TrimSpace(lang); lang == "" {
		return "ja"
	}
	return lang
}

// CreateOrGetWord returns existing word id or inserts a new word and returns its id.
// Empty reading or meaning never overwrite stored values.
func CreateOrGetWord(db DBExecutor, word, reading, meaning, lang string) (int64, error) {
	trimmedWord := strings.TrimSpace(word)
	if trimmedWord == "" {
		return 0, fmt.Errorf("word must be non-empty")
	}

	var id int64
	query := `INSERT INTO words (word, reading, meaning, language)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(word, language)
			  DO UPDATE SET
			    reading = COALESCE(NULLIF(excluded.reading, ''), words.reading),
			    meaning = COALESCE(NULLIF(excluded.meaning, ''), words.meaning)
			  RETURNING id`

	err := db.QueryRow(query, trimmedWord, reading, meaning, language(lang)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert word: %w", err)
	}
	return id, nil
}

// SaveEntry adds w to the saved collection. The headword is the dedup key:
// saving an existing word marks it saved and fills in any fields it lacked,
// keeping values already stored.
func SaveEntry(db DBExecutor, w Word) (int64, error) {
	trimmedWord := strings.TrimSpace(w.Word)
	if trimmedWord == "" {
		return 0, fmt.Errorf("word must be non-empty")
	}

	var id int64
	err := db.QueryRow(`INSERT INTO words (word, reading, meaning, level, example, example_translation, source_attribution, language, saved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(word, language) DO UPDATE SET
		  saved = 1,
		  reading = COALESCE(NULLIF(words.reading, ''), excluded.reading),
		  meaning = COALESCE(NULLIF(words.meaning, ''), excluded.meaning),
		  level = CASE WHEN words.level = 0 THEN excluded.level ELSE words.level END,
		  example = COALESCE(NULLIF(words.example, ''), excluded.example),
		  example_translation = COALESCE(NULLIF(words.example_translation, ''), excluded.example_translation),
		  source_attribution = COALESCE(NULLIF(words.source_attribution, ''), excluded.source_attribution)
		RETURNING id`,
		trimmedWord, w.Reading, w.Meaning, w.Level, w.Example, w.ExampleTranslation,
		w.SourceAttribution, language(w.Language),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save entry: %w", err)
	}
	return id, nil
}

// GetEntry returns the word with the given headword.
func GetEntry(db DBExecutor, word, lang string) (Word, error) {
	w, err := scanWord(db.QueryRow(`SELECT `+wordColumns+` FROM words w WHERE w.word = ? AND w.language = ?`,
		strings.TrimSpace(word), language(lang)))
	if errors.Is(err, sql.ErrNoRows) {
		return Word{}, fmt.Errorf("word %q: %w", word, ErrNotFound)
	}
	return w, err
}

// ListEntries returns the saved collection, easiest words first.
func ListEntries(db DBExecutor) ([]Word, error) {
	rows, err := db.Query(`SELECT ` + wordColumns + ` FROM words w WHERE w.saved = 1 ORDER BY w.level, w.word`)
	if err != nil {
		return nil, err
	}
	return collectWords(rows)
}

// DeleteEntry removes a word from the saved collection. Where the word was
// seen is kept.
func DeleteEntry(db DBExecutor, id int64) error {
	res, err := db.Exec(`UPDATE words SET saved = 0 WHERE id = ? AND saved = 1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("saved word %d: %w", id, ErrNotFound)
	}
	return nil
}

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
func CreateOrGetSource(db DBExecutor, sourceType, title, author, website, url, meta string) (int64, error) {
	trimmedSourceType := strings.TrimSpace(sourceType)
	if trimmedSourceType == "" {
		return 0, fmt.Errorf("sourceType must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		// First, try to find an existing source.
		err := db.QueryRow(
			`SELECT id FROM sources WHERE url = ? AND title = ? AND author = ?`,
			url, title, author,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		// No existing row; try to insert one.
		res, err := db.Exec(
			`INSERT INTO sources (source_type, title, author, website, url, meta) VALUES (?, ?, ?, ?, ?, ?)`,
			trimmedSourceType, title, author, website, url, meta,
		)
		if err != nil {
			// If another concurrent transaction inserted the same source, retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}

		return res.LastInsertId()
	}

	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

func getOrCreateSentence(db DBExecutor, text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, nil
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err == nil {
		return id, nil
	} else if err != sql.ErrNoRows {
		return 0, err
	}
	// concurrent-safe via the UNIQUE constraint
	if _, err := db.Exec(`INSERT OR IGNORE INTO sentences (text) VALUES (?)`, trimmed); err != nil {
		return 0, err
	}
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// maxContextsPerLink bounds the context sentences kept per word and source.
const maxContextsPerLink = 5

// LinkWordToSource records that a word was seen in a source, creating the
// link or adding incrementAmount to its occurrence count.
func LinkWordToSource(db DBExecutor, wordID, sourceID int64, context, example string, incrementAmount int) error {
	if wordID <= 0 {
		return fmt.Errorf("wordID must be positive")
	}
	if sourceID <= 0 {
		return fmt.Errorf("sourceID must be positive")
	}
	if incrementAmount < 1 {
		return fmt.Errorf("incrementAmount must be positive, got %d", incrementAmount)
	}

	ctxID, err := getOrCreateSentence(db, context)
	if err != nil {
		return fmt.Errorf("get/create context sentence: %w", err)
	}
	exID, err := getOrCreateSentence(db, example)
	if err != nil {
		return fmt.Errorf("get/create example sentence: %w", err)
	}

	var wordSourceID int64
	err = db.QueryRow(`INSERT INTO word_sources (word_id, source_id, context_sentence_id, example_sentence_id, occurrence_count, first_seen_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(word_id, source_id) DO UPDATE SET
	  occurrence_count = word_sources.occurrence_count + excluded.occurrence_count,
	  context_sentence_id = COALESCE(excluded.context_sentence_id, word_sources.context_sentence_id),
	  example_sentence_id = COALESCE(excluded.example_sentence_id, word_sources.example_sentence_id)
	RETURNING id`, wordID, sourceID, nullableInt64(ctxID), nullableInt64(exID), incrementAmount, time.Now()).Scan(&wordSourceID)
	if err != nil {
		return err
	}

	if ctxID == 0 {
		return nil
	}
	_, err = db.Exec(`
		INSERT INTO word_contexts (word_source_id, sentence_id)
		SELECT ?, ?
		WHERE (SELECT COUNT(*) FROM word_contexts WHERE word_source_id = ?) < ?
		ON CONFLICT DO NOTHING`,
		wordSourceID, ctxID, wordSourceID, maxContextsPerLink)

	return err
}

// nullableInt64 returns nil for 0 (meaning no sentence) else the value.
func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

// UpdateWordMeaning sets the meaning of a word.
func UpdateWordMeaning(db DBExecutor, wordID int64, meaning string) error {
	if wordID <= 0 {
		return fmt.Errorf("wordID must be positive")
	}
	_, err := db.Exec(`UPDATE words SET meaning = ? WHERE id = ?`, meaning, wordID)
	return err
}

// GetWordsBySource returns words associated with a given source id.
func GetWordsBySource(db DBExecutor, sourceID int64) ([]Word, error) {
	rows, err := db.Query(`SELECT `+wordColumns+` FROM words w
		JOIN word_sources ws ON ws.word_id = w.id
		WHERE ws.source_id = ?
		ORDER BY ws.occurrence_count DESC, w.id`, sourceID)
	if err != nil {
		return nil, err
	}
	return collectWords(rows)
}

// WordsMissingMeaning returns every word without a meaning.
func WordsMissingMeaning(db DBExecutor) ([]Word, error) {
	rows, err := db.Query(`SELECT ` + wordColumns + ` FROM words w WHERE w.meaning = '' ORDER BY w.id`)
	if err != nil {
		return nil, err
	}
	return collectWords(rows)
}

// ContextSentences returns the stored context sentences for a word in a source.
func ContextSentences(db DBExecutor, wordID, sourceID int64) ([]string, error) {
	rows, err := db.Query(`SELECT s.text FROM word_contexts wc
		JOIN word_sources ws ON ws.id = wc.word_source_id
		JOIN sentences s ON s.id = wc.sentence_id
		WHERE ws.word_id = ? AND ws.source_id = ?
		ORDER BY wc.id`, wordID, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
