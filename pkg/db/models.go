package db

import "time"

// Word is a vocabulary entry. Saved words make up the learner's dictionary;
// unsaved rows only record where a word was seen.
type Word struct {
	ID                 int64
	Word               string
	Reading            string
	Meaning            string
	Level              int
	Example            string
	ExampleTranslation string
	SourceAttribution  string
	Language           string
	Saved              bool
	AddedAt            time.Time
}

// Source is a provenance record for where a word was seen.
type Source struct {
	ID         int64
	SourceType string
	Title      string
	Author     string
	Website    string
	URL        string
	Meta       string
	AddedAt    time.Time
}

// WordSource links a Word with a Source and holds contextual metadata.
type WordSource struct {
	ID              int64
	WordID          int64
	SourceID        int64
	ContextSentence string
	ExampleSentence string
	OccurrenceCount int
	FirstSeenAt     time.Time
	IsPrimary       bool
}
