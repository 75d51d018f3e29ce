// Package ingest runs feed posts through augmentation on a worker pool and,
// when a database is configured, records every post as a source together
// with the vocabulary it exposed the reader to.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/japaniel/livepeek/pkg/augment"
	"github.com/japaniel/livepeek/pkg/db"
	"github.com/japaniel/livepeek/pkg/dictionary"
	"github.com/japaniel/livepeek/pkg/feed"
	"github.com/japaniel/livepeek/pkg/reading"
)

// SourceType marks sources created from feed posts.
const SourceType = "reddit"

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester augments posts and comments for display.
type Ingester struct {
	DB *sql.DB
	// Posts augments titles and bodies; Comments augments comment bodies.
	// A nil composer leaves text unchanged.
	Posts    *augment.Composer
	Comments *augment.Composer
	// Analyzer finds vocabulary to record. Words are recorded only when
	// both DB and Analyzer are set.
	Analyzer *reading.Analyzer
	// Dictionary, if set, supplies meanings for newly recorded words.
	Dictionary dictionary.Dictionary
	Logger     zerolog.Logger
	// OnProgress is called with the number of posts done so far and the total.
	OnProgress func(current, total int)

	// Concurrency settings
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester. conn may be nil.
func NewIngester(conn *sql.DB, posts, comments *augment.Composer) *Ingester {
	return &Ingester{
		DB:       conn,
		Posts:    posts,
		Comments: comments,
		Logger:   zerolog.Nop(),
		Workers:  4, // Default worker count
	}
}

// Item is a post ready for display.
type Item struct {
	Index int       `json:"index"`
	Post  feed.Post `json:"post"`
	// Title and Body carry the augmented text.
	Title string `json:"title"`
	Body  string `json:"body"`
	// SourceID and Words are set when the post was recorded.
	SourceID int64 `json:"sourceId,omitempty"`
	Words    int   `json:"words,omitempty"`

	sentences []sentenceWords
}

// wordData holds prepared data for a single word occurrence in a sentence
type wordData struct {
	Word    string
	Reading string
	Count   int
}

type sentenceWords struct {
	Text  string
	Words []wordData
}

func (ig *Ingester) pool() WorkerPoolInterface {
	workers := max(ig.Workers, 1)
	if ig.PoolFactory != nil {
		return ig.PoolFactory(workers, workers*2)
	}
	wp := NewWorkerPool(workers, workers*2)
	wp.Logger = ig.Logger
	return wp
}

// Ingest augments posts concurrently and returns them in input order. When
// the context ends early the items finished so far are returned with the
// context's error.
func (ig *Ingester) Ingest(ctx context.Context, posts []feed.Post) ([]Item, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp := ig.pool()
	resultCh := make(chan Item, max(ig.Workers, 1)*2)
	doneCh := make(chan error, 1)
	items := make([]Item, 0, len(posts))

	wp.Start(ctx)

	// The consumer restores input order and writes each post in its own
	// transaction.
	go func() {
		defer close(doneCh)
		buffer := make(map[int]Item)
		next := 0
		for res := range resultCh {
			buffer[res.Index] = res
			for {
				item, ok := buffer[next]
				if !ok {
					break
				}
				delete(buffer, next)

				if err := ig.record(ctx, &item); err != nil {
					// Signal producers to stop and let them drain.
					cancel()
					doneCh <- err
					for range resultCh {
					}
					return
				}
				items = append(items, item)
				next++
				if ig.OnProgress != nil {
					ig.OnProgress(next, len(posts))
				}
			}
		}
		doneCh <- nil
	}()

	var submitErr error
Loop:
	for i, p := range posts {
		// handle early exit if the consumer failed or the caller gave up
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		job := func(ctx context.Context) error {
			item := ig.process(ctx, i, p)
			select {
			case resultCh <- item:
			case <-ctx.Done():
			}
			return nil
		}

		// Submit job to the worker pool but remain responsive to context cancellation.
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if ctx.Err() != nil || err == ErrPoolClosed {
				break Loop
			}
			submitErr = fmt.Errorf("submit post %d: %w", i, err)
			cancel()
			break Loop
		}
	}

	// No worker is left to send once Close returns.
	wp.Close()
	close(resultCh)

	err := <-doneCh
	if err == nil {
		err = submitErr
	}
	if err == nil && len(items) < len(posts) {
		err = ctx.Err()
	}
	return items, err
}

// process does the slow part of a post: translator round trips and
// morphological analysis.
func (ig *Ingester) process(ctx context.Context, index int, post feed.Post) Item {
	item := Item{Index: index, Post: post, Title: post.Title, Body: post.Body}
	if ig.Posts != nil {
		item.Title = ig.Posts.Process(ctx, post.Title)
		item.Body = ig.Posts.Process(ctx, post.Body)
	}
	if ig.DB != nil && ig.Analyzer != nil {
		text := post.Title
		if post.Body != post.Title {
			text += "\n" + post.Body
		}
		sentences, err := ig.Analyzer.AnalyzeDocument(text)
		if err != nil {
			ig.Logger.Warn().Err(err).Str("post", post.ID).Msg("analysis failed, no words recorded")
			return item
		}
		for _, s := range sentences {
			if words := contentWords(s); len(words) > 0 {
				item.sentences = append(item.sentences, sentenceWords{Text: s.Text, Words: words})
			}
		}
	}
	return item
}

// contentWords counts the vocabulary of a sentence by dictionary form.
func contentWords(sentence reading.Sentence) []wordData {
	wordCounts := make(map[string]int)
	wordReadings := make(map[string]string)
	var orderedWords []string

	for _, t := range sentence.Tokens {
		if !t.IsContent() {
			continue
		}

		// Normalization: Use BaseForm (Lemma) as the canonical word if available
		wordToSave := t.Surface
		if t.BaseForm != "" && t.BaseForm != "*" {
			wordToSave = t.BaseForm
		}

		if _, exists := wordCounts[wordToSave]; !exists {
			wordReadings[wordToSave] = dictionary.ToHiragana(t.Reading)
			orderedWords = append(orderedWords, wordToSave)
		} else if wordReadings[wordToSave] == "" {
			wordReadings[wordToSave] = dictionary.ToHiragana(t.Reading)
		}
		wordCounts[wordToSave]++
	}

	words := make([]wordData, 0, len(orderedWords))
	for _, w := range orderedWords {
		words = append(words, wordData{Word: w, Reading: wordReadings[w], Count: wordCounts[w]})
	}
	return words
}

type sourceMeta struct {
	Subreddit  string   `json:"subreddit"`
	Score      int      `json:"score"`
	Difficulty int      `json:"difficulty"`
	Tags       []string `json:"tags,omitempty"`
}

// record stores the post and its words. It is a no-op without a database.
func (ig *Ingester) record(ctx context.Context, item *Item) error {
	if ig.DB == nil {
		return nil
	}
	p := item.Post
	meta, err := json.Marshal(sourceMeta{Subreddit: p.Subreddit, Score: p.Score, Difficulty: p.Difficulty, Tags: p.Tags})
	if err != nil {
		return fmt.Errorf("encode source meta: %w", err)
	}

	tx, err := ig.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sourceID, err := db.CreateOrGetSource(tx, SourceType, p.Title, p.Author, "r/"+p.Subreddit, p.ExternalURL(), string(meta))
	if err != nil {
		return fmt.Errorf("failed to persist source %s: %w", p.ID, err)
	}

	links := 0
	for _, s := range item.sentences {
		for _, w := range s.Words {
			meaning := ""
			if ig.Dictionary != nil {
				if e, ok := ig.Dictionary.Lookup(w.Word); ok {
					meaning = e.Meaning
				}
			}
			wordID, err := db.CreateOrGetWord(tx, w.Word, w.Reading, meaning, "ja")
			if err != nil {
				return fmt.Errorf("failed to persist word %s: %w", w.Word, err)
			}
			if err := db.LinkWordToSource(tx, wordID, sourceID, s.Text, s.Text, w.Count); err != nil {
				return fmt.Errorf("failed to link word %d: %w", wordID, err)
			}
			links += w.Count
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit post %s: %w", p.ID, err)
	}

	item.SourceID = sourceID
	item.Words = links
	ig.Logger.Debug().Str("post", p.ID).Int64("source", sourceID).Int("links", links).Msg("recorded post")
	return nil
}

// IngestComments augments comment bodies with the comment composer,
// preserving order.
func (ig *Ingester) IngestComments(ctx context.Context, comments []feed.Comment) ([]feed.Comment, error) {
	out := append([]feed.Comment(nil), comments...)
	if ig.Comments == nil || len(out) == 0 {
		return out, nil
	}

	wp := ig.pool()
	wp.Start(ctx)
	for i := range out {
		err := wp.SubmitCtx(ctx, func(ctx context.Context) error {
			out[i].Body = ig.Comments.Process(ctx, out[i].Body)
			return nil
		})
		if err != nil {
			wp.Close()
			return nil, fmt.Errorf("submit comment %d: %w", i, err)
		}
	}
	wp.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
