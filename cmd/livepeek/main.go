package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"

	"github.com/japaniel/livepeek/pkg/config"
	"github.com/japaniel/livepeek/pkg/db"
	"github.com/japaniel/livepeek/pkg/dictionary"
	"github.com/japaniel/livepeek/pkg/feed"
	"github.com/japaniel/livepeek/pkg/ingest"
	"github.com/japaniel/livepeek/pkg/reading"
	"github.com/japaniel/livepeek/pkg/resolve"
	"github.com/japaniel/livepeek/pkg/script"
	"github.com/japaniel/livepeek/pkg/translate"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "livepeek: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	dbPath     string
	text       string
	word       string
	context    string
	save       bool
	feed       bool
	comments   string
	importDict string
	article    string
	list       bool
	jsonOut    bool
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("livepeek", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Path to YAML config (default: $XDG_CONFIG_HOME/livepeek/config.yaml if present)")
	fs.StringVar(&o.dbPath, "db", "", "Path to SQLite database (overrides storage.db_path)")
	fs.StringVar(&o.text, "text", "", "Augment this text with inline translations")
	fs.StringVar(&o.word, "word", "", "Look up a word")
	fs.StringVar(&o.context, "context", "", "Sentence the -word appeared in")
	fs.BoolVar(&o.save, "save", false, "Save the -word result to the vocabulary store")
	fs.BoolVar(&o.feed, "feed", false, "Fetch and augment the latest posts")
	fs.StringVar(&o.comments, "comments", "", "Fetch and augment comments for a post permalink")
	fs.StringVar(&o.importDict, "import-dict", "", "Path to JMdict-Simplified JSON file to import definitions")
	fs.StringVar(&o.article, "article", "", "Fetch a linked article and augment its text")
	fs.BoolVar(&o.list, "list", false, "List saved vocabulary")
	fs.BoolVar(&o.jsonOut, "json", false, "Print results as JSON")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.save && o.word == "" {
		return o, errors.New("-save requires -word")
	}
	if o.text == "" && o.word == "" && !o.feed && o.comments == "" && o.importDict == "" && o.article == "" && !o.list {
		fs.Usage()
		return o, errors.New("nothing to do: give -text, -word, -feed, -comments, -article, -list or -import-dict")
	}
	return o, nil
}

func loadConfig(o options) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if o.dbPath != "" {
		cfg.Storage.DBPath = o.dbPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = config.LogLevel(o.logLevel)
		if !cfg.LogLevel.IsValid() {
			return nil, fmt.Errorf("invalid -log-level %q", o.logLevel)
		}
	}
	return cfg, nil
}

// app holds what the commands share.
type app struct {
	cfg    *config.Config
	opts   options
	log    zerolog.Logger
	http   *http.Client
	chain  *translate.Chain
	conn   *sql.DB
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(cfg.LogLevel.Zerolog()).
		With().Timestamp().Logger()
	dictionary.Logger = logger.With().Str("component", "dictionary").Logger()

	a := &app{cfg: cfg, opts: opts, log: logger, http: &http.Client{Timeout: 30 * time.Second}, stdout: stdout}
	if a.chain, err = cfg.Chain(a.http, logger); err != nil {
		return err
	}

	if opts.importDict != "" || opts.save || opts.feed || opts.list {
		if a.conn, err = a.openDB(); err != nil {
			return err
		}
		if a.conn != nil {
			defer a.conn.Close()
		}
	}

	switch {
	case opts.importDict != "":
		return a.importDictionary()
	case opts.list:
		return a.listVocabulary()
	case opts.text != "":
		return a.augmentText(ctx)
	case opts.word != "":
		return a.lookupWord(ctx)
	case opts.feed:
		return a.showFeed(ctx)
	case opts.article != "":
		return a.showArticle(ctx)
	default:
		return a.showComments(ctx)
	}
}

func (a *app) openDB() (*sql.DB, error) {
	path := a.cfg.Storage.DBPath
	if path == "" {
		return nil, nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("path", path).Msg("database initialized")
	return conn, nil
}

// loadJMdict returns the JMdict index when a dictionary file is available.
func (a *app) loadJMdict(ctx context.Context) *dictionary.Importer {
	path := a.cfg.Storage.DictionaryPath
	if path == "" {
		return nil
	}
	if a.cfg.Storage.DownloadDictionary {
		if err := dictionary.EnsureDictionary(ctx, path); err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("failed to ensure dictionary, continuing without definitions")
		}
	}
	if _, err := os.Stat(path); err != nil {
		a.log.Debug().Str("path", path).Msg("skipping dictionary load (file missing)")
		return nil
	}
	start := time.Now()
	entries, err := dictionary.LoadJMdictSimplified(path)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to load dictionary")
		return nil
	}
	a.log.Info().Int("entries", len(entries)).Dur("took", time.Since(start)).Msg("dictionary loaded")
	return dictionary.NewImporter(a.conn, entries)
}

func (a *app) importDictionary() error {
	if a.conn == nil {
		return errors.New("-import-dict needs a database; set -db or storage.db_path")
	}
	entries, err := dictionary.LoadJMdictSimplified(a.opts.importDict)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	count, err := dictionary.NewImporter(a.conn, entries).ProcessUpdates()
	if err != nil {
		return fmt.Errorf("update definitions: %w", err)
	}
	fmt.Fprintf(a.stdout, "Updated definitions for %d words.\n", count)
	return nil
}

func (a *app) listVocabulary() error {
	if a.conn == nil {
		return errors.New("-list needs a database; set -db or storage.db_path")
	}
	words, err := db.ListEntries(a.conn)
	if err != nil {
		return err
	}
	if a.opts.jsonOut {
		return a.printJSON(words)
	}
	for _, w := range words {
		fmt.Fprintf(a.stdout, "%s", color.Bold.Sprint(w.Word))
		if w.Reading != "" {
			fmt.Fprintf(a.stdout, " [%s]", w.Reading)
		}
		fmt.Fprintf(a.stdout, "  %s  (level %d)\n", w.Meaning, w.Level)
	}
	return nil
}

func (a *app) showArticle(ctx context.Context) error {
	fc := a.cfg.FeedClient(a.http, a.log)
	art, err := fc.ArticleText(ctx, a.opts.article)
	if err != nil {
		return fmt.Errorf("fetch article: %w", err)
	}
	comp, err := a.cfg.Composer(a.cfg.Augment.Posts, a.chain, nil, a.log)
	if err != nil {
		return err
	}
	title := comp.Process(ctx, art.Title)
	var body []string
	for _, s := range reading.SplitSentences(art.Text) {
		body = append(body, comp.Process(ctx, s))
	}
	if a.opts.jsonOut {
		return a.printJSON(map[string]any{"url": a.opts.article, "title": title, "sentences": body})
	}
	fmt.Fprintln(a.stdout, color.Bold.Sprint(title))
	for _, s := range body {
		fmt.Fprintln(a.stdout, s)
	}
	return nil
}

func (a *app) augmentText(ctx context.Context) error {
	comp, err := a.cfg.Composer(a.cfg.Augment.Posts, a.chain, nil, a.log)
	if err != nil {
		return err
	}
	out := comp.Process(ctx, a.opts.text)
	if a.opts.jsonOut {
		return a.printJSON(map[string]string{"input": a.opts.text, "output": out})
	}
	fmt.Fprintln(a.stdout, out)
	return nil
}

func (a *app) lookupWord(ctx context.Context) error {
	var extra []dictionary.Dictionary
	if jm := a.loadJMdict(ctx); jm != nil {
		extra = append(extra, jm)
	}
	r := resolve.New(a.chain, extra...)
	r.Native = a.cfg.NativeLanguage
	r.Logger = a.log.With().Str("component", "resolve").Logger()
	if analyzer, err := reading.NewAnalyzer(); err == nil {
		r.Readings = analyzer.Reading
	} else {
		a.log.Warn().Err(err).Msg("readings unavailable")
	}

	res, ok := r.Resolve(ctx, resolve.Query{Token: a.opts.word, Detect: true, Context: a.opts.context})
	if !ok {
		return errors.New("-word is empty")
	}

	if a.opts.save {
		if a.conn == nil {
			return errors.New("-save needs a database; set -db or storage.db_path")
		}
		e := resolve.ProposeEntry(res, "livepeek")
		lang := "en"
		if script.HasJapanese(e.Headword) {
			lang = "ja"
		}
		if _, err := db.SaveEntry(a.conn, db.Word{
			Word:               e.Headword,
			Reading:            e.Reading,
			Meaning:            e.Meaning,
			Level:              e.Level,
			Example:            e.Example,
			ExampleTranslation: e.ExampleTranslation,
			SourceAttribution:  e.SourceAttribution,
			Language:           lang,
		}); err != nil {
			return fmt.Errorf("save %q: %w", e.Headword, err)
		}
		a.log.Info().Str("word", e.Headword).Msg("saved to vocabulary")
	}

	if a.opts.jsonOut {
		return a.printJSON(res)
	}
	fmt.Fprintf(a.stdout, "%s", color.Bold.Sprint(res.Headword))
	if res.Reading != "" {
		fmt.Fprintf(a.stdout, " [%s]", res.Reading)
	}
	fmt.Fprintf(a.stdout, " %s\n", provenanceColor(res.Provenance).Sprint("("+string(res.Provenance)+")"))
	fmt.Fprintf(a.stdout, "  %s\n", res.Meaning)
	fmt.Fprintf(a.stdout, "  level %d\n", res.Level)
	if res.Example != "" {
		fmt.Fprintf(a.stdout, "  %s\n", res.Example)
	}
	if res.ExampleTranslation != "" {
		fmt.Fprintf(a.stdout, "  %s\n", res.ExampleTranslation)
	}
	return nil
}

func provenanceColor(p resolve.Provenance) color.Color {
	switch p {
	case resolve.Curated:
		return color.Green
	case resolve.Live:
		return color.Cyan
	}
	return color.Yellow
}

func (a *app) ingester() (*ingest.Ingester, error) {
	posts, err := a.cfg.Composer(a.cfg.Augment.Posts, a.chain, nil, a.log)
	if err != nil {
		return nil, err
	}
	comments, err := a.cfg.Composer(a.cfg.Augment.Comments, a.chain, nil, a.log)
	if err != nil {
		return nil, err
	}
	ig := ingest.NewIngester(a.conn, posts, comments)
	ig.Workers = a.cfg.Augment.Workers
	ig.Logger = a.log.With().Str("component", "ingest").Logger()
	if a.conn != nil {
		analyzer, err := reading.NewAnalyzer()
		if err != nil {
			return nil, err
		}
		ig.Analyzer = analyzer
		ig.Dictionary = dictionary.Builtin()
	}
	return ig, nil
}

func (a *app) showFeed(ctx context.Context) error {
	fc := a.cfg.FeedClient(a.http, a.log)
	posts, err := fc.FetchPosts(ctx, a.cfg.Feed.PerSubreddit, a.cfg.Feed.MaxPosts)
	if err != nil {
		return fmt.Errorf("fetch posts: %w", err)
	}
	ig, err := a.ingester()
	if err != nil {
		return err
	}
	items, err := ig.Ingest(ctx, posts)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if a.opts.jsonOut {
		return a.printJSON(items)
	}
	now := time.Now()
	for _, it := range items {
		fmt.Fprintf(a.stdout, "%s  %s\n", color.Bold.Sprint(it.Title), color.Gray.Sprintf("r/%s · %s · %d▲", it.Post.Subreddit, feed.TimeAgo(it.Post.CreatedAt, now), it.Post.Score))
		if it.Body != "" && it.Body != it.Title {
			fmt.Fprintf(a.stdout, "  %s\n", it.Body)
		}
		fmt.Fprintf(a.stdout, "  %s\n\n", color.Gray.Sprint(it.Post.Permalink))
	}
	return nil
}

func (a *app) showComments(ctx context.Context) error {
	fc := a.cfg.FeedClient(a.http, a.log)
	comments, err := fc.FetchComments(ctx, a.opts.comments, a.cfg.Feed.CommentLimit)
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}
	ig, err := a.ingester()
	if err != nil {
		return err
	}
	comments, err = ig.IngestComments(ctx, comments)
	if err != nil {
		return fmt.Errorf("augment comments: %w", err)
	}

	if a.opts.jsonOut {
		return a.printJSON(comments)
	}
	for _, c := range comments {
		fmt.Fprintf(a.stdout, "%s  %s\n", color.Cyan.Sprint(c.Author), c.Body)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = a.stdout.Write(pretty.Pretty(b))
	return err
}
