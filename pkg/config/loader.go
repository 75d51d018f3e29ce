package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/japaniel/livepeek/pkg/augment"
	"github.com/japaniel/livepeek/pkg/translate"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default] and validates
// the result. Unknown keys are errors.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if err := translate.ValidateLanguage(cfg.NativeLanguage); err != nil {
		errs = append(errs, fmt.Errorf("native_language: %w", err))
	}

	// Translate
	for i, p := range cfg.Translate.Providers {
		if !slices.Contains(ProviderNames, p.Name) {
			errs = append(errs, fmt.Errorf("translate.providers[%d].name %q is unknown; valid values: %v", i, p.Name, ProviderNames))
		}
	}
	if cfg.Translate.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("translate.timeout must be positive, got %s", cfg.Translate.Timeout))
	}
	if cfg.Translate.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("translate.cache_capacity must not be negative, got %d", cfg.Translate.CacheCapacity))
	}

	// Augment
	errs = append(errs, validateMode("augment.posts", cfg.Augment.Posts)...)
	errs = append(errs, validateMode("augment.comments", cfg.Augment.Comments)...)
	if cfg.Augment.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("augment.concurrency must be at least 1, got %d", cfg.Augment.Concurrency))
	}
	if cfg.Augment.Workers < 1 {
		errs = append(errs, fmt.Errorf("augment.workers must be at least 1, got %d", cfg.Augment.Workers))
	}

	// Feed
	if len(cfg.Feed.BaseURLs) == 0 {
		errs = append(errs, errors.New("feed.base_urls must not be empty"))
	}
	if cfg.Feed.PerSubreddit < 1 || cfg.Feed.PerSubreddit > 100 {
		errs = append(errs, fmt.Errorf("feed.per_subreddit %d is out of range [1, 100]", cfg.Feed.PerSubreddit))
	}
	if cfg.Feed.MaxPosts < 1 {
		errs = append(errs, fmt.Errorf("feed.max_posts must be at least 1, got %d", cfg.Feed.MaxPosts))
	}
	if cfg.Feed.CommentLimit < 0 {
		errs = append(errs, fmt.Errorf("feed.comment_limit must not be negative, got %d", cfg.Feed.CommentLimit))
	}
	if cfg.Feed.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("feed.cache_ttl must not be negative, got %s", cfg.Feed.CacheTTL))
	}

	return errors.Join(errs...)
}

func validateMode(prefix string, m ModeConfig) []error {
	var errs []error
	if _, err := augment.ParseMode(m.Mode); err != nil {
		errs = append(errs, fmt.Errorf("%s.mode: %w", prefix, err))
	}
	if m.Probability < 0 || m.Probability > 1 {
		errs = append(errs, fmt.Errorf("%s.probability %.2f is out of range [0, 1]", prefix, m.Probability))
	}
	if m.MinSubstitutions < 0 {
		errs = append(errs, fmt.Errorf("%s.min_substitutions must not be negative, got %d", prefix, m.MinSubstitutions))
	}
	if m.MaxCandidates < 0 {
		errs = append(errs, fmt.Errorf("%s.max_candidates must not be negative, got %d", prefix, m.MaxCandidates))
	}
	return errs
}
