// Package config loads LivePeek's YAML configuration and turns it into
// ready-to-use components.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/japaniel/livepeek/pkg/augment"
	"github.com/japaniel/livepeek/pkg/dictionary"
	"github.com/japaniel/livepeek/pkg/feed"
	"github.com/japaniel/livepeek/pkg/segment"
	"github.com/japaniel/livepeek/pkg/translate"
)

// AppName names the per-user config and data directories.
const AppName = "livepeek"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Zerolog maps l to a zerolog level. Unknown levels map to info.
func (l LogLevel) Zerolog() zerolog.Level {
	lvl, err := zerolog.ParseLevel(string(l))
	if err != nil || l == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Config is the root configuration.
type Config struct {
	LogLevel LogLevel `yaml:"log_level"`

	// NativeLanguage is the reader's language, used for word lookups.
	NativeLanguage string `yaml:"native_language"`

	Storage   StorageConfig   `yaml:"storage"`
	Translate TranslateConfig `yaml:"translate"`
	Augment   AugmentConfig   `yaml:"augment"`
	Feed      FeedConfig      `yaml:"feed"`
}

// StorageConfig locates on-disk state.
type StorageConfig struct {
	// DBPath is the sqlite vocabulary store. Empty disables persistence.
	DBPath string `yaml:"db_path"`

	// DictionaryPath is a jmdict-simplified JSON file. Empty disables JMdict.
	DictionaryPath string `yaml:"dictionary_path"`

	// DownloadDictionary fetches the dictionary on first use when missing.
	DownloadDictionary bool `yaml:"download_dictionary"`
}

// ProviderEntry configures one translation backend.
type ProviderEntry struct {
	// Name is one of lingva, mymemory or libretranslate.
	Name string `yaml:"name"`

	// URL overrides the provider's public endpoint.
	URL string `yaml:"url"`
}

// TranslateConfig configures the provider chain.
type TranslateConfig struct {
	// Providers are tried in order. An empty list leaves only the offline
	// word table.
	Providers []ProviderEntry `yaml:"providers"`

	// Timeout bounds each provider call, e.g. "8s".
	Timeout time.Duration `yaml:"timeout"`

	// CacheCapacity caps remembered translations; 0 means unbounded.
	CacheCapacity int `yaml:"cache_capacity"`

	// DisableFallback turns off the built-in word table.
	DisableFallback bool `yaml:"disable_fallback"`
}

// ModeConfig tunes one composer.
type ModeConfig struct {
	Mode             string  `yaml:"mode"`
	Probability      float64 `yaml:"probability"`
	MinSubstitutions int     `yaml:"min_substitutions"`
	MaxCandidates    int     `yaml:"max_candidates"`
}

// AugmentConfig configures inline glossing for posts and for comments.
type AugmentConfig struct {
	Posts    ModeConfig `yaml:"posts"`
	Comments ModeConfig `yaml:"comments"`

	// Concurrency bounds in-flight translations per text.
	Concurrency int `yaml:"concurrency"`

	// Workers is the number of posts augmented at once.
	Workers int `yaml:"workers"`
}

// FeedConfig configures the upstream post source.
type FeedConfig struct {
	BaseURLs     []string      `yaml:"base_urls"`
	Subreddits   []string      `yaml:"subreddits"`
	PerSubreddit int           `yaml:"per_subreddit"`
	MaxPosts     int           `yaml:"max_posts"`
	CommentLimit int           `yaml:"comment_limit"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used when no file is given. Storage
// lives under the XDG data directory.
func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, AppName)
	return &Config{
		LogLevel:       LogInfo,
		NativeLanguage: "en",
		Storage: StorageConfig{
			DBPath:             filepath.Join(dataDir, AppName+".db"),
			DictionaryPath:     filepath.Join(dataDir, dictionary.DefaultFileName),
			DownloadDictionary: false,
		},
		Translate: TranslateConfig{
			Providers: []ProviderEntry{
				{Name: ProviderLingva},
				{Name: ProviderMyMemory},
				{Name: ProviderLibreTranslate},
			},
			Timeout:       translate.DefaultTimeout,
			CacheCapacity: 10000,
		},
		Augment: AugmentConfig{
			Posts: ModeConfig{
				Mode:             augment.Generous.String(),
				Probability:      augment.DefaultProbability,
				MinSubstitutions: augment.DefaultMinSubstitutions,
				MaxCandidates:    segment.DefaultMaxCandidates,
			},
			Comments: ModeConfig{
				Mode:             augment.Sparse.String(),
				Probability:      0.6,
				MinSubstitutions: 0,
				MaxCandidates:    segment.DefaultMaxCandidates,
			},
			Concurrency: augment.DefaultConcurrency,
			Workers:     4,
		},
		Feed: FeedConfig{
			BaseURLs:     append([]string(nil), feed.DefaultBaseURLs...),
			Subreddits:   append([]string(nil), feed.DefaultSubreddits...),
			PerSubreddit: 5,
			MaxPosts:     20,
			CommentLimit: 20,
			CacheTTL:     feed.DefaultTTL,
		},
	}
}

// DefaultPath returns the user's config file if one exists under the XDG
// config directories, or "".
func DefaultPath() string {
	p, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.yaml"))
	if err != nil {
		return ""
	}
	return p
}
