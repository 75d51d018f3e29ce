package config_test

import (
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/livepeek/pkg/augment"
	"github.com/japaniel/livepeek/pkg/config"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	require.NoError(t, config.Validate(cfg))
	assert.Equal(t, "generous", cfg.Augment.Posts.Mode)
	assert.Equal(t, "sparse", cfg.Augment.Comments.Mode)
	assert.Equal(t, 5, cfg.Augment.Posts.MinSubstitutions)
	assert.Equal(t, 0.8, cfg.Augment.Posts.Probability)
	assert.Equal(t, 0.6, cfg.Augment.Comments.Probability)
	assert.True(t, strings.HasSuffix(cfg.Storage.DBPath, filepath.Join("livepeek", "livepeek.db")), cfg.Storage.DBPath)
}

func TestLoadFromReader_EmptyKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFromReader_Overrides(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: debug
native_language: de
storage:
  db_path: /tmp/words.db
translate:
  providers:
    - name: libretranslate
      url: http://localhost:5000/translate
  timeout: 2s
  cache_capacity: 50
augment:
  posts:
    mode: sparse
    probability: 0.5
feed:
  subreddits: [LearnJapanese]
  cache_ttl: 1m
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, config.LogDebug, cfg.LogLevel)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel.Zerolog())
	assert.Equal(t, "de", cfg.NativeLanguage)
	assert.Equal(t, "/tmp/words.db", cfg.Storage.DBPath)
	assert.Equal(t, []config.ProviderEntry{{Name: "libretranslate", URL: "http://localhost:5000/translate"}}, cfg.Translate.Providers)
	assert.Equal(t, 2*time.Second, cfg.Translate.Timeout)
	assert.Equal(t, 50, cfg.Translate.CacheCapacity)
	assert.Equal(t, "sparse", cfg.Augment.Posts.Mode)
	assert.Equal(t, 0.5, cfg.Augment.Posts.Probability)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Augment.Posts.MinSubstitutions)
	assert.Equal(t, []string{"LearnJapanese"}, cfg.Feed.Subreddits)
	assert.Equal(t, time.Minute, cfg.Feed.CacheTTL)
	assert.Equal(t, 20, cfg.Feed.MaxPosts)
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("translate:\n  retries: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: verbose
native_language: english
translate:
  providers:
    - name: google
  timeout: 0s
augment:
  posts:
    mode: everything
    probability: 1.5
  comments:
    min_substitutions: -1
feed:
  per_subreddit: 0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	require.Error(t, err)
	for _, want := range []string{
		"log_level",
		"native_language",
		`"google" is unknown`,
		"translate.timeout",
		"augment.posts.mode",
		"augment.posts.probability",
		"augment.comments.min_substitutions",
		"feed.per_subreddit",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.LogWarn, cfg.LogLevel)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuilders(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Translate.DisableFallback = true

	chain, err := cfg.Chain(http.DefaultClient, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, chain.Fallback)
	assert.Equal(t, cfg.Translate.Timeout, chain.Timeout)

	comp, err := cfg.Composer(cfg.Augment.Comments, chain, rand.New(rand.NewPCG(1, 1)), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, augment.Sparse, comp.Mode)
	assert.Equal(t, 0.6, comp.Probability)

	fc := cfg.FeedClient(nil, zerolog.Nop())
	assert.Equal(t, cfg.Feed.Subreddits, fc.Subreddits)
	assert.Equal(t, cfg.Feed.CacheTTL, fc.TTL)

	_, err = config.NewProvider(config.ProviderEntry{Name: "deepl"}, nil)
	assert.Error(t, err)
}
