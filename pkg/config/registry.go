package config

import (
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/japaniel/livepeek/pkg/augment"
	"github.com/japaniel/livepeek/pkg/feed"
	"github.com/japaniel/livepeek/pkg/translate"
)

// Translation provider names accepted in translate.providers.
const (
	ProviderLingva         = "lingva"
	ProviderMyMemory       = "mymemory"
	ProviderLibreTranslate = "libretranslate"
)

// ProviderNames lists every known provider name.
var ProviderNames = []string{ProviderLingva, ProviderMyMemory, ProviderLibreTranslate}

// NewProvider builds the provider described by e.
func NewProvider(e ProviderEntry, client *http.Client) (translate.Provider, error) {
	switch e.Name {
	case ProviderLingva:
		return translate.NewLingva(e.URL, client), nil
	case ProviderMyMemory:
		return translate.NewMyMemory(e.URL, client), nil
	case ProviderLibreTranslate:
		return translate.NewLibreTranslate(e.URL, client), nil
	}
	return nil, fmt.Errorf("config: unknown translation provider %q", e.Name)
}

// Chain builds the translation chain.
func (c *Config) Chain(client *http.Client, logger zerolog.Logger) (*translate.Chain, error) {
	providers := make([]translate.Provider, 0, len(c.Translate.Providers))
	for _, e := range c.Translate.Providers {
		p, err := NewProvider(e, client)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	chain := translate.NewChain(translate.NewMemoryCache(c.Translate.CacheCapacity), providers...)
	chain.Timeout = c.Translate.Timeout
	chain.Logger = logger.With().Str("component", "translate").Logger()
	if c.Translate.DisableFallback {
		chain.Fallback = nil
	}
	return chain, nil
}

// Composer builds a composer for m. A nil rng gets a time-seeded source.
func (c *Config) Composer(m ModeConfig, tr augment.Translator, rng *rand.Rand, logger zerolog.Logger) (*augment.Composer, error) {
	mode, err := augment.ParseMode(m.Mode)
	if err != nil {
		return nil, err
	}
	comp := augment.NewComposer(tr, mode, rng)
	comp.Probability = m.Probability
	comp.MinSubstitutions = m.MinSubstitutions
	if m.MaxCandidates > 0 {
		comp.MaxCandidates = m.MaxCandidates
	}
	comp.Concurrency = c.Augment.Concurrency
	comp.Logger = logger.With().Str("component", "augment").Str("mode", mode.String()).Logger()
	return comp, nil
}

// FeedClient builds the upstream feed client.
func (c *Config) FeedClient(client *http.Client, logger zerolog.Logger) *feed.Client {
	fc := feed.NewClient(client, c.Feed.BaseURLs...)
	if len(c.Feed.Subreddits) > 0 {
		fc.Subreddits = c.Feed.Subreddits
	}
	if c.Feed.CacheTTL > 0 {
		fc.TTL = c.Feed.CacheTTL
	}
	fc.Logger = logger.With().Str("component", "feed").Logger()
	return fc
}
