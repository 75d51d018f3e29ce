package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 8 * time.Second

// Chain tries its providers in order and returns the first acceptable
// answer. Accepted answers are cached. When every provider declines the
// static word table is applied instead, and that result is not cached.
//
// Chain is safe for concurrent use. Identical requests in flight at the same
// time share one upstream attempt.
type Chain struct {
	providers []Provider
	cache     Cache
	group     singleflight.Group

	// Timeout bounds each provider call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Fallback is applied when every provider declines. Nil disables it.
	Fallback *StaticTable
	Logger   zerolog.Logger
}

// NewChain creates a chain over providers in priority order. A nil cache
// gets an unbounded MemoryCache.
func NewChain(cache Cache, providers ...Provider) *Chain {
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	return &Chain{
		providers: providers,
		cache:     cache,
		Timeout:   DefaultTimeout,
		Fallback:  NewStaticTable(),
		Logger:    zerolog.Nop(),
	}
}

// Cache returns the chain's cache.
func (c *Chain) Cache() Cache { return c.cache }

// Translate returns the best available translation of text. It only fails
// for malformed language codes; otherwise the worst case is text unchanged.
func (c *Chain) Translate(ctx context.Context, text, source, target string) (string, error) {
	res, err := c.Lookup(ctx, Request{Text: text, Source: source, Target: target})
	if err != nil {
		return text, err
	}
	return res.TranslatedText, nil
}

// Lookup is Translate with the provenance of the answer attached.
func (c *Chain) Lookup(ctx context.Context, req Request) (Result, error) {
	if err := ValidateLanguage(req.Source); err != nil {
		return Result{SourceText: req.Text, TranslatedText: req.Text}, err
	}
	if err := ValidateLanguage(req.Target); err != nil {
		return Result{SourceText: req.Text, TranslatedText: req.Text}, err
	}

	// Trimmed text is the cache and provider key; callers that get nothing
	// better back receive their input as given.
	original := req.Text
	req = req.Normalize()
	if req.Text == "" || req.Source == req.Target {
		return Result{SourceText: original, TranslatedText: original}, nil
	}

	if tr, ok := c.cache.Get(req); ok {
		return Result{SourceText: req.Text, TranslatedText: tr, Provider: ProviderCache, Success: true}, nil
	}

	ch := c.group.DoChan(req.key(), func() (any, error) {
		return c.ask(context.WithoutCancel(ctx), req), nil
	})
	select {
	case r := <-ch:
		if res := r.Val.(Result); res.Success {
			return res, nil
		}
	case <-ctx.Done():
		c.Logger.Debug().Str("text", req.Text).Err(ctx.Err()).Msg("translation abandoned")
	}
	return c.fallback(req, original), nil
}

// ask walks the providers and caches the first acceptable answer.
func (c *Chain) ask(ctx context.Context, req Request) Result {
	for _, p := range c.providers {
		out, err := c.call(ctx, p, req)
		if err != nil {
			c.Logger.Debug().Str("provider", p.Name()).Str("text", req.Text).Err(err).Msg("provider declined, trying next")
			continue
		}
		out = strings.TrimSpace(out)
		if !Acceptable(req.Text, out, true) {
			c.Logger.Debug().Str("provider", p.Name()).Str("text", req.Text).Str("output", out).Msg("rejected degenerate translation")
			continue
		}
		c.cache.Put(req, out)
		return Result{SourceText: req.Text, TranslatedText: out, Provider: p.Name(), Success: true}
	}
	if len(c.providers) > 0 {
		c.Logger.Warn().Str("text", req.Text).Str("source", req.Source).Str("target", req.Target).Msg("all translation providers failed")
	}
	return Result{SourceText: req.Text, TranslatedText: req.Text}
}

func (c *Chain) call(ctx context.Context, p Provider, req Request) (out string, err error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Translate(ctx, req.Text, req.Source, req.Target)
}

// fallback consults the static table and otherwise returns original.
func (c *Chain) fallback(req Request, original string) Result {
	res := Result{SourceText: original, TranslatedText: original}
	if c.Fallback == nil {
		return res
	}
	out := c.Fallback.Translate(req.Text, req.Source, req.Target)
	if Acceptable(req.Text, out, false) {
		res.TranslatedText = out
		res.Provider = ProviderStatic
	}
	return res
}
