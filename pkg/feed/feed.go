// Package feed reads posts and comments from Reddit's public JSON API.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/livepeek/pkg/reading"
	"github.com/japaniel/livepeek/pkg/script"
)

const (
	DefaultTTL   = 5 * time.Minute
	DefaultSort  = "hot"
	MaxBodyRunes = 300

	maxResponseBytes = 8 << 20
	userAgent        = "livepeek/0.1"
)

var (
	// DefaultBaseURLs are tried in order until one answers.
	DefaultBaseURLs = []string{"https://www.reddit.com", "https://api.reddit.com"}

	DefaultSubreddits = []string{"japan", "LearnJapanese", "newsokur", "japanlife", "japantravel", "JapanTravel"}
)

// ErrNotFound is returned by GetPost when no post has the requested id.
var ErrNotFound = errors.New("post not found")

// Post is a submission reduced to what the reader shows.
type Post struct {
	ID           string    `json:"id"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"createdAt"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Score        int       `json:"score"`
	CommentCount int       `json:"commentCount"`
	Permalink    string    `json:"permalink"`
	PreviewImage string    `json:"previewImage,omitempty"`
	URL          string    `json:"url,omitempty"`
	Subreddit    string    `json:"subreddit"`
	Flair        string    `json:"flair"`
	Tags         []string  `json:"tags"`
	Difficulty   int       `json:"difficulty"`
}

// ExternalURL is the post's address on reddit.com.
func (p Post) ExternalURL() string {
	return "https://www.reddit.com" + p.Permalink
}

// HasJapanese reports whether the title or body contains Japanese.
func (p Post) HasJapanese() bool {
	return script.HasJapanese(p.Title + " " + p.Body)
}

// Comment is a reply under a post.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client fetches listings. Responses are cached for TTL.
type Client struct {
	BaseURLs   []string
	Subreddits []string
	HTTP       *http.Client
	TTL        time.Duration
	Logger     zerolog.Logger

	once  sync.Once
	cache *expirable.LRU[string, any]
}

// NewClient returns a client for baseURLs, or DefaultBaseURLs when none are
// given.
func NewClient(httpClient *http.Client, baseURLs ...string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if len(baseURLs) == 0 {
		baseURLs = DefaultBaseURLs
	}
	return &Client{
		BaseURLs:   baseURLs,
		Subreddits: DefaultSubreddits,
		HTTP:       httpClient,
		TTL:        DefaultTTL,
		Logger:     zerolog.Nop(),
	}
}

// responses returns the response cache, built on first use so that TTL can
// be set after NewClient. A non-positive TTL disables caching.
func (c *Client) responses() *expirable.LRU[string, any] {
	c.once.Do(func() {
		if c.TTL > 0 {
			c.cache = expirable.NewLRU[string, any](0, nil, c.TTL)
		}
	})
	return c.cache
}

func (c *Client) cached(key string) (any, bool) {
	if lru := c.responses(); lru != nil {
		return lru.Get(key)
	}
	return nil, false
}

func (c *Client) store(key string, val any) {
	if lru := c.responses(); lru != nil {
		lru.Add(key, val)
	}
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	if lru := c.responses(); lru != nil {
		lru.Purge()
	}
}

// getJSON tries each base URL in turn and decodes the first successful
// response into v.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	query.Set("raw_json", "1")
	var lastErr error
	for _, base := range c.BaseURLs {
		u := strings.TrimSuffix(base, "/") + path + "?" + query.Encode()
		if err := c.fetch(ctx, u, v); err != nil {
			c.Logger.Debug().Str("url", u).Err(err).Msg("feed endpoint failed, trying next")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no base URLs configured")
	}
	return fmt.Errorf("fetch %s: %w", path, lastErr)
}

func (c *Client) fetch(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type listing struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type imageRef struct {
	URL string `json:"url"`
}

type rawPost struct {
	ID            string  `json:"id"`
	Author        string  `json:"author"`
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	Subreddit     string  `json:"subreddit"`
	Thumbnail     string  `json:"thumbnail"`
	LinkFlairText string  `json:"link_flair_text"`
	CreatedUTC    float64 `json:"created_utc"`
	Ups           int     `json:"ups"`
	NumComments   int     `json:"num_comments"`
	Stickied      bool    `json:"stickied"`
	Preview       *struct {
		Images []struct {
			Source      imageRef   `json:"source"`
			Resolutions []imageRef `json:"resolutions"`
		} `json:"images"`
	} `json:"preview"`
}

type rawComment struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Ups        int     `json:"ups"`
	CreatedUTC float64 `json:"created_utc"`
}

func unixTime(sec float64) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func toPost(raw rawPost) Post {
	author := raw.Author
	if author == "" {
		author = "anonymous"
	}
	flair := raw.LinkFlairText
	if flair == "" {
		flair = raw.Subreddit
	}
	body := Truncate(raw.Selftext, MaxBodyRunes)
	if body == "" {
		body = raw.Title
	}
	return Post{
		ID:           raw.ID,
		Author:       author,
		CreatedAt:    unixTime(raw.CreatedUTC),
		Title:        raw.Title,
		Body:         body,
		Score:        raw.Ups,
		CommentCount: raw.NumComments,
		Permalink:    raw.Permalink,
		PreviewImage: previewImage(raw),
		URL:          raw.URL,
		Subreddit:    raw.Subreddit,
		Flair:        flair,
		Tags:         ExtractTags(raw.Title, raw.Selftext),
		Difficulty:   script.EstimateDifficulty(raw.Title, raw.Selftext),
	}
}

var imageURL = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// previewImage picks a medium preview resolution, then the full-size
// source, then a direct image link, then the thumbnail.
func previewImage(raw rawPost) string {
	if raw.Preview != nil && len(raw.Preview.Images) > 0 {
		img := raw.Preview.Images[0]
		u := img.Source.URL
		if n := len(img.Resolutions); n > 0 {
			if m := img.Resolutions[min(n-1, 3)].URL; m != "" {
				u = m
			}
		}
		if u != "" {
			return strings.ReplaceAll(u, "&amp;", "&")
		}
	}
	if imageURL.MatchString(raw.URL) {
		return raw.URL
	}
	if strings.HasPrefix(raw.Thumbnail, "http") {
		return raw.Thumbnail
	}
	return ""
}

// FetchSubreddit returns up to limit posts of a subreddit listing. Stickied
// posts are skipped.
func (c *Client) FetchSubreddit(ctx context.Context, subreddit string, limit int, order string) ([]Post, error) {
	if order == "" {
		order = DefaultSort
	}
	key := fmt.Sprintf("r/%s/%s/%d", subreddit, order, limit)
	if v, ok := c.cached(key); ok {
		return v.([]Post), nil
	}

	var l listing
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/r/"+url.PathEscape(subreddit)+"/"+order+".json", q, &l); err != nil {
		return nil, err
	}

	var posts []Post
	for _, th := range l.Data.Children {
		var raw rawPost
		if err := json.Unmarshal(th.Data, &raw); err != nil {
			c.Logger.Debug().Err(err).Str("subreddit", subreddit).Msg("skipping malformed post")
			continue
		}
		if raw.Stickied || strings.TrimSpace(raw.Title) == "" {
			continue
		}
		posts = append(posts, toPost(raw))
	}
	c.store(key, posts)
	return posts, nil
}

// FetchPosts reads every configured subreddit concurrently and merges the
// results: posts with Japanese text first, then by score, without
// duplicates and capped at limit. A subreddit that fails is skipped; an error
// is returned only if all of them fail.
func (c *Client) FetchPosts(ctx context.Context, perSubreddit, limit int) ([]Post, error) {
	subs := c.Subreddits
	results := make([][]Post, len(subs))
	errs := make([]error, len(subs))

	var g errgroup.Group
	for i, sub := range subs {
		g.Go(func() error {
			posts, err := c.FetchSubreddit(ctx, sub, perSubreddit, DefaultSort)
			if err != nil {
				c.Logger.Warn().Err(err).Str("subreddit", sub).Msg("subreddit fetch failed")
				errs[i] = err
				return nil
			}
			results[i] = posts
			return nil
		})
	}
	_ = g.Wait()

	var all []Post
	failed := 0
	for i := range subs {
		if errs[i] != nil {
			failed++
		}
		all = append(all, results[i]...)
	}
	if len(subs) > 0 && failed == len(subs) {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		ji, jj := all[i].HasJapanese(), all[j].HasJapanese()
		if ji != jj {
			return ji
		}
		return all[i].Score > all[j].Score
	})

	seen := make(map[string]bool, len(all))
	out := make([]Post, 0, min(len(all), limit))
	for _, p := range all {
		if len(out) >= limit {
			break
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

// GetPost fetches a single post by its id (without the t3_ prefix).
func (c *Client) GetPost(ctx context.Context, id string) (Post, error) {
	var l listing
	q := url.Values{"id": {"t3_" + strings.TrimPrefix(id, "t3_")}}
	if err := c.getJSON(ctx, "/api/info.json", q, &l); err != nil {
		return Post{}, err
	}
	for _, th := range l.Data.Children {
		var raw rawPost
		if err := json.Unmarshal(th.Data, &raw); err != nil {
			return Post{}, fmt.Errorf("decode post: %w", err)
		}
		return toPost(raw), nil
	}
	return Post{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func removed(s string) bool {
	return s == "" || s == "[deleted]" || s == "[removed]" || s == "deleted"
}

// FetchComments returns up to limit top-level comments for the post at
// permalink. Deleted and removed comments are dropped.
func (c *Client) FetchComments(ctx context.Context, permalink string, limit int) ([]Comment, error) {
	if permalink == "" {
		return nil, nil
	}
	key := fmt.Sprintf("comments:%s:%d", permalink, limit)
	if v, ok := c.cached(key); ok {
		return v.([]Comment), nil
	}

	// the response is a pair of listings: the post, then its comments
	var pair []listing
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, strings.TrimSuffix(permalink, "/")+".json", q, &pair); err != nil {
		return nil, err
	}
	if len(pair) < 2 {
		return nil, nil
	}

	var comments []Comment
	for _, th := range pair[1].Data.Children {
		if th.Kind != "t1" {
			continue
		}
		var raw rawComment
		if err := json.Unmarshal(th.Data, &raw); err != nil {
			continue
		}
		if removed(raw.Author) || removed(raw.Body) {
			continue
		}
		comments = append(comments, Comment{
			ID:        raw.ID,
			Author:    raw.Author,
			Body:      raw.Body,
			Score:     raw.Ups,
			CreatedAt: unixTime(raw.CreatedUTC),
		})
		if limit > 0 && len(comments) == limit {
			break
		}
	}
	c.store(key, comments)
	return comments, nil
}

// ArticleText downloads the page a link post points to and returns its
// readable text.
func (c *Client) ArticleText(ctx context.Context, pageURL string) (reading.Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return reading.Article{}, fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return reading.Article{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return reading.Article{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return reading.Article{}, fmt.Errorf("fetch article: %s", resp.Status)
	}
	page, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reading.Article{}, fmt.Errorf("read article: %w", err)
	}
	return reading.ExtractArticle(page, u)
}

// TimeAgo renders the age of t relative to now.
func TimeAgo(t, now time.Time) string {
	s := int(now.Sub(t).Seconds())
	switch {
	case s < 60:
		return fmt.Sprintf("%d seconds ago", max(s, 0))
	case s < 3600:
		return fmt.Sprintf("%d minutes ago", s/60)
	case s < 86400:
		return fmt.Sprintf("%d hours ago", s/3600)
	case s < 2592000:
		return fmt.Sprintf("%d days ago", s/86400)
	}
	return fmt.Sprintf("%d months ago", s/2592000)
}

var tagKeywords = []struct {
	tag      string
	keywords []string
}{
	{"グルメ", []string{"food", "restaurant", "食べ物", "料理", "ラーメン", "sushi"}},
	{"culture", []string{"culture", "文化", "伝統", "tradition"}},
	{"travel", []string{"travel", "旅行", "観光", "tourist"}},
	{"language", []string{"日本語", "japanese", "language", "学習"}},
	{"news", []string{"news", "ニュース", "報道"}},
	{"lifestyle", []string{"life", "生活", "lifestyle"}},
	{"fashion", []string{"fashion", "ファッション", "style"}},
	{"technology", []string{"tech", "技術", "technology"}},
}

// ExtractTags returns hashtags for the topics a post mentions, or #japan.
func ExtractTags(title, body string) []string {
	text := strings.ToLower(title + " " + body)
	var tags []string
	for _, tk := range tagKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, "#"+tk.tag)
				break
			}
		}
	}
	if len(tags) == 0 {
		return []string{"#japan"}
	}
	return tags
}
