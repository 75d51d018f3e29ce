package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultLingvaURL         = "https://lingva.ml/api/v1"
	DefaultMyMemoryURL       = "https://api.mymemory.translated.net/get"
	DefaultLibreTranslateURL = "https://libretranslate.de/translate"

	maxResponseBytes = 1 << 20
	userAgent        = "livepeek"
)

// httpProvider holds what every REST translator needs.
type httpProvider struct {
	BaseURL string
	Client  *http.Client
}

func (h httpProvider) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// do sends req and decodes a JSON body into v. Non-2xx statuses and
// malformed payloads are errors.
func (h httpProvider) do(req *http.Request, v any) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Lingva talks to a Lingva Translate instance.
type Lingva httpProvider

// NewLingva returns a Lingva provider for baseURL, or the public instance
// when baseURL is empty.
func NewLingva(baseURL string, client *http.Client) *Lingva {
	if baseURL == "" {
		baseURL = DefaultLingvaURL
	}
	return &Lingva{BaseURL: baseURL, Client: client}
}

func (l *Lingva) Name() string { return "lingva" }

func (l *Lingva) Translate(ctx context.Context, text, source, target string) (string, error) {
	u := fmt.Sprintf("%s/%s/%s/%s", l.BaseURL, url.PathEscape(source), url.PathEscape(target), url.PathEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Translation string `json:"translation"`
	}
	if err := httpProvider(*l).do(req, &out); err != nil {
		return "", fmt.Errorf("lingva: %w", err)
	}
	if out.Translation == "" {
		return "", fmt.Errorf("lingva: empty translation")
	}
	return out.Translation, nil
}

// MyMemory talks to the MyMemory translation memory API.
type MyMemory httpProvider

// NewMyMemory returns a MyMemory provider for baseURL, or the public API
// when baseURL is empty.
func NewMyMemory(baseURL string, client *http.Client) *MyMemory {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	return &MyMemory{BaseURL: baseURL, Client: client}
}

func (m *MyMemory) Name() string { return "mymemory" }

func (m *MyMemory) Translate(ctx context.Context, text, source, target string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", source+"|"+target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	var out struct {
		ResponseStatus json.Number `json:"responseStatus"`
		ResponseData   *struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := httpProvider(*m).do(req, &out); err != nil {
		return "", fmt.Errorf("mymemory: %w", err)
	}
	// responseStatus arrives as either a number or a numeric string
	if out.ResponseStatus.String() != "200" || out.ResponseData == nil {
		return "", fmt.Errorf("mymemory: response status %q", out.ResponseStatus.String())
	}
	return out.ResponseData.TranslatedText, nil
}

// LibreTranslate talks to a LibreTranslate instance.
type LibreTranslate httpProvider

// NewLibreTranslate returns a LibreTranslate provider for baseURL, or the
// public instance when baseURL is empty.
func NewLibreTranslate(baseURL string, client *http.Client) *LibreTranslate {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	return &LibreTranslate{BaseURL: baseURL, Client: client}
}

func (l *LibreTranslate) Name() string { return "libretranslate" }

func (l *LibreTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := httpProvider(*l).do(req, &out); err != nil {
		return "", fmt.Errorf("libretranslate: %w", err)
	}
	return out.TranslatedText, nil
}

