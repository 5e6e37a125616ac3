// internal/adapters/wiki/client.go
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spot_explorer/internal/adapters/httpx"
	"spot_explorer/internal/shared"
)

// Client talks to Wikipedia (Action API + REST), Wikidata and Commons.
// It is safe for concurrent use.
type Client struct {
	cfg  shared.WikiConfig
	http *httpx.Retrier
}

func New(cfg shared.WikiConfig) (*Client, error) {
	if cfg.WikipediaAPI == "" || cfg.WikidataAPI == "" || cfg.CommonsAPI == "" {
		return nil, fmt.Errorf("wiki: API endpoints are required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "spot-explorer/1.0"
	}
	return &Client{
		cfg:  cfg,
		http: httpx.NewRetrier(cfg.Timeout, cfg.RPS, cfg.MaxRetries),
	}, nil
}

var (
	ErrNotFound     = errors.New("wiki: not found")
	ErrUnauthorized = errors.New("wiki: unauthorized")
	ErrForbidden    = errors.New("wiki: forbidden")
)

// apiError is the {"error":{...}} envelope of the Action API. It arrives
// with status 200.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string { return fmt.Sprintf("wiki api: %s: %s", e.Code, e.Info) }

// ---- URL builders ----

func withLang(base, lang string) string { return strings.ReplaceAll(base, "{lang}", lang) }

func (c *Client) wikipediaURL(lang string, q url.Values) string {
	q.Set("format", "json")
	return withLang(c.cfg.WikipediaAPI, lang) + "?" + q.Encode()
}

func (c *Client) restURL(lang string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, strings.TrimRight(withLang(c.cfg.WikipediaREST, lang), "/"))
	for i, s := range segments {
		if i == len(segments)-1 {
			s = url.PathEscape(s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "/")
}

func (c *Client) wikidataURL(q url.Values) string {
	q.Set("format", "json")
	return c.cfg.WikidataAPI + "?" + q.Encode()
}

func (c *Client) commonsURL(q url.Values) string {
	q.Set("format", "json")
	return c.cfg.CommonsAPI + "?" + q.Encode()
}

// ---- Internals ----

// getJSON performs a GET through the shared retrier and decodes into out.
// endpoint only labels metrics.
func (c *Client) getJSON(ctx context.Context, service, endpoint, rawURL string, out any) error {
	err := c.http.Do(ctx, service, endpoint, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		return req, nil
	}, func(body io.Reader) error {
		return decode(body, out)
	})
	return statusErr(err)
}

func statusErr(err error) error {
	var se *httpx.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	return err
}

// decode reads the body once so an Action API error envelope can be told
// apart from a real payload.
func decode(r io.Reader, out any) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var env struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(b, &env) == nil && env.Error != nil && env.Error.Code != "" {
		if env.Error.Code == "missingtitle" || env.Error.Code == "nosuchpageid" {
			return ErrNotFound
		}
		return env.Error
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
