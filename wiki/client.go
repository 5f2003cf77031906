package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// DefaultBaseURL é o wiki raspado quando nada é configurado.
const DefaultBaseURL = "https://deep-forest-club.wikidot.com"

// ErrForeignURL: URL fora do host do wiki configurado.
var ErrForeignURL = errors.New("url is not on the configured wiki host")

// StatusError é devolvido quando o wiki responde algo diferente de 200.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// Waiter segura uma busca até o host ter vez (ver infra.Pacer).
type Waiter interface {
	Wait(ctx context.Context, host string) error
}

type Client struct {
	base  *url.URL
	http  *http.Client
	pacer Waiter
	log   *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithPacer(w Waiter) Option {
	return func(c *Client) { c.pacer = w }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse wiki base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("wiki base url must be absolute http(s): %q", baseURL)
	}
	if base.Path == "" {
		base.Path = "/"
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL monta uma URL do wiki a partir de segmentos de caminho.
func (c *Client) URL(elem ...string) string {
	return c.base.JoinPath(elem...).String()
}

// OwnsURL indica se raw aponta para o mesmo host do wiki.
func (c *Client) OwnsURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && strings.EqualFold(u.Host, c.base.Host)
}

func (c *Client) document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, u.Host); err != nil {
			return nil, fmt.Errorf("pace %s: %w", u.Host, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}
