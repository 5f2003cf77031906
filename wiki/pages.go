package wiki

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const listAllPages = "system:list-all-pages"

// PageCount lê o paginador de system:list-all-pages ("page 1 of N").
// Sem paginador o site cabe em uma página só.
func (c *Client) PageCount(ctx context.Context) (int, error) {
	doc, err := c.document(ctx, c.URL(listAllPages))
	if err != nil {
		return 0, err
	}
	return parsePageCount(doc.Find(".pager-no").First().Text()), nil
}

func parsePageCount(pager string) int {
	_, total, ok := strings.Cut(pager, " of ")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PageLinks devolve os href internos (começando com "/") de uma página.
func (c *Client) PageLinks(ctx context.Context, rawURL string) ([]string, error) {
	doc, err := c.document(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.HasPrefix(href, "/") {
			links = append(links, href)
		}
	})
	return links, nil
}

// AllPageLinks percorre todas as páginas de system:list-all-pages e devolve os
// links sem repetição, na ordem em que aparecem.
func (c *Client) AllPageLinks(ctx context.Context) ([]string, error) {
	total, err := c.PageCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)
	for i := 1; i <= total; i++ {
		pageLinks, err := c.PageLinks(ctx, c.URL(listAllPages, "p", strconv.Itoa(i)))
		if err != nil {
			return nil, fmt.Errorf("list page %d/%d: %w", i, total, err)
		}
		for _, l := range pageLinks {
			if _, dup := seen[l]; dup {
				continue
			}
			seen[l] = struct{}{}
			links = append(links, l)
		}
	}

	c.log.Debug("listed wiki pages", zap.Int("pages", total), zap.Int("links", len(links)))
	return links, nil
}

// PageSource devolve o texto de #page-content de uma página.
func (c *Client) PageSource(ctx context.Context, page string) (string, error) {
	page = strings.Trim(strings.TrimSpace(page), "/")
	if page == "" {
		return "", fmt.Errorf("page name is required")
	}

	doc, err := c.document(ctx, c.URL(page))
	if err != nil {
		return "", err
	}
	content := doc.Find("#page-content").First()
	if content.Length() == 0 {
		return "", fmt.Errorf("page %q has no #page-content", page)
	}
	return strings.TrimSpace(content.Text()), nil
}
