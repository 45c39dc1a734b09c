package crawler

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricewatcher/helpers"
	"sjsage522/pricewatcher/logger"
)

// SortedURL appends the ascending-price sort parameter to a category URL
func SortedURL(categoryURL, sortParam string) string {
	if sortParam == "" {
		return categoryURL
	}
	if strings.Contains(categoryURL, "?") {
		return categoryURL + "&" + sortParam
	}
	return categoryURL + "?" + sortParam
}

// Paginator enumerates the pages of a category
type Paginator struct {
	fetcher  Fetcher
	patterns Patterns
	log      *logger.Logger
}

// NewPaginator creates a paginator using the given fetcher
func NewPaginator(fetcher Fetcher, patterns Patterns) *Paginator {
	return &Paginator{
		fetcher:  fetcher,
		patterns: patterns,
		log:      logger.ForExtractor(),
	}
}

// Pages returns the sorted category URL followed by every distinct in-domain
// pagination link found on it. A fetch failure yields just the first page.
func (p *Paginator) Pages(ctx context.Context, categoryURL string) []string {
	first := SortedURL(categoryURL, p.patterns.SortParam)

	body, err := p.fetcher.Fetch(ctx, first)
	if err != nil {
		p.log.Debug().Err(err).Str("url", first).Msg("Pagination discovery failed")
		return []string{first}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return []string{first}
	}

	return p.FromDocument(doc, first)
}

// FromDocument lists pages from an already parsed first page
func (p *Paginator) FromDocument(doc *goquery.Document, first string) []string {
	pages := []string{first}

	base, err := url.Parse(first)
	if err != nil {
		return pages
	}

	links, _, ok := p.patterns.Pagination.First(doc.Selection, 1)
	if !ok {
		return pages
	}

	seen := map[string]bool{first: true}
	links.Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if href == "" || href == "#" || strings.HasPrefix(lower, "javascript:") {
			return
		}

		resolved := helpers.ResolveURL(base, href)
		if resolved == "" || !helpers.SameHost(base, resolved) || seen[resolved] {
			return
		}
		seen[resolved] = true
		pages = append(pages, resolved)
	})

	return pages
}
