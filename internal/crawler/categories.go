package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricewatcher/helpers"
	"sjsage522/pricewatcher/logger"
	apperrors "sjsage522/pricewatcher/pkg/errors"
)

// CategoryDiscoverer finds category listing URLs from the site navigation
type CategoryDiscoverer struct {
	fetcher  Fetcher
	base     *url.URL
	patterns Patterns
	excluded []string
	log      *logger.Logger
}

// NewCategoryDiscoverer creates a discoverer rooted at baseURL
func NewCategoryDiscoverer(fetcher Fetcher, baseURL string, patterns Patterns, excluded []string) (*CategoryDiscoverer, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("invalid base URL %q", baseURL), err)
	}
	return &CategoryDiscoverer{
		fetcher:  fetcher,
		base:     base,
		patterns: patterns,
		excluded: lowerAll(excluded),
		log:      logger.ForExtractor(),
	}, nil
}

// Discover fetches the home page and returns the category URLs in document
// order. A fetch failure or a page without navigation yields an empty list.
func (d *CategoryDiscoverer) Discover(ctx context.Context) []string {
	body, err := d.fetcher.Fetch(ctx, d.base.String())
	if err != nil {
		d.log.Error().Err(err).Str("url", d.base.String()).Msg("Failed to fetch home page")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		d.log.Error().Err(err).Msg("Failed to parse home page")
		return nil
	}

	categories := d.FromDocument(doc)
	d.log.Info().Int("count", len(categories)).Msg("Discovered categories")
	return categories
}

// FromDocument extracts category URLs from an already parsed home page
func (d *CategoryDiscoverer) FromDocument(doc *goquery.Document) []string {
	links, selector, ok := d.patterns.Navigation.First(doc.Selection, 1)
	if !ok {
		d.log.Warn().Err(apperrors.NewStructure(d.base.String(), "no navigation pattern matched")).Msg("No navigation links found")
		return nil
	}
	d.log.Debug().Str("selector", selector).Int("links", links.Length()).Msg("Navigation pattern matched")

	seen := make(map[string]bool)
	var categories []string
	links.Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || href == "#" || href == "/" {
			return
		}

		resolved := helpers.ResolveURL(d.base, href)
		if resolved == "" || !helpers.WithinBase(d.base, resolved) {
			return
		}

		lower := strings.ToLower(resolved)
		if helpers.ContainsAny(lower, d.patterns.CategoryDenylist) || helpers.ContainsAny(lower, d.excluded) {
			return
		}
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		categories = append(categories, resolved)
	})

	return categories
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
