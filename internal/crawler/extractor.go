package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sjsage522/pricewatcher/helpers"
	"sjsage522/pricewatcher/internal/price"
	"sjsage522/pricewatcher/logger"
	apperrors "sjsage522/pricewatcher/pkg/errors"
)

// Extractor derives products from listing pages of an unknown shop
type Extractor struct {
	base     *url.URL
	patterns Patterns
	parser   price.Parser
	excluded []string
	log      *logger.Logger
}

// NewExtractor creates an extractor that only emits products hosted on baseURL
func NewExtractor(baseURL string, patterns Patterns, excluded []string) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("invalid base URL %q", baseURL), err)
	}
	return &Extractor{
		base:     base,
		patterns: patterns,
		parser:   price.Default,
		excluded: lowerAll(excluded),
		log:      logger.ForExtractor(),
	}, nil
}

// Extract parses body and returns the products it lists. A page without
// recognizable containers returns an empty list and no error.
func (e *Extractor) Extract(body []byte, pageURL string) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewParsing(pageURL, "failed to parse HTML", err)
	}
	return e.FromDocument(doc, pageURL), nil
}

// FromDocument extracts products from an already parsed page
func (e *Extractor) FromDocument(doc *goquery.Document, pageURL string) []Product {
	pageBase, err := url.Parse(pageURL)
	if err != nil {
		pageBase = e.base
	}

	containers := e.containers(doc)
	if len(containers) == 0 {
		e.log.Debug().Err(apperrors.NewStructure(pageURL, "no container pattern matched")).Msg("No containers found")
		return nil
	}

	seen := make(map[string]bool)
	var products []Product
	var reasons map[string]int
	if logger.IsDebugEnabled() {
		reasons = make(map[string]int)
	}
	skipped := 0
	for _, c := range containers {
		product, reason := e.product(c, pageBase)
		if reason != "" {
			skipped++
			if reasons != nil {
				reasons[reason]++
			}
			continue
		}
		if seen[product.URL] {
			continue
		}
		seen[product.URL] = true
		products = append(products, product)
	}

	e.log.Debug().
		Str("url", pageURL).
		Int("containers", len(containers)).
		Int("products", len(products)).
		Int("skipped", skipped).
		Interface("skip_reasons", reasons).
		Msg("Extracted products")

	return products
}

func (e *Extractor) containers(doc *goquery.Document) []*goquery.Selection {
	if matches, _, ok := e.patterns.Containers.First(doc.Selection, e.patterns.MinContainers); ok {
		out := make([]*goquery.Selection, 0, matches.Length())
		matches.Each(func(_ int, s *goquery.Selection) {
			out = append(out, s)
		})
		return out
	}
	return e.fallbackContainers(doc)
}

// fallbackContainers climbs from every product-like link to its nearest block
// ancestor and keeps the ones whose text looks priced.
func (e *Extractor) fallbackContainers(doc *goquery.Document) []*goquery.Selection {
	tokens := append(append([]string{}, e.patterns.CurrencyTokens...), ",", ".")

	seen := make(map[*html.Node]bool)
	var out []*goquery.Selection
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.ToLower(a.AttrOr("href", ""))
		if helpers.ContainsAny(href, []string{"#", "javascript:", "mailto:"}) {
			return
		}

		parent := a.ParentsFiltered(e.patterns.BlockElements).First()
		if parent.Length() == 0 {
			return
		}
		node := parent.Get(0)
		if seen[node] {
			return
		}

		text := strings.ToLower(parent.Text())
		if hasDigit(text) && helpers.ContainsAny(text, tokens) {
			seen[node] = true
			out = append(out, parent)
		}
	})
	return out
}

// product returns the product in c, or a non-empty reason it was skipped
func (e *Extractor) product(c *goquery.Selection, pageBase *url.URL) (Product, string) {
	title, titleEl := e.title(c)
	if title == "" {
		return Product{}, "no title"
	}

	link := e.link(c, titleEl, pageBase)
	if link == "" {
		return Product{}, "no link"
	}
	if !helpers.SameHost(e.base, link) {
		return Product{}, "off-site link"
	}
	if helpers.ContainsAny(strings.ToLower(link), e.excluded) {
		return Product{}, "excluded"
	}

	value, ok := e.price(c)
	if !ok {
		return Product{}, "no price"
	}

	return Product{Title: title, Price: value, URL: link}, ""
}

// title prefers a title attribute over element text and falls back to the
// longest link text in the container.
func (e *Extractor) title(c *goquery.Selection) (string, *goquery.Selection) {
	for _, selector := range e.patterns.Titles {
		el := c.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		text := helpers.NormalizeSpace(el.AttrOr("title", ""))
		if text == "" {
			text = helpers.NormalizeSpace(el.Text())
		}
		if utf8.RuneCountInString(text) > e.patterns.MinTitleLength {
			return text, el
		}
	}

	var best string
	var bestEl *goquery.Selection
	c.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := helpers.NormalizeSpace(a.Text())
		n := utf8.RuneCountInString(text)
		if n > e.patterns.MinLinkTitleLength && n > utf8.RuneCountInString(best) {
			best, bestEl = text, a
		}
	})
	return best, bestEl
}

func (e *Extractor) link(c *goquery.Selection, titleEl *goquery.Selection, pageBase *url.URL) string {
	if titleEl != nil && goquery.NodeName(titleEl) == "a" {
		if href := titleEl.AttrOr("href", ""); helpers.IsNavigableHref(href) {
			return helpers.ResolveURL(pageBase, href)
		}
	}

	var link string
	c.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if len(href) > e.patterns.MinLinkLength && helpers.IsNavigableHref(href) {
			link = helpers.ResolveURL(pageBase, href)
			return false
		}
		return true
	})
	return link
}

func (e *Extractor) price(c *goquery.Selection) (float64, bool) {
	for _, selector := range e.patterns.Prices {
		var value float64
		var found bool
		c.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := helpers.NormalizeSpace(el.Text())
			if text == "" {
				text = el.AttrOr("data-price", el.AttrOr("content", ""))
			}
			if text == "" || e.isNoise(text) {
				return true
			}
			value, found = e.parser.Parse(text)
			return !found
		})
		if found {
			return value, true
		}
	}

	tokens := append(append([]string{}, e.patterns.CurrencyTokens...), ",")
	for _, text := range textNodes(c) {
		lower := strings.ToLower(text)
		if !hasDigit(lower) || !helpers.ContainsAny(lower, tokens) || e.isNoise(lower) {
			continue
		}
		if value, ok := e.parser.Parse(text); ok {
			return value, true
		}
	}
	return 0, false
}

// isNoise reports percentages and discount or eco-tax wording
func (e *Extractor) isNoise(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "%") || helpers.ContainsAny(lower, e.patterns.PriceNoise)
}

// textNodes returns the trimmed non-empty text nodes under s in document order
func textNodes(s *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := helpers.NormalizeSpace(n.Data); text != "" {
				out = append(out, text)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return out
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
