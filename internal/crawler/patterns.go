package crawler

import (
	"github.com/PuerkitoBio/goquery"
)

// SelectorChain is an ordered list of CSS selectors evaluated first-match-wins
type SelectorChain []string

// First returns the matches of the first selector yielding at least min
// elements, along with that selector.
func (c SelectorChain) First(root *goquery.Selection, min int) (*goquery.Selection, string, bool) {
	if min < 1 {
		min = 1
	}
	for _, selector := range c {
		matches := root.Find(selector)
		if matches.Length() >= min {
			return matches, selector, true
		}
	}
	return nil, "", false
}

// Patterns holds the heuristics used to read an unknown shop. New site
// conventions are added here, not in the extraction code.
type Patterns struct {
	// Navigation selectors locate category links on the home page
	Navigation SelectorChain
	// Pagination selectors locate page links on a category page
	Pagination SelectorChain
	// Containers selectors locate product cards
	Containers SelectorChain
	// Titles selectors locate the product title inside a card
	Titles SelectorChain
	// Prices selectors locate the price inside a card
	Prices SelectorChain

	// MinContainers is the number of matches a container selector needs
	MinContainers int
	// MinTitleLength is the length a selector-based title must exceed
	MinTitleLength int
	// MinLinkTitleLength is the length a link-text title must exceed
	MinLinkTitleLength int
	// MinLinkLength is the length a product href must exceed
	MinLinkLength int

	// BlockElements are the ancestors considered as fallback containers
	BlockElements string
	// CategoryDenylist rejects navigation links that are not categories
	CategoryDenylist []string
	// PriceNoise rejects price text such as discount badges
	PriceNoise []string
	// CurrencyTokens mark text that probably carries a price
	CurrencyTokens []string

	// SortParam is appended to a category URL to sort by ascending price
	SortParam string
}

// DefaultPatterns returns the built-in heuristics
func DefaultPatterns() Patterns {
	return Patterns{
		Navigation: SelectorChain{
			"nav a",
			".navigation a",
			".menu a",
			".nav-menu a",
			"header nav a",
			".category-menu a",
			".main-nav a",
			"#menu a",
			"ul.menu a",
		},
		Pagination: SelectorChain{
			".pagination a",
			".pager a",
			`a[rel="next"]`,
			".page-numbers a",
			"nav.pagination a",
			"ul.pagination a",
		},
		Containers: SelectorChain{
			".product",
			".product-item",
			".product-card",
			"article.product",
			".item-product",
			"[data-product-id]",
			".grid-item",
			".product-listing-item",
			`[class*="product"]`,
			`article[class*="item"]`,
			`div[class*="grid"]`,
		},
		Titles: SelectorChain{
			"h2 a", "h3 a", "h4 a", "h2", "h3", "h4",
			".product-title", ".product-name", ".title",
			"a.product-link", "a[title]", ".name",
		},
		Prices: SelectorChain{
			".product__info--price-gross",
			".price",
			".product-price",
			"span.price",
			".price-current",
			"[data-price]",
			`[class*="price"]`,
			`span[class*="price"]`,
		},

		MinContainers:      3,
		MinTitleLength:     5,
		MinLinkTitleLength: 10,
		MinLinkLength:      5,

		BlockElements: "div, article, li, section",
		CategoryDenylist: []string{
			"account", "cart", "checkout", "login", "register", "signup",
			"forgot", "password", "orders", "order", "return", "returns",
			"blog", "testimonials", "contact", "about", "terms", "conditions",
			"policy", "privacy", "delivery", "shipping", "payment", "payments",
			"map", "search", "wishlist", "wish-list", "favorites", "favourites",
			"newsletter", "subscribe", "cookies", "how-to-buy", "faq",
			"price-guarantee", "loyalty", "rewards", "points",
			"size-guide", "size-chart", "info", "information",
		},
		PriceNoise:     []string{"discount", "save", "saving", "eco"},
		CurrencyTokens: []string{"lei", "ron", "$", "€", "£", "¥", "₹"},

		SortParam: "sort_by=price_asc",
	}
}
