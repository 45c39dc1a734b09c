package crawler

import (
	"context"
	"strconv"
)

// Product is a listing extracted from a category page
type Product struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

// SeenKey identifies an alert: the same URL at a new price is a new alert
func (p Product) SeenKey() string {
	return SeenKey(p.URL, p.Price)
}

// SeenKey builds the dedup identity for a product URL and price
func SeenKey(url string, price float64) string {
	return url + "_" + strconv.FormatFloat(price, 'f', 2, 64)
}

// Fetcher retrieves the raw body of a page
type Fetcher interface {
	// Fetch returns the UTF-8 body of url or a typed error once retries are exhausted
	Fetch(ctx context.Context, url string) ([]byte, error)
}
