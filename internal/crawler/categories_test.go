package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homePage = `<html><body>
<header>
  <nav>
    <a href="/laptops">Laptops</a>
    <a href="/phones?brand=all">Phones</a>
    <a href="/laptops">Laptops again</a>
    <a href="/account/login">My account</a>
    <a href="/cart">Cart</a>
    <a href="/blog/news">Blog</a>
    <a href="https://other.example.net/cables">Partner</a>
    <a href="#">Top</a>
    <a href="/">Home</a>
    <a href="/gift-cards">Gift cards</a>
    <a href="accessories/cables">Cables</a>
  </nav>
</header>
<div class="menu"><a href="/tablets">Tablets</a></div>
</body></html>`

func TestDiscoverCategories(t *testing.T) {
	fetcher := NewMockFetcher().Page("https://shop.example.com", homePage)
	d, err := NewCategoryDiscoverer(fetcher, "https://shop.example.com", DefaultPatterns(), []string{"Gift-Card"})
	require.NoError(t, err)

	categories := d.Discover(context.Background())
	assert.Equal(t, []string{
		"https://shop.example.com/laptops",
		"https://shop.example.com/phones?brand=all",
		"https://shop.example.com/accessories/cables",
	}, categories)
}

func TestDiscoverCategoriesFirstMatchWins(t *testing.T) {
	page := `<html><body>
		<div class="navigation"><a href="/garden">Garden</a></div>
		<div class="menu"><a href="/kitchen">Kitchen</a></div>
	</body></html>`
	fetcher := NewMockFetcher().Page("https://shop.example.com", page)
	d, err := NewCategoryDiscoverer(fetcher, "https://shop.example.com", DefaultPatterns(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://shop.example.com/garden"}, d.Discover(context.Background()))
}

func TestDiscoverCategoriesRespectsBasePath(t *testing.T) {
	page := `<nav><a href="/ro/laptops">RO</a><a href="/en/laptops">EN</a></nav>`
	fetcher := NewMockFetcher().Page("https://shop.example.com/ro/", page)
	d, err := NewCategoryDiscoverer(fetcher, "https://shop.example.com/ro/", DefaultPatterns(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://shop.example.com/ro/laptops"}, d.Discover(context.Background()))
}

func TestDiscoverCategoriesDegradesToEmpty(t *testing.T) {
	fetcher := NewMockFetcher().
		Fail("https://down.example.com", errors.New("connection refused")).
		Page("https://plain.example.com", `<html><body><p>No navigation here</p></body></html>`)

	d, err := NewCategoryDiscoverer(fetcher, "https://down.example.com", DefaultPatterns(), nil)
	require.NoError(t, err)
	assert.Empty(t, d.Discover(context.Background()))

	d, err = NewCategoryDiscoverer(fetcher, "https://plain.example.com", DefaultPatterns(), nil)
	require.NoError(t, err)
	assert.Empty(t, d.Discover(context.Background()))
}

func TestNewCategoryDiscovererInvalidBase(t *testing.T) {
	_, err := NewCategoryDiscoverer(NewMockFetcher(), "not a url", DefaultPatterns(), nil)
	assert.Error(t, err)
}
