package helpers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://shop.example.com/ro/laptops?page=2")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/ro/phones", ResolveURL(base, "phones"))
	assert.Equal(t, "https://shop.example.com/deals", ResolveURL(base, "/deals#top"))
	assert.Equal(t, "https://cdn.example.net/x", ResolveURL(base, "https://cdn.example.net/x"))
	assert.Equal(t, "", ResolveURL(base, "  "))
	assert.Equal(t, "", ResolveURL(nil, "/a"))
}

func TestWithinBase(t *testing.T) {
	base, _ := url.Parse("https://shop.example.com/ro/")
	root, _ := url.Parse("https://shop.example.com")

	assert.True(t, WithinBase(base, "https://shop.example.com/ro/laptops"))
	assert.True(t, WithinBase(base, "https://SHOP.example.com/ro"))
	assert.False(t, WithinBase(base, "https://shop.example.com/en/laptops"))
	assert.False(t, WithinBase(base, "https://shop.example.com/roman"))
	assert.False(t, WithinBase(base, "http://shop.example.com/ro/laptops"))
	assert.False(t, WithinBase(root, "https://shop.example.com.evil.net/ro"))
	assert.True(t, WithinBase(root, "https://shop.example.com/anything"))
}

func TestSameHost(t *testing.T) {
	base, _ := url.Parse("https://shop.example.com/ro/")
	assert.True(t, SameHost(base, "http://shop.example.com/p/1"))
	assert.False(t, SameHost(base, "https://other.example.com/p/1"))
}

func TestIsNavigableHref(t *testing.T) {
	assert.True(t, IsNavigableHref("/products/usb-cable"))
	assert.False(t, IsNavigableHref("#reviews"))
	assert.False(t, IsNavigableHref("JavaScript:void(0)"))
	assert.False(t, IsNavigableHref("mailto:shop@example.com"))
	assert.False(t, IsNavigableHref("tel:+40700000000"))
	assert.False(t, IsNavigableHref(""))
}

func TestNormalizeSpaceAndTruncate(t *testing.T) {
	assert.Equal(t, "USB cable 2m", NormalizeSpace("\n  USB   cable\t2m  "))
	assert.Equal(t, "Căști", Truncate("Căști wireless", 5))
	assert.Equal(t, "short", Truncate("short", 10))
}
