package crawler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// MockFetcher serves canned pages keyed by URL
type MockFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	called []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (m *MockFetcher) Page(url, body string) *MockFetcher {
	m.pages[url] = body
	return m
}

func (m *MockFetcher) Fail(url string, err error) *MockFetcher {
	m.errs[url] = err
	return m
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called = append(m.called, url)
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	if body, ok := m.pages[url]; ok {
		return []byte(body), nil
	}
	return nil, &mockError{message: "not found: " + url}
}

func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.called...)
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

func mustDocument(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}
