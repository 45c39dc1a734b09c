package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricewatcher/config"
	"sjsage522/pricewatcher/services/dedup"
)

const homeHTML = `<!DOCTYPE html>
<html>
<body>
    <header>
        <nav>
            <a href="/cables">Cables</a>
            <a href="/broken">Broken</a>
            <a href="/cart">Cart</a>
            <a href="/gift-cards">Gift cards</a>
        </nav>
    </header>
</body>
</html>`

const cablesPage1 = `<!DOCTYPE html>
<html>
<body>
    <div class="grid">
        <div class="product-item">
            <h3><a href="/p/usb-c">USB-C cable 1m</a></h3>
            <span class="price">9,99 lei</span>
        </div>
        <div class="product-item">
            <h3><a href="/p/hdmi">HDMI cable 2m</a></h3>
            <span class="price">4.50 lei</span>
        </div>
        <div class="product-item">
            <h3><a href="/p/lightning">Lightning adapter</a></h3>
            <span class="price">1,00 lei</span>
        </div>
        <div class="product-item">
            <h3><a href="/p/mystery">Mystery bundle</a></h3>
            <span class="badge">-20%</span>
        </div>
    </div>
    <ul class="pagination">
        <li><a href="#">1</a></li>
        <li><a href="/cables?sort_by=price_asc&page=2">2</a></li>
    </ul>
</body>
</html>`

const cablesPage2 = `<!DOCTYPE html>
<html>
<body>
    <div class="product-item"><h3><a href="/p/dock">Docking station</a></h3><span class="price">149,00 lei</span></div>
    <div class="product-item"><h3><a href="/p/hub">USB hub 7 ports</a></h3><span class="price">59,90 lei</span></div>
    <div class="product-item"><h3><a href="/p/reel">Cable reel 25m</a></h3><span class="price">1.299,00 lei</span></div>
</body>
</html>`

// fakeTelegram records sendMessage calls
type fakeTelegram struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || !strings.HasSuffix(r.URL.Path, "/sendMessage") {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.messages = append(f.messages, payload.Text)
	f.mu.Unlock()
	w.Write([]byte(`{"ok":true}`))
}

func (f *fakeTelegram) take() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.messages
	f.messages = nil
	return out
}

func countAlerts(messages []string) int {
	n := 0
	for _, m := range messages {
		if strings.Contains(m, "CHEAP PRODUCT FOUND") {
			n++
		}
	}
	return n
}

func newShop(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, homeHTML)
		case "/cables":
			assert.Equal(t, "price_asc", r.URL.Query().Get("sort_by"))
			if r.URL.Query().Get("page") == "2" {
				fmt.Fprint(w, cablesPage2)
				return
			}
			fmt.Fprint(w, cablesPage1)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, shopURL, telegramURL, seenFile string) *config.Config {
	t.Helper()
	cfg := config.LoadConfig()
	cfg.BaseURL = shopURL
	cfg.MaxPrice = 10
	cfg.Workers = 2
	cfg.RequestDelay = 0
	cfg.RequestTimeout = 2 * time.Second
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	cfg.SeenStore = "file"
	cfg.SeenFile = seenFile
	cfg.MemcacheAddr = ""
	cfg.RedisStream = ""
	cfg.StatusAddr = ""
	cfg.TelegramEnabled = true
	cfg.TelegramToken = "test-token"
	cfg.TelegramChatID = "1"
	cfg.TelegramAPIURL = telegramURL
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestEndToEndScan(t *testing.T) {
	shop := newShop(t)
	telegram := &fakeTelegram{}
	telegramServer := httptest.NewServer(telegram)
	defer telegramServer.Close()

	seenFile := filepath.Join(t.TempDir(), "seen.json")
	cfg := testConfig(t, shop.URL, telegramServer.URL, seenFile)

	ctx := context.Background()
	services, err := initializeServices(ctx, cfg)
	require.NoError(t, err)
	defer services.Cleanup()

	// First cycle: three cheap products, one broken category
	first := services.Worker.RunCycle(ctx)
	assert.Equal(t, 2, first.Categories)
	assert.Equal(t, 3, first.Checked)
	assert.Equal(t, 3, first.Found)
	assert.Equal(t, 1, first.ErrorCategories)

	messages := telegram.take()
	assert.Equal(t, 3, countAlerts(messages))
	require.Len(t, messages, 4)
	assert.Contains(t, messages[3], "Categories with errors: 1")

	// Immediate re-run: nothing new
	second := services.Worker.RunCycle(ctx)
	assert.Equal(t, 0, second.Found)
	assert.Equal(t, 0, countAlerts(telegram.take()))

	// The seen set survives a restart
	persisted := dedup.NewStore(ctx, dedup.NewFileBackend(seenFile))
	assert.Equal(t, 3, persisted.Len())
	assert.True(t, persisted.Seen(shop.URL+"/p/usb-c_9.99"))

	restarted, err := initializeServices(ctx, cfg)
	require.NoError(t, err)
	defer restarted.Cleanup()

	third := restarted.Worker.RunCycle(ctx)
	assert.Equal(t, 0, third.Found)
	assert.Equal(t, 0, countAlerts(telegram.take()))
}

func TestInitializeServicesRequiresRedisForRedisStore(t *testing.T) {
	cfg := testConfig(t, "https://shop.example.com", "http://127.0.0.1:1", filepath.Join(t.TempDir(), "seen.json"))
	cfg.SeenStore = "redis"
	cfg.RedisAddr = ""

	_, err := initializeServices(context.Background(), cfg)
	assert.Error(t, err)
}
