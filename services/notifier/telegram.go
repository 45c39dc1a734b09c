package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "sjsage522/pricewatcher/pkg/errors"
)

// DefaultTelegramAPI is the Bot API endpoint
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier posts messages through the Telegram Bot API
type TelegramNotifier struct {
	client  *http.Client
	apiBase string
	token   string
	chatID  string
}

// NewTelegramNotifier creates a notifier for chatID using the bot token
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: DefaultTelegramAPI,
		token:   token,
		chatID:  chatID,
	}
}

// WithAPIBase points the notifier at another Bot API endpoint
func (t *TelegramNotifier) WithAPIBase(base string) *TelegramNotifier {
	t.apiBase = base
	return t
}

// WithClient replaces the HTTP client
func (t *TelegramNotifier) WithClient(client *http.Client) *TelegramNotifier {
	t.client = client
	return t
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends text with sendMessage
func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text})
	if err != nil {
		return apperrors.NewNotify("telegram", "failed to encode message", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewNotify("telegram", "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// the request error carries the token in its URL
		return apperrors.NewNotify("telegram", "request failed", redact(err, t.token))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		var decoded sendMessageResponse
		_ = json.Unmarshal(body, &decoded)
		return apperrors.NewNotify("telegram",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, decoded.Description), nil)
	}
	return nil
}

// Close releases idle connections
func (t *TelegramNotifier) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), secret, "***"))
}
