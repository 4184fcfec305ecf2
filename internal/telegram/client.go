package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"order-relay/internal/domain"
)

// API is the Bot API surface the rest of the service depends on.
type API interface {
	SendMessage(ctx context.Context, req SendRequest) (int, error)
	EditMessageText(ctx context.Context, chatID string, messageID int, text string, markup *domain.ReplyMarkup) error
	EditMessageReplyMarkup(ctx context.Context, chatID string, messageID int, markup *domain.ReplyMarkup) error
	DeleteMessage(ctx context.Context, chatID string, messageID int) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error)
}

// SendRequest is the body of sendMessage. ReplyTo of 0 means no reply.
type SendRequest struct {
	ChatID      string              `json:"chat_id"`
	Text        string              `json:"text"`
	ParseMode   string              `json:"parse_mode,omitempty"`
	ReplyMarkup *domain.ReplyMarkup `json:"reply_markup,omitempty"`
	ReplyTo     int                 `json:"reply_to_message_id,omitempty"`
}

type Client struct {
	base string // https://api.telegram.org/bot<token>
	hc   *http.Client
}

func New(apiBaseURL, botToken string) *Client {
	return &Client{
		base: fmt.Sprintf("%s/bot%s", apiBaseURL, botToken),
		hc:   &http.Client{Timeout: 45 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, method string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+method, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("telegram %s: decode response: %w", method, err)
		}
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, req SendRequest) (int, error) {
	var out sendMessageResponse
	if err := c.post(ctx, "sendMessage", req, &out); err != nil {
		return 0, err
	}
	if !out.Ok || out.Result == nil {
		return 0, fmt.Errorf("telegram sendMessage: ok=false")
	}
	return out.Result.MessageID, nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID string, messageID int, text string, markup *domain.ReplyMarkup) error {
	body := map[string]any{"chat_id": chatID, "message_id": messageID, "text": text}
	if markup != nil {
		body["reply_markup"] = markup
	}
	var out apiResponse
	if err := c.post(ctx, "editMessageText", body, &out); err != nil {
		return err
	}
	if !out.Ok {
		return fmt.Errorf("telegram editMessageText: %s", out.Description)
	}
	return nil
}

func (c *Client) EditMessageReplyMarkup(ctx context.Context, chatID string, messageID int, markup *domain.ReplyMarkup) error {
	body := map[string]any{"chat_id": chatID, "message_id": messageID, "reply_markup": markup}
	var out apiResponse
	if err := c.post(ctx, "editMessageReplyMarkup", body, &out); err != nil {
		return err
	}
	if !out.Ok {
		return fmt.Errorf("telegram editMessageReplyMarkup: %s", out.Description)
	}
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, chatID string, messageID int) error {
	body := map[string]any{"chat_id": chatID, "message_id": messageID}
	var out apiResponse
	if err := c.post(ctx, "deleteMessage", body, &out); err != nil {
		return err
	}
	if !out.Ok {
		return fmt.Errorf("telegram deleteMessage: %s", out.Description)
	}
	return nil
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	body := map[string]any{"callback_query_id": callbackID, "text": text, "show_alert": showAlert}
	return c.post(ctx, "answerCallbackQuery", body, nil)
}

func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	u := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=%d", c.base, offset, timeoutSec)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram getUpdates: status %d: %s", resp.StatusCode, raw)
	}
	var out getUpdatesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("telegram getUpdates: decode response: %w", err)
	}
	if !out.Ok {
		return nil, fmt.Errorf("telegram getUpdates: ok=false")
	}
	return out.Result, nil
}

// SetWebhook registers webhookURL for update delivery.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	u := fmt.Sprintf("%s/setWebhook?url=%s", c.base, url.QueryEscape(webhookURL))
	return c.get(ctx, u)
}

// DeleteWebhook removes a registered webhook so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.get(ctx, c.base+"/deleteWebhook")
}

func (c *Client) get(ctx context.Context, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, raw)
	}
	return nil
}
