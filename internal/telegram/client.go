// Package telegram – Bot API client
//
// This file implements the outbound half of the messaging gateway. Every
// method performs a single JSON POST against the Bot API with a context
// deadline; failures are logged and returned to the caller, never retried
// here. Deleting an already-gone message is the one exception: the API
// reports it as an error, but callers treat it as invariant repair.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmoran/go-movie-channel/internal/config"
)

// ErrUnavailable means the Bot API could not be reached.
var ErrUnavailable = errors.New("telegram: service unavailable")

// APIError is a Bot API rejection (ok=false), e.g. "message to delete not
// found". It is distinct from ErrUnavailable so callers can decide what is
// repairable.
type APIError struct {
	Code        int
	Description string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: api error %d: %s", e.Code, e.Description)
}

// Client talks to the Telegram Bot API on behalf of one bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.TelegramConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.APIBaseURL,
		token:      cfg.BotToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "telegram").Logger(),
	}
}

// SendOptions carries the optional parts of an outbound message.
type SendOptions struct {
	ParseMode   string // "HTML" for formatted captions
	ReplyMarkup any    // *InlineKeyboardMarkup or *ReplyKeyboardMarkup
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// SendMessage delivers a text message and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (int64, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	applyOptions(payload, opts)

	var msg Message
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendPhoto delivers a photo (by URL) with a caption and returns the new
// message id.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts *SendOptions) (int64, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   photoURL,
		"caption": caption,
	}
	applyOptions(payload, opts)

	var msg Message
	if err := c.call(ctx, "sendPhoto", payload, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// DeleteMessage removes a previously sent message. An APIError (e.g. the
// message is already gone) is returned as-is; callers decide whether that
// matters.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
}

// EditMessageText replaces the text of a previously sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	return c.call(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}, nil)
}

// AnswerCallbackQuery acknowledges a button press, optionally with a popup.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
		payload["show_alert"] = showAlert
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// applyOptions folds SendOptions into the request payload.
func applyOptions(payload map[string]any, opts *SendOptions) {
	if opts == nil {
		return
	}
	if opts.ParseMode != "" {
		payload["parse_mode"] = opts.ParseMode
	}
	if opts.ReplyMarkup != nil {
		payload["reply_markup"] = opts.ReplyMarkup
	}
}

// call posts one Bot API method and decodes the result envelope into out
// (when non-nil). Transport failures map to ErrUnavailable, API rejections
// to *APIError.
func (c *Client) call(ctx context.Context, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Msg("telegram request failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.log.Error().Err(err).Str("method", method).Msg("telegram response decode failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !env.OK {
		c.log.Warn().Int("code", env.ErrorCode).Str("method", method).Str("description", env.Description).
			Msg("telegram api rejected call")
		return &APIError{Code: env.ErrorCode, Description: env.Description}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}
