// Package telegram is a minimal Telegram Bot API client covering the calls
// the relay needs: long-polling for updates, sending text, and deleting a
// previously sent message.
package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxMessageLen is the Bot API per-message character ceiling. Relay output
// is cut to this limit by the chunker before it reaches the client; the
// client itself never truncates.
const MaxMessageLen = 4096

// Client is a Telegram Bot API client bound to one bot token.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Telegram client for the given bot API base URL
// (e.g. "https://api.telegram.org/bot<token>").
func NewClient(apiBase string, requestTimeout time.Duration) *Client {
	return &Client{
		apiBase: apiBase,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Response is the generic Telegram API response wrapper.
type Response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// Chat identifies the conversation an update belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is an inbound or sent Telegram message.
type Message struct {
	MessageID int64   `json:"message_id"`
	Chat      Chat    `json:"chat"`
	Text      *string `json:"text,omitempty"`
	Date      int64   `json:"date"`
}

// Update is one long-poll update.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// GetUpdates calls the getUpdates API with the given offset and long-poll
// timeout in seconds.
func (c *Client) GetUpdates(offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeout))

	resp, err := c.httpClient.Get(c.apiBase + "/getUpdates?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read getUpdates response: %w", err)
	}

	var tgResp Response
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates response: %w", err)
	}

	if !tgResp.OK {
		return nil, fmt.Errorf("telegram getUpdates rejected: %s", tgResp.Description)
	}

	var updates []Update
	if err := json.Unmarshal(tgResp.Result, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates result: %w", err)
	}
	return updates, nil
}

// SendMessage sends a text message to the given chat and returns the sent
// message's ID, usable as a delivery handle for DeleteMessage.
func (c *Client) SendMessage(chatID int64, text string) (int64, error) {
	payload := fmt.Sprintf(`{"chat_id":%d,"text":%s}`, chatID, jsonString(text))

	resp, err := c.httpClient.Post(
		c.apiBase+"/sendMessage",
		"application/json",
		strings.NewReader(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("telegram sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read sendMessage response: %w", err)
	}

	var tgResp Response
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return 0, fmt.Errorf("failed to parse sendMessage response: %w", err)
	}
	if !tgResp.OK {
		return 0, fmt.Errorf("telegram sendMessage rejected: %s", tgResp.Description)
	}

	var sent Message
	if err := json.Unmarshal(tgResp.Result, &sent); err != nil {
		return 0, fmt.Errorf("failed to parse sendMessage result: %w", err)
	}
	return sent.MessageID, nil
}

// DeleteMessage removes a previously sent message. Used to clear the
// ephemeral "typing" placeholder once the real reply is out.
func (c *Client) DeleteMessage(chatID, messageID int64) error {
	payload := fmt.Sprintf(`{"chat_id":%d,"message_id":%d}`, chatID, messageID)

	resp, err := c.httpClient.Post(
		c.apiBase+"/deleteMessage",
		"application/json",
		strings.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("telegram deleteMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read deleteMessage response: %w", err)
	}

	var tgResp Response
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return fmt.Errorf("failed to parse deleteMessage response: %w", err)
	}
	if !tgResp.OK {
		return fmt.Errorf("telegram deleteMessage rejected: %s", tgResp.Description)
	}
	return nil
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
