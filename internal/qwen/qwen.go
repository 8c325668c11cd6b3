// Package qwen is a minimal client for the DashScope application
// completion API used by Qwen application endpoints.
package qwen

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

	"github.com/Maksimnp/TelegramBotQwen/internal/history"
)

// DefaultBaseURL is the international DashScope endpoint.
const DefaultBaseURL = "https://dashscope-intl.aliyuncs.com/api/v1"

// ErrNoOutput reports a reply that arrived without a usable output text.
// The caller treats it as "no response", not as a transport failure.
var ErrNoOutput = errors.New("qwen: response missing output text")

// Client calls a single DashScope application identified by its app ID.
type Client struct {
	apiKey     string
	appID      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Qwen application client. The API key is the static
// credential loaded once at process start.
func NewClient(apiKey, appID, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		appID:   appID,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type completionInput struct {
	Prompt   string         `json:"prompt"`
	Messages []history.Turn `json:"messages"`
}

type completionRequest struct {
	Input      completionInput `json:"input"`
	Parameters struct{}        `json:"parameters"`
}

type completionResponse struct {
	Output *struct {
		Text string `json:"text"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// Complete sends the prompt plus the full ordered message list and returns
// the reply text. A reply without an output text yields ErrNoOutput.
func (c *Client) Complete(ctx context.Context, prompt string, messages []history.Turn) (string, error) {
	reqBody := completionRequest{
		Input: completionInput{
			Prompt:   prompt,
			Messages: messages,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal qwen request: %w", err)
	}

	url := fmt.Sprintf("%s/apps/%s/completion", c.baseURL, c.appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create qwen request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qwen request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading qwen response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("qwen non-success status=%d body=%s", resp.StatusCode, truncate(string(body), 400))
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse qwen response: %s", truncate(string(body), 400))
	}

	if parsed.Output == nil || parsed.Output.Text == "" {
		return "", ErrNoOutput
	}
	return parsed.Output.Text, nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
