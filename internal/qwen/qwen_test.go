package qwen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Maksimnp/TelegramBotQwen/internal/history"
)

func TestComplete_SendsFullMessageList(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"output":{"text":"Hi there"},"request_id":"req-1"}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", "app-1", srv.URL, 2*time.Second)
	msgs := []history.Turn{
		{Role: history.RoleUser, Content: "earlier"},
		{Role: history.RoleAssistant, Content: "context"},
		{Role: history.RoleUser, Content: "Hello"},
	}
	text, err := c.Complete(context.Background(), "Hello", msgs)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "Hi there" {
		t.Fatalf("unexpected reply text: %q", text)
	}
	if gotPath != "/apps/app-1/completion" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}

	var req struct {
		Input struct {
			Prompt   string `json:"prompt"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		} `json:"input"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("request body not JSON: %v", err)
	}
	if req.Input.Prompt != "Hello" {
		t.Fatalf("unexpected prompt: %q", req.Input.Prompt)
	}
	if len(req.Input.Messages) != 3 {
		t.Fatalf("expected all 3 messages sent, got %d", len(req.Input.Messages))
	}
	if req.Input.Messages[0].Content != "earlier" || req.Input.Messages[2].Content != "Hello" {
		t.Fatalf("message order not preserved: %#v", req.Input.Messages)
	}
}

func TestComplete_MissingOutput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no_output_field", `{"request_id":"req-2"}`},
		{"empty_text", `{"output":{"text":""}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			c := NewClient("k", "app", srv.URL, 2*time.Second)
			_, err := c.Complete(context.Background(), "hi", nil)
			if !errors.Is(err, ErrNoOutput) {
				t.Fatalf("expected ErrNoOutput, got %v", err)
			}
		})
	}
}

func TestComplete_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"message":"Throttling"}`)
	}))
	defer srv.Close()

	c := NewClient("k", "app", srv.URL, 2*time.Second)
	_, err := c.Complete(context.Background(), "hi", nil)
	if err == nil || errors.Is(err, ErrNoOutput) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
