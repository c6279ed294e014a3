package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAICompleter(t *testing.T) {
	var gotPrompt, gotModel, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		if len(req.Messages) == 1 && req.Messages[0].Role == "user" {
			gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Paris"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAICompleter(OpenAIOptions{Endpoint: srv.URL + "/v1/", APIKey: "secret", Model: "gemini-2.5-flash"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Paris" {
		t.Errorf("out = %q", out)
	}
	if gotPrompt != "the prompt" || gotModel != "gemini-2.5-flash" {
		t.Errorf("request: model=%q prompt=%q", gotModel, gotPrompt)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()
	c, _ := NewOpenAICompleter(OpenAIOptions{Endpoint: srv.URL, Model: "m"})
	if _, err := c.Complete(context.Background(), "p"); err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("err = %v", err)
	}
}

func TestOpenAICompleter_HonorsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()
	c, _ := NewOpenAICompleter(OpenAIOptions{Endpoint: srv.URL, Model: "m"})
	g := New(c, WithTimeout(50*time.Millisecond))
	start := time.Now()
	if _, err := g.Generate(context.Background(), "q", nil); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Error("deadline was not honored")
	}
}

func TestNewOpenAICompleter_RequiresModel(t *testing.T) {
	if _, err := NewOpenAICompleter(OpenAIOptions{}); err == nil {
		t.Error("expected error without model")
	}
}
