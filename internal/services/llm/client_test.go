package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func choiceServer(t *testing.T, choice map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}}); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func noRetry() Option {
	return WithRetry(1, 0, 0)
}

func TestCompleteJSONSendsPromptsAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "reelcut" {
			t.Errorf("unexpected title header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" || len(req.Messages) != 2 || req.Messages[1].Content != "rank these" {
			t.Errorf("unexpected request %+v", req)
		}
		if req.ResponseFormat["type"] != "json_object" {
			t.Errorf("expected json response format, got %v", req.ResponseFormat)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"clips":[]}`}}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: " test ", BaseURL: server.URL, Model: "demo-model", Title: "reelcut"})
	content, err := client.CompleteJSON(context.Background(), "You rank clips.", "  rank these  ")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"clips":[]}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteJSONValidatesInputs(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.CompleteJSON(context.Background(), "", "user"); err == nil {
		t.Fatal("expected system prompt error")
	}
	if _, err := client.CompleteJSON(context.Background(), "system", " "); err == nil {
		t.Fatal("expected user prompt error")
	}
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestResponseShapes(t *testing.T) {
	tests := []struct {
		name   string
		choice map[string]any
	}{
		{"code fence", map[string]any{"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"}}},
		{"delta", map[string]any{"delta": map[string]any{"content": `{"ok":true}`}}},
		{"legacy text", map[string]any{"text": `{"ok":true}`}},
		{"tool call", map[string]any{"message": map[string]any{
			"content":    "",
			"tool_calls": []any{map[string]any{"function": map[string]any{"arguments": `{"ok":true}`}}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := choiceServer(t, tt.choice)
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}, noRetry())
			if err := client.HealthCheck(context.Background()); err != nil {
				t.Fatalf("HealthCheck: %v", err)
			}
		})
	}
}

func TestHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	var slept int
	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"},
		WithSleeper(func(time.Duration) { slept++ }))
	err := client.HealthCheck(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if slept != 0 {
		t.Fatalf("401 must not be retried, slept %d times", slept)
	}
}

func TestRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"ok":true}`}}},
		})
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetry(5, 0, 10*time.Second),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestEmptyContentRetriesThenFails(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"finish_reason": "length", "message": map[string]any{"content": ""}}},
		})
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetry(3, 0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), `finish_reason="length"`) {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetry(5, time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := client.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out struct {
		Clips []int `json:"clips"`
	}
	if err := DecodeLLMJSON("Here you go:\n{\"clips\":[1,2]}\nThanks!", &out); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if len(out.Clips) != 2 {
		t.Fatalf("unexpected decode %+v", out)
	}
	if err := DecodeLLMJSON("   ", &out); err == nil {
		t.Fatal("expected empty payload error")
	}
	if err := DecodeLLMJSON("no json here", &out); err == nil || !strings.Contains(err.Error(), "payload snippet") {
		t.Fatalf("expected snippet in error, got %v", err)
	}
}
