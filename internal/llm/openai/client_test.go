package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coverletter-backend/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	oldURL := apiURL
	apiURL = server.URL
	t.Cleanup(func() {
		apiURL = oldURL
		server.Close()
	})
}

func TestCompleteSendsSystemAndJSONFormat(t *testing.T) {
	var payload map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"overallScore\":80} "}}],"usage":{"total_tokens":12}}`))
	})

	client, err := NewClient("test-key", "gpt-4o-mini", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Complete(context.Background(), llm.Request{System: "sys", Prompt: "score this", JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"overallScore":80}` {
		t.Fatalf("unexpected content %q", out)
	}

	messages, _ := payload["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", payload["messages"])
	}
	format, _ := payload["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json response format, got %v", payload["response_format"])
	}
	if payload["temperature"] != float64(0) {
		t.Fatalf("expected temperature 0 for JSON calls, got %v", payload["temperature"])
	}
}

func TestCompleteOmitsTemperatureForGPT5(t *testing.T) {
	var payload map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Dear Hiring Manager,"}}]}`))
	})

	client, _ := NewClient("test-key", "gpt-5-mini", 0)
	if _, err := client.Complete(context.Background(), llm.Request{Prompt: "write"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, ok := payload["temperature"]; ok {
		t.Fatal("expected temperature to be omitted for gpt-5 models")
	}
	if _, ok := payload["response_format"]; ok {
		t.Fatal("expected no response format for text calls")
	}
}

func TestCompleteSurfacesHTTPStatus(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	client, _ := NewClient("test-key", "gpt-4o-mini", 0)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "write"})
	if err == nil || !strings.Contains(err.Error(), "http status 502") {
		t.Fatalf("expected http status error, got %v", err)
	}
	if !llm.ShouldRetry(err) {
		t.Fatal("expected 5xx to be retryable")
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "gpt-4o", 0); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := NewClient("key", " ", 0); err == nil {
		t.Fatal("expected error without model")
	}
}
