package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"northwind-chat/internal/types"
)

func completionServer(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		resp := openai.ChatCompletionResponse{
			ID:     "cmpl-1",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestLLMServiceWrapsAnswer(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := completionServer(t, "  Chai leads sales at $13,000.  ", &seen)
	defer srv.Close()

	svc := NewLLMService("sk-test", srv.URL+"/v1", "llama-3.1-8b-instant", LLMOptions{System: "be brief"})
	body, err := svc.Ask(context.Background(), "top product?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var reply types.ChatResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	if reply.Response != "Chai leads sales at $13,000." || reply.VisualizationType != "text" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if seen.Model != "llama-3.1-8b-instant" || len(seen.Messages) != 2 {
		t.Fatalf("unexpected request %+v", seen)
	}
	if seen.Messages[0].Role != openai.ChatMessageRoleSystem || seen.Messages[1].Content != "top product?" {
		t.Fatalf("unexpected messages %+v", seen.Messages)
	}
}

func TestLLMServiceEmptyCompletion(t *testing.T) {
	srv := completionServer(t, "   ", nil)
	defer srv.Close()

	_, err := NewLLMService("sk-test", srv.URL+"/v1", "m", LLMOptions{}).Ask(context.Background(), "q")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestLLMServiceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := NewLLMService("bad", srv.URL+"/v1", "m", LLMOptions{}).Ask(context.Background(), "q")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}
