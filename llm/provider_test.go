// Wire and security tests for LLM providers.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-4o",
	"choices": [
		{"index": 0, "message": {"role": "assistant", "content": "first"}, "finish_reason": "stop"},
		{"index": 1, "message": {"role": "assistant", "content": "second"}, "finish_reason": "stop"}
	],
	"usage": {"prompt_tokens": 11, "completion_tokens": 7, "total_tokens": 18}
}`

// newCompletionServer serves canned chat completions and reports each decoded request.
func newCompletionServer(t *testing.T, status int, body string) (*httptest.Server, <-chan openai.ChatCompletionRequest) {
	t.Helper()
	requests := make(chan openai.ChatCompletionRequest, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			select {
			case requests <- req:
			default:
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, requests
}

func TestOpenAIChatUsesFirstChoice(t *testing.T) {
	srv, requests := newCompletionServer(t, http.StatusOK, completionBody)
	provider := NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", "gpt-4o", 100, 0.7)

	resp, err := provider.Chat(context.Background(), []ChatMessage{
		SystemMessage("be a tutor"),
		NamedUserMessage("student", "k-means"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "first" {
		t.Errorf("expected content of first choice, got %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 18 {
		t.Errorf("expected total tokens 18, got %+v", resp.Usage)
	}

	req := <-requests
	if req.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", req.Model)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != RoleSystem || req.Messages[0].Content != "be a tutor" {
		t.Errorf("unexpected system message: %+v", req.Messages[0])
	}
	if req.Messages[1].Role != RoleUser || req.Messages[1].Name != "student" {
		t.Errorf("unexpected user message: %+v", req.Messages[1])
	}
}

func TestOpenAIChatNoChoices(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`)
	provider := NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", "gpt-4o", 100, 0.7)

	_, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("test")})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIChatBlankContent(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusOK,
		`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"length"}]}`)
	provider := NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", "gpt-4o", 100, 0.7)

	_, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("test")})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIChatSendsMaxCompletionTokens(t *testing.T) {
	srv, requests := newCompletionServer(t, http.StatusOK, completionBody)
	provider := NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", "gpt-4o", 100, 0.7)

	if _, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("test")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := <-requests
	if req.MaxCompletionTokens != 100 {
		t.Errorf("expected max_completion_tokens 100, got %d", req.MaxCompletionTokens)
	}
	if req.MaxTokens != 0 {
		t.Errorf("expected max_tokens unset, got %d", req.MaxTokens)
	}
}

type blankProvider struct{}

func (blankProvider) Name() string  { return "blank" }
func (blankProvider) Model() string { return "blank-model" }

func (blankProvider) Chat(context.Context, []ChatMessage) (LLMResponse, error) {
	return LLMResponse{}, nil
}

func (blankProvider) StreamChat(context.Context, []ChatMessage, chan<- string) (*TokenUsage, error) {
	return nil, nil
}

func TestClientRejectsBlankReplies(t *testing.T) {
	client := NewClient(blankProvider{})

	if _, err := client.Chat(context.Background(), []ChatMessage{UserMessage("test")}); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Chat: expected ErrEmptyResponse, got %v", err)
	}

	_, _, err := client.StreamText(context.Background(), []ChatMessage{UserMessage("test")}, nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("StreamText: expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIStreamWithoutContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", "gpt-4o", 100, 0.7))

	text, _, err := client.StreamText(context.Background(), []ChatMessage{UserMessage("hi")}, nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
	if text != "" {
		t.Errorf("expected no text, got %q", text)
	}
}

func TestDeepSeekChatUsesCompatibleWire(t *testing.T) {
	srv, requests := newCompletionServer(t, http.StatusOK, completionBody)
	provider := newDeepSeekProvider("sk-test", srv.URL+"/v1", ModelDeepSeekChat, 100, 0.7)

	resp, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("test")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "first" {
		t.Errorf("expected 'first', got %q", resp.Content)
	}

	req := <-requests
	if req.MaxCompletionTokens != 100 {
		t.Errorf("expected max_completion_tokens 100, got %d", req.MaxCompletionTokens)
	}
}

func TestOpenAIStreamChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2,\"total_tokens\":5}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", "gpt-4o", 100, 0.7))

	var seen []string
	text, usage, err := client.StreamText(context.Background(), []ChatMessage{UserMessage("hi")}, func(chunk string) error {
		seen = append(seen, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Hello" {
		t.Errorf("expected 'Hello', got %q", text)
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(seen))
	}
	if usage == nil || usage.TotalTokens != 5 {
		t.Errorf("expected total tokens 5, got %+v", usage)
	}
}

// TestOpenAIErrorNoAPIKeyLeak verifies OpenAI errors don't contain API keys
func TestOpenAIErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-test-invalid-key-12345xyz"
	srv, _ := newCompletionServer(t, http.StatusUnauthorized,
		`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	provider := NewOpenAIProviderWithBaseURL(testKey, srv.URL+"/v1", "gpt-4o", 100, 0.7)

	_, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("test")})
	if err == nil {
		t.Fatal("expected error with rejected API key")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("OpenAI error message leaked API key: %v", errStr)
	}
	if strings.Contains(errStr, "Authorization:") {
		t.Errorf("OpenAI error exposed Authorization header: %v", errStr)
	}
}

// TestAnthropicErrorNoAPIKeyLeak verifies Anthropic errors don't contain API keys
func TestAnthropicErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-ant-REDACTED"
	provider := NewAnthropicProvider(testKey, ModelAnthropicClaudeSonnet4, 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")})
	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("Anthropic error message leaked API key: %v", errStr)
	}
	if strings.Contains(errStr, "x-api-key:") || strings.Contains(errStr, "X-API-Key:") {
		t.Errorf("Anthropic error exposed API key header: %v", errStr)
	}
}

// TestGeminiInitErrorPreserved verifies Gemini returns initialization errors
func TestGeminiInitErrorPreserved(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	provider := NewGeminiProvider("", ModelGeminiFlash25, 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")})
	if err == nil {
		t.Fatal("Expected initialization error to be returned, got nil")
	}
	if !strings.Contains(err.Error(), "failed to initialize") {
		t.Errorf("Expected initialization error, got: %v", err)
	}
}

func TestConvertToAnthropicMessagesExtractsSystem(t *testing.T) {
	msgs, system := convertToAnthropicMessages([]ChatMessage{
		SystemMessage("instructions"),
		UserMessage("topic"),
		AssistantMessage("answer"),
	})

	if system != "instructions" {
		t.Errorf("expected system 'instructions', got %q", system)
	}
	if len(msgs) != 2 {
		t.Errorf("expected 2 messages, got %d", len(msgs))
	}
}

func TestConvertToGeminiMessagesExtractsSystem(t *testing.T) {
	contents, system := convertToGeminiMessages([]ChatMessage{
		SystemMessage("instructions"),
		UserMessage("topic"),
	})

	if system != "instructions" {
		t.Errorf("expected system 'instructions', got %q", system)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("expected role user, got %q", contents[0].Role)
	}
}
