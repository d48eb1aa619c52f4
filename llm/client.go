// LLMClient - Simple wrapper around providers.

package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client wraps a Provider with a simple interface.
type Client struct {
	provider Provider
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	content, _, err := c.ChatWithUsage(ctx, messages)
	return content, err
}

// ChatWithUsage sends a chat completion request and returns content with token usage.
// A blank reply is ErrEmptyResponse whichever provider produced it.
func (c *Client) ChatWithUsage(ctx context.Context, messages []ChatMessage) (string, *TokenUsage, error) {
	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", nil, err
	}
	if response.Content == "" {
		return "", response.Usage, fmt.Errorf("%s: %w", c.provider.Name(), ErrEmptyResponse)
	}
	return response.Content, response.Usage, nil
}

// StreamChat streams a chat completion.
func (c *Client) StreamChat(ctx context.Context, messages []ChatMessage, chunks chan<- string) (*TokenUsage, error) {
	return c.provider.StreamChat(ctx, messages, chunks)
}

// StreamText streams a chat completion, passing every chunk to onChunk, and
// returns the concatenated text. onChunk runs on the calling goroutine.
func (c *Client) StreamText(ctx context.Context, messages []ChatMessage, onChunk func(string) error) (string, *TokenUsage, error) {
	chunks := make(chan string, 16)
	type result struct {
		usage *TokenUsage
		err   error
	}
	done := make(chan result, 1)

	go func() {
		usage, err := c.provider.StreamChat(ctx, messages, chunks)
		close(chunks)
		done <- result{usage: usage, err: err}
	}()

	var sb strings.Builder
	var cbErr error
	for chunk := range chunks {
		sb.WriteString(chunk)
		if cbErr == nil && onChunk != nil {
			cbErr = onChunk(chunk)
		}
	}

	res := <-done
	if res.err != nil {
		return sb.String(), res.usage, res.err
	}
	if cbErr != nil {
		return sb.String(), res.usage, cbErr
	}
	if sb.Len() == 0 {
		return "", res.usage, fmt.Errorf("%s: stream ended without content: %w", c.provider.Name(), ErrEmptyResponse)
	}
	return sb.String(), res.usage, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}
