// Package llm implements the chat collaborator against an
// OpenRouter-compatible chat completions API. Calls run behind a circuit
// breaker and a bounded timeout; the state machine substitutes its
// canned fallback whenever this package reports an error.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"kgraph/domain/core/valueobjects"
	"kgraph/pkg/errors"
)

const doneMarker = "[DONE]"

// Config configures the OpenRouter client
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenRouterClient talks to a chat completions endpoint
type OpenRouterClient struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewOpenRouterClient creates a client with its circuit breaker
func NewOpenRouterClient(cfg Config) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openrouter",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &OpenRouterClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
		Delta   wireMessage `json:"delta"`
	} `json:"choices"`
}

// Complete implements ports.ChatModel
func (c *OpenRouterClient) Complete(ctx context.Context, messages []valueobjects.ChatMessage) (string, error) {
	answer, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, messages)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", errors.NewUnavailableError("chat collaborator")
		}
		return "", err
	}
	return answer.(string), nil
}

func (c *OpenRouterClient) complete(ctx context.Context, messages []valueobjects.ChatMessage) (string, error) {
	resp, err := c.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.NewExternalError("openrouter", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.NewExternalError("openrouter", io.ErrUnexpectedEOF)
	}
	return out.Choices[0].Message.Content, nil
}

// StreamComplete implements ports.StreamingChatModel. Fragments arrive
// through onChunk in order; the returned answer is their concatenation,
// closed out by the end marker.
func (c *OpenRouterClient) StreamComplete(ctx context.Context, messages []valueobjects.ChatMessage, onChunk func(string)) (string, error) {
	answer, err := c.breaker.Execute(func() (interface{}, error) {
		return c.streamComplete(ctx, messages, onChunk)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", errors.NewUnavailableError("chat collaborator")
		}
		return "", err
	}
	return answer.(string), nil
}

func (c *OpenRouterClient) streamComplete(ctx context.Context, messages []valueobjects.ChatMessage, onChunk func(string)) (string, error) {
	resp, err := c.post(ctx, messages, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var answer strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == doneMarker {
			break
		}

		var chunk completionResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // tolerate malformed keep-alive frames
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		answer.WriteString(fragment)
		if onChunk != nil {
			onChunk(fragment)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.NewExternalError("openrouter", err)
	}
	if answer.Len() == 0 {
		return "", errors.NewExternalError("openrouter", io.ErrUnexpectedEOF)
	}
	return answer.String(), nil
}

func (c *OpenRouterClient) post(ctx context.Context, messages []valueobjects.ChatMessage, stream bool) (*http.Response, error) {
	wire := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	body, err := json.Marshal(completionRequest{
		Model:    c.cfg.Model,
		Messages: wire,
		Stream:   stream,
	})
	if err != nil {
		return nil, errors.NewInternalError("encode chat request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("build chat request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError("chat completion")
		}
		return nil, errors.NewExternalError("openrouter", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewExternalError("openrouter",
			errors.NewInternalError("unexpected status "+resp.Status))
	}
	return resp, nil
}
