// Package provider defines the unified interface and shared types for
// the model endpoints that serve next-edit completions. Each adapter
// (openai.go, anthropic.go) normalizes its vendor's streaming response
// into a unified Event sequence; the engine consumes the stream as
// plain response lines.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// ── Request / event types ────────────────────────────────────────────────────

// Request is a single next-edit completion request. The prompt is the
// fully rendered context assembly; there is no conversation.
type Request struct {
	Model         string
	SystemPrompt  string
	Prompt        string
	MaxTokens     int
	Temperature   *float64
	StopSequences []string
}

type EventType int

const (
	EventTextDelta EventType = iota
	EventDone
	EventError
)

// Usage reports token consumption for a completed request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Event is one unit of a normalized response stream.
type Event struct {
	Type      EventType
	TextDelta string
	Usage     *Usage
	Error     error
}

// Provider is a model endpoint capable of streaming a completion.
type Provider interface {
	Name() string
	DefaultModel() string
	Complete(ctx context.Context, req *Request) (<-chan Event, error)
}

// New builds a provider by name. Anything that is not "anthropic" is
// served through the OpenAI-compatible adapter, which covers OpenAI,
// DeepSeek, Kimi, Qwen and the other compatible endpoints via baseURL.
func New(name, apiKey, baseURL, model string) (Provider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(apiKey, model), nil
	case "", "openai", "deepseek", "kimi", "qwen", "groq", "glm", "doubao", "minimax":
		return NewOpenAIProvider(apiKey, baseURL, model), nil
	default:
		if baseURL == "" {
			return nil, fmt.Errorf("provider: unknown provider %q and no base_url configured", name)
		}
		return NewOpenAIProvider(apiKey, baseURL, model), nil
	}
}

// CollectLines drains a response stream into lines. An empty response
// yields nil lines, which the classifier reports as EmptyResponse.
// Reconciliation does not depend on timing, so materializing the
// stream here produces the same result as incremental consumption.
func CollectLines(ctx context.Context, ch <-chan Event) ([]string, *Usage, error) {
	var sb strings.Builder
	var usage *Usage
	for {
		select {
		case <-ctx.Done():
			return nil, usage, ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				text := sb.String()
				if text == "" {
					return nil, usage, nil
				}
				return strings.Split(text, "\n"), usage, nil
			}
			switch ev.Type {
			case EventTextDelta:
				sb.WriteString(ev.TextDelta)
			case EventDone:
				if ev.Usage != nil {
					usage = ev.Usage
				}
			case EventError:
				return nil, usage, ev.Error
			}
		}
	}
}
