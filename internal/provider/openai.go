package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAIProvider implements Provider for all OpenAI-compatible APIs,
// including OpenAI, DeepSeek, MiniMax, Kimi, Qwen, etc.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	name    string
	baseURL string
}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	name := "openai"
	if baseURL != "" {
		switch {
		case strings.Contains(baseURL, "deepseek"):
			name = "deepseek"
		case strings.Contains(baseURL, "moonshot"):
			name = "kimi"
		case strings.Contains(baseURL, "dashscope"):
			name = "qwen"
		case strings.Contains(baseURL, "bigmodel.cn"):
			name = "glm"
		case strings.Contains(baseURL, "volces.com"):
			name = "doubao"
		case strings.Contains(baseURL, "groq"):
			name = "groq"
		}
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   model,
		name:    name,
		baseURL: baseURL,
	}
}

func (p *OpenAIProvider) Name() string         { return p.name }
func (p *OpenAIProvider) DefaultModel() string { return p.model }

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (<-chan Event, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if len(req.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: req.StopSequences,
		}
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	ch := make(chan Event, 16)
	go p.processStream(ctx, stream, ch)
	return ch, nil
}

// processStream reads the OpenAI SSE stream and emits unified events.
// Reasoning models (DeepSeek and friends) interleave reasoning_content
// deltas that are not part of the visible completion; those are
// silently discarded so thinking never leaks into the edit text.
func (p *OpenAIProvider) processStream(ctx context.Context, stream *ssestream.Stream[openai.ChatCompletionChunk], ch chan<- Event) {
	defer close(ch)

	for stream.Next() {
		select {
		case <-ctx.Done():
			ch <- Event{Type: EventError, Error: ctx.Err()}
			return
		default:
		}

		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			// Final chunk may only carry usage.
			if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
				ch <- Event{
					Type: EventDone,
					Usage: &Usage{
						InputTokens:  int(chunk.Usage.PromptTokens),
						OutputTokens: int(chunk.Usage.CompletionTokens),
					},
				}
			}
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content == "" {
			if rc := extractReasoningContent(delta.RawJSON()); rc != "" {
				continue
			}
		}
		if delta.Content != "" {
			ch <- Event{Type: EventTextDelta, TextDelta: delta.Content}
		}
	}

	if err := stream.Err(); err != nil {
		ch <- Event{Type: EventError, Error: fmt.Errorf("openai streaming error: %w", err)}
		return
	}

	ch <- Event{Type: EventDone, Usage: &Usage{}}
}

// extractReasoningContent parses the raw JSON of a delta chunk to find a
// "reasoning_content" field (used by DeepSeek and other reasoning models).
// Returns the reasoning text if present, empty string otherwise.
func extractReasoningContent(rawJSON string) string {
	var raw struct {
		ReasoningContent string `json:"reasoning_content"`
	}
	if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
		return ""
	}
	return raw.ReasoningContent
}
