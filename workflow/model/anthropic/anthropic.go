// Package anthropic adapts Anthropic's Messages streaming API to
// model.ChatClient.
package anthropic

import (
	"context"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/PriNova/cody-sub000/workflow/model"
)

// ChatClient streams Claude completions as cumulative-text change events.
type ChatClient struct {
	client      anthropicsdk.Client
	modelName   string
	maxTokens   int64
	temperature float64
}

// New returns a ChatClient for modelName (e.g. "claude-sonnet-4-5") using
// apiKey. maxTokens bounds the response length Anthropic will generate.
func New(apiKey, modelName string, maxTokens int64) *ChatClient {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &ChatClient{
		client:    anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
		maxTokens: maxTokens,
	}
}

func (c *ChatClient) GetTemperature() float64  { return c.temperature }
func (c *ChatClient) SetTemperature(t float64) { c.temperature = t }

// Chat extracts any leading system message (Anthropic takes it as a
// separate parameter, not part of the message list) and streams the rest.
func (c *ChatClient) Chat(ctx context.Context, messages []model.Message) (<-chan model.StreamEvent, error) {
	var system string
	msgs := make([]anthropicsdk.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			system = m.Content
		case model.RoleAssistant:
			msgs = append(msgs, anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content)))
		}
	}

	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(c.modelName),
		MaxTokens:   c.maxTokens,
		Temperature: anthropicsdk.Float(c.temperature),
		Messages:    msgs,
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	ch := make(chan model.StreamEvent)
	go func() {
		defer close(ch)
		var accumulated string
		message := anthropicsdk.Message{}
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				ch <- model.StreamEvent{Type: model.EventError, Err: err}
				return
			}
			if delta, ok := event.AsAny().(anthropicsdk.ContentBlockDeltaEvent); ok {
				if text := delta.Delta.Text; text != "" {
					accumulated += text
					select {
					case <-ctx.Done():
						return
					case ch <- model.StreamEvent{Type: model.EventChange, Text: accumulated}:
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			ch <- model.StreamEvent{Type: model.EventError, Err: err}
			return
		}
		ch <- model.StreamEvent{Type: model.EventComplete, Text: accumulated}
	}()
	return ch, nil
}
