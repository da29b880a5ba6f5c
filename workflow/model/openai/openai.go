// Package openai adapts OpenAI's chat-completions streaming API to
// model.ChatClient.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/PriNova/cody-sub000/workflow/model"
)

// ChatClient streams GPT completions as cumulative-text change events.
type ChatClient struct {
	client      openai.Client
	modelName   string
	temperature float64
}

// New returns a ChatClient for modelName (e.g. "gpt-4o") using apiKey.
func New(apiKey, modelName string) *ChatClient {
	if modelName == "" {
		modelName = openai.ChatModelGPT4o
	}
	return &ChatClient{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}
}

func (c *ChatClient) GetTemperature() float64  { return c.temperature }
func (c *ChatClient) SetTemperature(t float64) { c.temperature = t }

func (c *ChatClient) Chat(ctx context.Context, messages []model.Message) (<-chan model.StreamEvent, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case model.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:       c.modelName,
		Messages:    msgs,
		Temperature: openai.Float(c.temperature),
	})

	ch := make(chan model.StreamEvent)
	go func() {
		defer close(ch)
		var accumulated string
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			accumulated += delta
			select {
			case <-ctx.Done():
				return
			case ch <- model.StreamEvent{Type: model.EventChange, Text: accumulated}:
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
