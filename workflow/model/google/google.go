// Package google adapts Google's Generative AI streaming API to
// model.ChatClient.
package google

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/PriNova/cody-sub000/workflow/model"
)

// ChatClient streams Gemini completions as cumulative-text change events.
// It does not enable Gemini's search grounding tool, and the LLM node
// executor does not act on a node's HasGoogleSearch flag.
type ChatClient struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	temperature float64
}

// New returns a ChatClient for modelName (e.g. "gemini-1.5-pro") using
// apiKey.
func New(ctx context.Context, apiKey, modelName string) (*ChatClient, error) {
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &ChatClient{client: client, model: client.GenerativeModel(modelName)}, nil
}

func (c *ChatClient) GetTemperature() float64 { return c.temperature }

func (c *ChatClient) SetTemperature(t float64) {
	c.temperature = t
	temp := float32(t)
	c.model.Temperature = &temp
}

func (c *ChatClient) Chat(ctx context.Context, messages []model.Message) (<-chan model.StreamEvent, error) {
	var system string
	cs := c.model.StartChat()
	for i, m := range messages {
		last := i == len(messages)-1
		switch {
		case m.Role == model.RoleSystem:
			system = m.Content
		case last:
			// handled below via GenerateContentStream
		case m.Role == model.RoleAssistant:
			cs.History = append(cs.History, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			cs.History = append(cs.History, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if system != "" {
		c.model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	var prompt string
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Content
	}
	iter := cs.SendMessageStream(ctx, genai.Text(prompt))

	ch := make(chan model.StreamEvent)
	go func() {
		defer close(ch)
		var accumulated string
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				ch <- model.StreamEvent{Type: model.EventError, Err: err}
				return
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if text, ok := part.(genai.Text); ok {
						accumulated += string(text)
					}
				}
			}
			select {
			case <-ctx.Done():
				return
			case ch <- model.StreamEvent{Type: model.EventChange, Text: accumulated}:
			}
		}
		ch <- model.StreamEvent{Type: model.EventComplete, Text: accumulated}
	}()
	return ch, nil
}
