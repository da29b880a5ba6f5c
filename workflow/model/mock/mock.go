// Package mock provides a scriptable model.ChatClient for tests.
package mock

import (
	"context"

	"github.com/PriNova/cody-sub000/workflow/model"
)

// ChatClient replays a fixed sequence of StreamEvents for every call,
// ignoring the messages it's given. It is not safe for concurrent Chat
// calls (the Execution Context is single-run/sequential anyway, per
// spec.md §5).
type ChatClient struct {
	Events      []model.StreamEvent
	temperature float64

	// Calls records every conversation passed to Chat, for assertions.
	Calls [][]model.Message
}

// New returns a ChatClient that, on every Chat call, streams events in
// order and closes the channel.
func New(events ...model.StreamEvent) *ChatClient {
	return &ChatClient{Events: events}
}

func (c *ChatClient) Chat(ctx context.Context, messages []model.Message) (<-chan model.StreamEvent, error) {
	c.Calls = append(c.Calls, messages)
	ch := make(chan model.StreamEvent, len(c.Events))
	go func() {
		defer close(ch)
		for _, e := range c.Events {
			select {
			case <-ctx.Done():
				return
			case ch <- e:
			}
		}
	}()
	return ch, nil
}

func (c *ChatClient) GetTemperature() float64  { return c.temperature }
func (c *ChatClient) SetTemperature(t float64) { c.temperature = t }
