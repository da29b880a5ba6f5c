// Package model defines the streaming chat-provider contract the LLM node
// executor (spec.md §4.F.2) consumes, plus the provider adapters under
// model/anthropic, model/openai, and model/google.
package model

import "context"

// Role is a chat message's sender, using the conventions every major
// provider shares.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat conversation.
type Message struct {
	Role    Role
	Content string
}

// EventType tags a StreamEvent the way spec.md §4.F.2 describes the
// observed client protocol: change carries a cumulative-text delta,
// complete resolves the stream, error aborts it.
type EventType string

const (
	EventChange   EventType = "change"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// StreamEvent is one item from a ChatClient.Chat stream.
//
// For EventChange, Text is the *cumulative* text observed so far, so the
// LLM node executor keeps the latest Text as the whole response to date
// rather than appending it.
type StreamEvent struct {
	Type EventType
	Text string
	Err  error
}

// ChatClient is the collaborator interface the LLM node executor drives.
// Chat returns a channel of StreamEvent; the producer closes it after
// emitting exactly one of EventComplete or EventError, and stops sending
// promptly once ctx is done.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (<-chan StreamEvent, error)

	// GetTemperature/SetTemperature let the LLM executor save, override,
	// and restore sampling temperature around a single call (spec.md
	// §4.F.2: "Set model temperature (restore on exit)").
	GetTemperature() float64
	SetTemperature(t float64)
}
