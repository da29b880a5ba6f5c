// Package chatsession defines the collaborator the CODY_OUTPUT node hands
// off to (spec.md §4.F.6, §1 Out-of-scope: "Chat-session follow-up UI ...
// resolves on the first new assistant message").
package chatsession

import "context"

// ContextItem is a file-shaped piece of context attached to a hand-off,
// split back out of a joined SEARCH_CONTEXT string by the CODY_OUTPUT
// executor.
type ContextItem struct {
	Path    string
	Content string
}

// Session hands a CODY_OUTPUT node's text and retrieved context items to an
// external chat controller and waits for its first new assistant reply.
type Session interface {
	// Continue posts text + contextItems and blocks until a new assistant
	// message is observed, returning the session identifier that message
	// belongs to.
	Continue(ctx context.Context, text string, contextItems []ContextItem) (sessionID string, err error)
}
