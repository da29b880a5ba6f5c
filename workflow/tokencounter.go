package workflow

import "strings"

// TokenCounter estimates how many tokens a piece of text would consume,
// for the token_count events PREVIEW and LOOP_END nodes emit (spec.md
// §4.F.3, §6). It is a narrow collaborator interface so a caller can plug
// in a real provider tokenizer; WhitespaceTokenCounter is a crude built-in
// default that needs no external dependency.
type TokenCounter interface {
	Encode(text string) int
}

// WhitespaceTokenCounter approximates a token count as the number of
// whitespace-delimited fields. It is intentionally simple — a stand-in for
// callers that don't need provider-accurate counts.
type WhitespaceTokenCounter struct{}

func (WhitespaceTokenCounter) Encode(text string) int {
	return len(strings.Fields(text))
}
