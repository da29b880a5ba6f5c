package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable error kind, one of the closed set spec.md
// §7 names. Matching the teacher's NodeError shape (graph/node.go), errors
// raised by node executors and the driver carry a Code, the originating
// NodeID, a human Message, and an optional wrapped Cause.
type ErrorCode string

const (
	CodeEmptyCommand      ErrorCode = "EMPTY_COMMAND"
	CodeEmptyPrompt       ErrorCode = "EMPTY_PROMPT"
	CodeDisallowedCommand ErrorCode = "DISALLOWED_COMMAND"
	CodeShellTimeout      ErrorCode = "SHELL_TIMEOUT"
	CodeShellFailure      ErrorCode = "SHELL_FAILURE"
	CodeLLMTimeout        ErrorCode = "LLM_TIMEOUT"
	CodeLLMError          ErrorCode = "LLM_ERROR"
	CodeResponseTooLarge  ErrorCode = "RESPONSE_TOO_LARGE"
	CodeAborted           ErrorCode = "ABORTED"
	CodeUnknownNodeKind   ErrorCode = "UNKNOWN_NODE_KIND"
	// CodeInvalidExpression covers an IF_ELSE node whose substituted content
	// does not parse as "LHS <op> RHS" (§4.F.11) — a failure mode spec.md
	// §7's closed list doesn't name explicitly (see DESIGN.md).
	CodeInvalidExpression ErrorCode = "INVALID_EXPRESSION"
)

// Error is the typed error raised by node executors and the driver.
type Error struct {
	Code    ErrorCode
	NodeID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("node %s: %s", e.NodeID, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs a workflow.Error for the given node.
func NewError(nodeID string, code ErrorCode, message string) *Error {
	return &Error{NodeID: nodeID, Code: code, Message: message}
}

// Wrap constructs a workflow.Error carrying cause as its wrapped error.
func Wrap(nodeID string, code ErrorCode, message string, cause error) *Error {
	return &Error{NodeID: nodeID, Code: code, Message: message, Cause: cause}
}

// IsAborted reports whether err represents cancellation, per spec.md §7:
// "Aborted — derived from the cancellation signal; surfaces as `interrupted`
// rather than `error`." The driver also falls back to a substring match on
// "aborted" in the error message for errors raised by collaborators that
// don't use workflow.Error (e.g. a ChatClient returning a bare error).
func IsAborted(err error) bool {
	if err == nil {
		return false
	}
	var werr *Error
	if errors.As(err, &werr) && werr.Code == CodeAborted {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "aborted")
}

// ErrMaxResponseSize is returned when an LLM node's accumulated streamed
// text exceeds the 1,000,000 character limit spec.md §7 sets.
var ErrMaxResponseSize = errors.New("llm response exceeded maximum accumulated size")
