// Package retriever defines the context-retrieval collaborator the
// SEARCH_CONTEXT node executor consumes (spec.md §4.F.5, §6), plus a trivial
// in-memory reference implementation.
package retriever

import "context"

// Item is one retrieved context item: a source location and its content.
type Item struct {
	URI     string
	Content string
}

// Retriever looks up code context for a query. remote mirrors the
// SEARCH_CONTEXT node's local_remote field: when false, implementations
// should restrict themselves to local, already-indexed sources.
type Retriever interface {
	Retrieve(ctx context.Context, query string, remote bool) ([]Item, error)
}

// Static is a Retriever backed by a fixed corpus, keyed by exact query
// match. It exists for tests and standalone demos where wiring a real
// search backend isn't the point; production callers supply their own
// Retriever (an embeddings index, a code-search service, ...).
type Static struct {
	corpus map[string][]Item
}

// NewStatic returns a Static retriever serving corpus verbatim.
func NewStatic(corpus map[string][]Item) *Static {
	if corpus == nil {
		corpus = map[string][]Item{}
	}
	return &Static{corpus: corpus}
}

func (s *Static) Retrieve(_ context.Context, query string, _ bool) ([]Item, error) {
	return s.corpus[query], nil
}
