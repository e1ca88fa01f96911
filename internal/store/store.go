package store

import (
	"context"

	"docqa/internal/model"
)

// Store persists chunk rows and answers similarity searches over them.
// Insert is append-only: re-ingesting a docID adds rows, it does not replace
// them. Callers wanting replace semantics delete the doc first.
type Store interface {
	// Insert writes all rows atomically; either every row lands or none do.
	Insert(ctx context.Context, rows []model.Chunk) error
	// Search returns up to topK chunks ordered by descending similarity,
	// scoped to docID when non-empty.
	Search(ctx context.Context, query []float32, topK int, docID string) ([]model.Match, error)
	// FirstChunk returns the lowest-ordinal chunk of a document, or nil when
	// the document has no chunks. Used as the cold-search fallback.
	FirstChunk(ctx context.Context, docID string) (*model.Chunk, error)
	// DeleteDoc removes every chunk of a document.
	DeleteDoc(ctx context.Context, docID string) error
	// CountChunks reports how many chunks a document has.
	CountChunks(ctx context.Context, docID string) (int, error)
	// ListDocs returns every stored document with its chunk count, ordered
	// by docID.
	ListDocs(ctx context.Context) ([]model.DocInfo, error)
}
