package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"docqa/internal/chunker"
	"docqa/internal/model"
	"docqa/internal/store"
)

var (
	// ErrEmptyText means the extracted document text was empty or whitespace.
	ErrEmptyText = errors.New("document text is empty")
	// ErrDocTooLarge means the document exceeds the ingestion length limit.
	ErrDocTooLarge = errors.New("document exceeds the maximum length")
)

// Embedder is the embedding pipeline as the services see it.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkLen  int
	MaxDocChars  int
}

// IngestService turns extracted document text into stored, embedded chunks.
type IngestService struct {
	embedder Embedder
	store    store.Store
	cfg      IngestConfig
}

func NewIngestService(embedder Embedder, st store.Store, cfg IngestConfig) *IngestService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = chunker.DefaultOverlap
	}
	if cfg.MinChunkLen <= 0 {
		cfg.MinChunkLen = chunker.DefaultMinChunkLen
	}
	if cfg.MaxDocChars <= 0 {
		cfg.MaxDocChars = 500_000
	}
	return &IngestService{embedder: embedder, store: st, cfg: cfg}
}

// Ingest chunks, filters, embeds and stores text under docID. An empty docID
// gets a generated one. Rows reach the store only after every batch embedded
// successfully, so a failed ingestion leaves no rows behind. A non-empty
// document always yields at least one stored chunk: when the noise filter
// rejects everything, the trimmed original text is stored as a single chunk.
func (s *IngestService) Ingest(ctx context.Context, docID, text string) (*model.IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxDocChars {
		return nil, fmt.Errorf("%w: %d chars, limit %d", ErrDocTooLarge, n, s.cfg.MaxDocChars)
	}
	if docID == "" {
		docID = uuid.NewString()
	}

	chunks := chunker.Split(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	chunks = chunker.Filter(chunks, text, s.cfg.MinChunkLen)

	vecs, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed document %s: %w", docID, err)
	}

	rows := make([]model.Chunk, len(chunks))
	for i := range chunks {
		rows[i] = model.Chunk{
			ID:        fmt.Sprintf("%s_chunk_%d", docID, i),
			DocID:     docID,
			Text:      chunks[i],
			Embedding: vecs[i],
			Ordinal:   i,
		}
	}
	if err := s.store.Insert(ctx, rows); err != nil {
		return nil, fmt.Errorf("store document %s: %w", docID, err)
	}
	return &model.IngestResult{DocID: docID, ChunksInserted: len(rows)}, nil
}
