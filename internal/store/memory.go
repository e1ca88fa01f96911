package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"docqa/internal/model"
)

// MemoryStore is an in-process Store used in tests and offline runs. Ranking
// is exact cosine similarity over all rows.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []model.Chunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, rows []model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, query []float32, topK int, docID string) ([]model.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Match
	for _, c := range s.rows {
		if docID != "" && c.DocID != docID {
			continue
		}
		out = append(out, model.Match{
			ID:    c.ID,
			DocID: c.DocID,
			Text:  c.Text,
			Score: cosine(query, c.Embedding),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *MemoryStore) FirstChunk(_ context.Context, docID string) (*model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var first *model.Chunk
	for i := range s.rows {
		c := s.rows[i]
		if c.DocID != docID {
			continue
		}
		if first == nil || c.Ordinal < first.Ordinal {
			first = &s.rows[i]
		}
	}
	if first == nil {
		return nil, nil
	}
	cp := *first
	return &cp, nil
}

func (s *MemoryStore) DeleteDoc(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, c := range s.rows {
		if c.DocID != docID {
			kept = append(kept, c)
		}
	}
	s.rows = kept
	return nil
}

func (s *MemoryStore) CountChunks(_ context.Context, docID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.rows {
		if c.DocID == docID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListDocs(_ context.Context) ([]model.DocInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, c := range s.rows {
		counts[c.DocID]++
	}
	out := make([]model.DocInfo, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.DocInfo{DocID: id, Chunks: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
