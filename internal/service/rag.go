package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"docqa/internal/model"
	"docqa/internal/store"
)

const systemPrompt = `You are a document assistant. Answer using the numbered context ` +
	`sources when they are relevant; you may draw on general knowledge when they are not. ` +
	`When citing a source, refer to it by its number. ` +
	`Format any mathematics with LaTeX delimiters: \( ... \) inline, \[ ... \] for display blocks.`

// RAGService answers a query by embedding it, retrieving the most similar
// stored chunks and grounding a chat completion on them.
type RAGService struct {
	embedder Embedder
	store    store.Store
	chat     ChatClient
	topK     int
}

func NewRAGService(embedder Embedder, st store.Store, chat ChatClient, topK int) *RAGService {
	if topK <= 0 {
		topK = 5
	}
	return &RAGService{embedder: embedder, store: st, chat: chat, topK: topK}
}

// Retrieve runs the full query path. When a docID-scoped search comes back
// empty for a document that has chunks (cold index, strict store threshold),
// the document's first chunk stands in so the answer is never ungrounded for
// a just-ingested document. Store and model failures surface to the caller
// unretried.
func (s *RAGService) Retrieve(ctx context.Context, q model.Query) (*model.RetrievalResult, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = s.topK
	}

	vec, err := s.embedder.EmbedOne(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.store.Search(ctx, vec, topK, q.DocID)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if len(matches) == 0 && q.DocID != "" {
		first, err := s.store.FirstChunk(ctx, q.DocID)
		if err != nil {
			return nil, fmt.Errorf("fallback chunk: %w", err)
		}
		if first != nil {
			matches = []model.Match{{ID: first.ID, DocID: first.DocID, Text: first.Text}}
		}
	}

	answer, err := s.chat.Chat(ctx, buildMessages(q, matches))
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}
	return &model.RetrievalResult{Answer: answer, Chunks: matches}, nil
}

// buildMessages assembles the grounded prompt: system instruction, prior
// conversation turns, then one user message holding the numbered context
// blocks, the optional highlighted reference and the question.
func buildMessages(q model.Query, matches []model.Match) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, h := range q.History {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: h.Role, Content: h.Content})
	}

	var b strings.Builder
	for i, m := range matches {
		if m.DocID != "" {
			fmt.Fprintf(&b, "[%d] (doc %s)\n%s\n\n", i+1, m.DocID, m.Text)
		} else {
			fmt.Fprintf(&b, "[%d]\n%s\n\n", i+1, m.Text)
		}
	}
	if q.Reference != "" {
		fmt.Fprintf(&b, "Highlighted passage from the user:\n%s\n\n", q.Reference)
	}
	if b.Len() > 0 {
		b.WriteString("Question: ")
	}
	b.WriteString(q.Text)

	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: b.String(),
	})
}
