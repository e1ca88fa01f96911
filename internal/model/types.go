package model

// Chunk is a bounded segment of a document's text, the unit of embedding
// and retrieval. Ordinal is the chunk's position within its document.
type Chunk struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
	Ordinal   int       `json:"ordinal"`
}

// Match is a search hit: a stored chunk plus its similarity score.
type Match struct {
	ID    string  `json:"id"`
	DocID string  `json:"doc_id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Message is one turn of conversation history passed through to the chat model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query is the input to one retrieval call. It is never persisted.
type Query struct {
	Text      string
	TopK      int
	DocID     string
	History   []Message
	Reference string
}

// RetrievalResult pairs the model's answer with the chunks that grounded it,
// so the caller can display citations.
type RetrievalResult struct {
	Answer string  `json:"answer"`
	Chunks []Match `json:"chunks"`
}

// DocInfo summarizes one stored document for the listing endpoint.
type DocInfo struct {
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
}

// IngestResult reports what one ingestion stored.
type IngestResult struct {
	DocID          string `json:"doc_id"`
	ChunksInserted int    `json:"chunks_inserted"`
}

// AskRequest is the JSON body of POST /ask.
type AskRequest struct {
	Query     string    `json:"query"`
	TopK      int       `json:"top_k,omitempty"`
	DocID     string    `json:"doc_id,omitempty"`
	History   []Message `json:"history,omitempty"`
	Reference string    `json:"reference,omitempty"`
}

// IngestTextRequest is the JSON body of POST /ingest/text.
type IngestTextRequest struct {
	DocID string `json:"doc_id,omitempty"`
	Text  string `json:"text"`
}
