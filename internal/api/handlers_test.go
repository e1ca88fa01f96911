package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sashabaranov/go-openai"

	"docqa/internal/model"
	"docqa/internal/service"
	"docqa/internal/store"
)

type fakeIngester struct {
	res      *model.IngestResult
	err      error
	gotDocID string
	gotText  string
}

func (f *fakeIngester) Ingest(_ context.Context, docID, text string) (*model.IngestResult, error) {
	f.gotDocID, f.gotText = docID, text
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeRetriever struct {
	res *model.RetrievalResult
	err error
	got model.Query
}

func (f *fakeRetriever) Retrieve(_ context.Context, q model.Query) (*model.RetrievalResult, error) {
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeLister struct {
	models []openai.Model
	err    error
}

func (f *fakeLister) ListModels(context.Context) ([]openai.Model, error) {
	return f.models, f.err
}

func newTestApp(t *testing.T, h *Handler) *fiber.App {
	t.Helper()
	h.saveDir = t.TempDir()
	app := fiber.New()
	RegisterRoutes(app, h)
	return app
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestIngestText_OK(t *testing.T) {
	ing := &fakeIngester{res: &model.IngestResult{DocID: "d1", ChunksInserted: 3}}
	app := newTestApp(t, NewHandler(ing, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	body := `{"doc_id":"d1","text":"some document text"}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/text", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out model.IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ChunksInserted != 3 || out.DocID != "d1" {
		t.Fatalf("unexpected result %+v", out)
	}
	if ing.gotDocID != "d1" || ing.gotText != "some document text" {
		t.Fatalf("ingester got %q/%q", ing.gotDocID, ing.gotText)
	}
}

func TestIngestText_BadJSON(t *testing.T) {
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/ingest/text", strings.NewReader("{nope"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIngestText_EmptyTextIs400(t *testing.T) {
	ing := &fakeIngester{err: service.ErrEmptyText}
	app := newTestApp(t, NewHandler(ing, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/ingest/text", strings.NewReader(`{"text":"  "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", resp.StatusCode)
	}
}

func TestIngestFile_TextUpload(t *testing.T) {
	ing := &fakeIngester{res: &model.IngestResult{DocID: "gen", ChunksInserted: 1}}
	app := newTestApp(t, NewHandler(ing, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("uploaded   document\ttext")); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/ingest", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ing.gotText != "uploaded document text" {
		t.Fatalf("expected sanitized text, ingester got %q", ing.gotText)
	}
}

func TestIngestFile_MissingFile(t *testing.T) {
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/ingest", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAsk_OK(t *testing.T) {
	ret := &fakeRetriever{res: &model.RetrievalResult{
		Answer: "Paris.",
		Chunks: []model.Match{{ID: "c1", DocID: "d1", Text: "ctx", Score: 0.9}},
	}}
	app := newTestApp(t, NewHandler(&fakeIngester{}, ret, &fakeLister{}, store.NewMemoryStore()))

	body := `{"query":"capital of France?","doc_id":"d1","top_k":3}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out model.RetrievalResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Answer != "Paris." || len(out.Chunks) != 1 {
		t.Fatalf("unexpected result %+v", out)
	}
	if ret.got.DocID != "d1" || ret.got.TopK != 3 {
		t.Fatalf("query not passed through: %+v", ret.got)
	}
}

func TestAsk_MissingQuery(t *testing.T) {
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"  "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAsk_RetrieverErrorIs500(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("vector store unreachable")}
	app := newTestApp(t, NewHandler(&fakeIngester{}, ret, &fakeLister{}, store.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestDeleteDoc(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.Insert(context.Background(), []model.Chunk{
		{ID: "a", DocID: "d1", Embedding: []float32{1}},
		{ID: "b", DocID: "d1", Ordinal: 1, Embedding: []float32{1}},
	})
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, &fakeLister{}, st))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/docs/d1", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		ChunksRemoved int `json:"chunks_removed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ChunksRemoved != 2 {
		t.Fatalf("expected 2 chunks removed, got %d", out.ChunksRemoved)
	}
	if n, _ := st.CountChunks(context.Background(), "d1"); n != 0 {
		t.Fatalf("expected doc deleted, %d rows remain", n)
	}
}

func TestListDocs(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.Insert(context.Background(), []model.Chunk{
		{ID: "a", DocID: "d1", Embedding: []float32{1}},
		{ID: "b", DocID: "d1", Ordinal: 1, Embedding: []float32{1}},
		{ID: "c", DocID: "d2", Embedding: []float32{1}},
	})
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, &fakeLister{}, st))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out []model.DocInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 docs, got %+v", out)
	}
	if out[0].DocID != "d1" || out[0].Chunks != 2 {
		t.Fatalf("unexpected first doc %+v", out[0])
	}
	if out[1].DocID != "d2" || out[1].Chunks != 1 {
		t.Fatalf("unexpected second doc %+v", out[1])
	}
}

func TestListDocs_EmptyStore(t *testing.T) {
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, &fakeLister{}, store.NewMemoryStore()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out []model.DocInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list, got %+v", out)
	}
}

func TestListModels(t *testing.T) {
	lister := &fakeLister{models: []openai.Model{{ID: "gemma"}}}
	app := newTestApp(t, NewHandler(&fakeIngester{}, &fakeRetriever{}, lister, store.NewMemoryStore()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/models", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out []openai.Model
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out[0].ID != "gemma" {
		t.Fatalf("unexpected models %+v", out)
	}
}
