package api

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sashabaranov/go-openai"

	"docqa/internal/extract"
	"docqa/internal/model"
	"docqa/internal/service"
	"docqa/internal/store"
	"docqa/internal/util"
)

// Ingester stores a document's text as embedded chunks.
type Ingester interface {
	Ingest(ctx context.Context, docID, text string) (*model.IngestResult, error)
}

// Retriever answers a query grounded on stored chunks.
type Retriever interface {
	Retrieve(ctx context.Context, q model.Query) (*model.RetrievalResult, error)
}

// ModelLister proxies the upstream model list.
type ModelLister interface {
	ListModels(ctx context.Context) ([]openai.Model, error)
}

// Handler holds the handlers' dependencies.
type Handler struct {
	ingest  Ingester
	rag     Retriever
	llm     ModelLister
	store   store.Store
	saveDir string
}

func NewHandler(ingest Ingester, rag Retriever, llm ModelLister, st store.Store) *Handler {
	return &Handler{
		ingest:  ingest,
		rag:     rag,
		llm:     llm,
		store:   st,
		saveDir: filepath.Join("data", "docs"),
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (h *Handler) ListModels(c *fiber.Ctx) error {
	models, err := h.llm.ListModels(c.Context())
	if err != nil {
		log.Printf("list models error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(models)
}

// IngestFile accepts a multipart upload, extracts its text and ingests it.
func (h *Handler) IngestFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required (form field: file)"})
	}

	if err := os.MkdirAll(h.saveDir, 0o755); err != nil {
		log.Printf("mkdir error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to prepare storage"})
	}
	savePath := filepath.Join(h.saveDir, util.Timestamped(file.Filename))
	if err := c.SaveFile(file, savePath); err != nil {
		log.Printf("save file error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
	}

	text, err := extract.FromFile(savePath)
	if err != nil {
		log.Printf("extract error (%s): %v", savePath, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to extract text"})
	}
	text = extract.Sanitize(text)
	if strings.TrimSpace(text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no text extracted from file"})
	}
	log.Printf("ingesting %s: %q...", file.Filename, util.TruncateRunes(text, 80))

	return h.runIngest(c, c.FormValue("doc_id"), text)
}

// IngestText ingests pre-extracted text from a JSON body.
func (h *Handler) IngestText(c *fiber.Ctx) error {
	var req model.IngestTextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request, expected JSON: {\"text\":\"...\"}"})
	}
	return h.runIngest(c, req.DocID, req.Text)
}

func (h *Handler) runIngest(c *fiber.Ctx, docID, text string) error {
	res, err := h.ingest.Ingest(c.Context(), docID, text)
	if err != nil {
		log.Printf("ingest error: %v", err)
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrEmptyText) || errors.Is(err, service.ErrDocTooLarge) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// Ask runs the retrieval pipeline: embed, search (with fallback), prompt, answer.
func (h *Handler) Ask(c *fiber.Ctx) error {
	var req model.AskRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request, expected JSON: {\"query\":\"...\"}"})
	}

	res, err := h.rag.Retrieve(c.Context(), model.Query{
		Text:      req.Query,
		TopK:      req.TopK,
		DocID:     req.DocID,
		History:   req.History,
		Reference: req.Reference,
	})
	if err != nil {
		log.Printf("ask error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// ListDocs returns every stored document with its chunk count.
func (h *Handler) ListDocs(c *fiber.Ctx) error {
	docs, err := h.store.ListDocs(c.Context())
	if err != nil {
		log.Printf("list docs error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if docs == nil {
		docs = []model.DocInfo{}
	}
	return c.JSON(docs)
}

// DeleteDoc removes all chunks of a document, the explicit replace path.
// The response reports how many chunks were removed.
func (h *Handler) DeleteDoc(c *fiber.Ctx) error {
	docID := c.Params("id")
	if docID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "doc id is required"})
	}
	removed, err := h.store.CountChunks(c.Context(), docID)
	if err != nil {
		log.Printf("count chunks error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.store.DeleteDoc(c.Context(), docID); err != nil {
		log.Printf("delete doc error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok", "doc_id": docID, "chunks_removed": removed})
}
