package main

import (
	"flag"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"docqa/internal/api"
	"docqa/internal/config"
	"docqa/internal/embed"
	"docqa/internal/service"
	"docqa/internal/store"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbStore, err := store.NewPgStore(cfg.PgConn, cfg.EmbedDim)
	if err != nil {
		log.Fatalf("connect store: %v", err)
	}

	embedClient := embed.NewClient(embed.ClientConfig{
		BaseURL:   cfg.LMBaseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.EmbedModel,
		Dimension: cfg.EmbedDim,
		Timeout:   cfg.EmbedTimeout(),
	})
	batcher := embed.NewBatcher(embedClient, cfg.BatchSize, cfg.Concurrency)

	llm := service.NewLLMClient(cfg.LMBaseURL, cfg.APIKey, cfg.ChatModel)
	ingest := service.NewIngestService(batcher, dbStore, service.IngestConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		MinChunkLen:  cfg.MinChunkLen,
		MaxDocChars:  cfg.MaxDocChars,
	})
	rag := service.NewRAGService(batcher, dbStore, llm, cfg.TopK)

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})
	api.RegisterRoutes(app, api.NewHandler(ingest, rag, llm, dbStore))

	log.Printf("server started at %s", cfg.ServerAddr)
	log.Fatal(app.Listen(cfg.ServerAddr))
}
