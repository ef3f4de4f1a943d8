// inference-probe checks the configured inference endpoint: health, served
// models, and a round-trip extraction on a sample document. Debug tool for
// verifying an endpoint before pointing the pipeline at it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/claims-extractor/internal/common"
	"github.com/joseph-ayodele/claims-extractor/internal/inference"
)

const sampleDoc = `Merchant: Acme Medical Supply
Invoice #INV-2024-001
Date of Service: 03/15/2024
Gauze pads  4.25
Saline  6.00
Tax: $0.82
Total: $11.07`

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Inference.ServerURL == "" {
		logger.Error("INFERENCE_URL env var is required")
		os.Exit(2)
	}

	client := inference.NewClient(inference.Config{
		ServerURL:   cfg.Inference.ServerURL,
		Model:       cfg.Inference.Model,
		Timeout:     cfg.Inference.Timeout,
		MaxRetries:  cfg.Inference.MaxRetries,
		MaxTokens:   cfg.Inference.MaxTokens,
		Temperature: cfg.Inference.Temperature,
	}, logger)

	ctx, cancel := common.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !client.CheckHealth(ctx) {
		logger.Error("endpoint unhealthy", "url", cfg.Inference.ServerURL)
		os.Exit(1)
	}
	logger.Info("endpoint healthy", "url", cfg.Inference.ServerURL)

	models, err := client.ListModels(ctx)
	if err != nil {
		logger.Warn("listing models failed", "error", err)
	} else {
		logger.Info("models available", "models", models)
	}

	resp, err := client.Generate(ctx, inference.BuildExtractionPrompt(sampleDoc, inference.PromptMetadata{}), inference.GenerateOptions{})
	if err != nil {
		logger.Error("generation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("generation complete",
		"finish_reason", resp.FinishReason,
		"confidence", resp.Confidence,
		"total_tokens", resp.Usage.TotalTokens,
	)

	fields, err := client.DecodeStructuredOutput(resp.Text)
	if err != nil {
		logger.Error("decode failed", "error", err, "raw", resp.Text)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(fields, "", "  ")
	fmt.Println(string(out))
}
