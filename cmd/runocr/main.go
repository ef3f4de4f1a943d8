// runocr extracts text from a single document and prints the result.
// Debug tool for checking what the OCR layer feeds the extractors.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/claims-extractor/internal/common"
	"github.com/joseph-ayodele/claims-extractor/internal/ocr"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		TesseractLang: cfg.OCR.Language,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	ctx, cancel := common.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := extractor.Extract(ctx, path)
	if err != nil {
		logger.Error("ocr failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("ocr complete",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
		"warnings", res.Warnings,
	)
	fmt.Println(res.Text)
}
