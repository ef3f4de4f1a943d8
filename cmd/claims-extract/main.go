package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/claims-extractor/internal/common"
	"github.com/joseph-ayodele/claims-extractor/internal/export"
	"github.com/joseph-ayodele/claims-extractor/internal/hybrid"
	"github.com/joseph-ayodele/claims-extractor/internal/inference"
	"github.com/joseph-ayodele/claims-extractor/internal/ocr"
	"github.com/joseph-ayodele/claims-extractor/internal/pipeline"
	"github.com/joseph-ayodele/claims-extractor/internal/store"
)

func main() {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("claims-extract")
	var (
		dir       = fs.StringLong("dir", "", "directory of claim documents to process (required)")
		out       = fs.StringLong("out", "", "output file path (default claims.<format>)")
		format    = fs.StringLong("format", "", "output format: json | csv | xlsx")
		serverURL = fs.StringLong("inference-url", "", "inference server URL (empty disables the model path)")
		model     = fs.StringLong("model", "", "model identifier for completion requests")
		dbPath    = fs.StringLong("db", "", "sqlite archive path (empty disables archiving)")
		verbose   = fs.BoolLong("verbose", "enable debug logging")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("CLAIMS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *dir == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: --dir is required")
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	if *serverURL != "" {
		cfg.Inference.ServerURL = *serverURL
	}
	if *model != "" {
		cfg.Inference.Model = *model
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *out != "" {
		cfg.Output.Path = *out
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		TesseractLang: cfg.OCR.Language,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	var model0 hybrid.ModelClient
	if cfg.Inference.ServerURL != "" {
		model0 = inference.NewClient(inference.Config{
			ServerURL:   cfg.Inference.ServerURL,
			Model:       cfg.Inference.Model,
			Timeout:     cfg.Inference.Timeout,
			MaxRetries:  cfg.Inference.MaxRetries,
			MaxTokens:   cfg.Inference.MaxTokens,
			Temperature: cfg.Inference.Temperature,
		}, logger)
		logger.Info("inference client initialized", "url", cfg.Inference.ServerURL, "model", cfg.Inference.Model)
	} else {
		logger.Warn("inference URL not configured, model extraction disabled")
	}

	engine := hybrid.NewEngine(model0, hybrid.Config{
		AcceptThreshold:   cfg.Extract.AcceptThreshold,
		PatternConfidence: cfg.Extract.PatternConfidence,
		UseFallback:       cfg.Extract.UseFallback,
		ProbeHealth:       cfg.Extract.ProbeHealth,
	}, logger)

	var archive pipeline.Archiver
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			logger.Error("failed to open archive", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Warn("failed to close archive", "error", cerr)
			}
		}()
		archive = st
		logger.Info("archive enabled", "path", cfg.Store.Path)
	}

	processor := pipeline.NewProcessor(extractor, engine, archive, logger)

	records, stats, err := processor.ProcessDirectory(ctx, *dir)
	if err != nil {
		logger.Error("directory processing failed", "error", err)
		os.Exit(1)
	}

	outPath := cfg.Output.Path
	if *out == "" && cfg.Output.Format != "" {
		outPath = "claims." + cfg.Output.Format
	}
	data, err := export.Encode(records, cfg.Output.Format)
	if err != nil {
		logger.Error("failed to encode output", "format", cfg.Output.Format, "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		logger.Error("failed to write output file", "path", outPath, "error", err)
		os.Exit(1)
	}

	logger.Info("extraction complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"output", outPath,
	)
}
