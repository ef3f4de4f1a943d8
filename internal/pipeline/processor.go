// Package pipeline runs documents through text extraction and field
// arbitration, producing archived extraction records.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-extractor/constants"
	"github.com/joseph-ayodele/claims-extractor/internal/common"
	"github.com/joseph-ayodele/claims-extractor/internal/entity"
	"github.com/joseph-ayodele/claims-extractor/internal/hybrid"
	"github.com/joseph-ayodele/claims-extractor/internal/mail"
	"github.com/joseph-ayodele/claims-extractor/internal/ocr"
)

// Archiver persists processed records. Satisfied by *store.Store.
type Archiver interface {
	Save(ctx context.Context, rec entity.ExtractionRecord) error
}

// Stats summarizes a directory run.
type Stats struct {
	Scanned   int
	Matched   int
	Succeeded int
	Failed    int
}

type Processor struct {
	extractor *ocr.Extractor
	engine    *hybrid.Engine
	archive   Archiver // nil disables archiving
	logger    *slog.Logger
}

func NewProcessor(extractor *ocr.Extractor, engine *hybrid.Engine, archive Archiver, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{extractor: extractor, engine: engine, archive: archive, logger: logger}
}

// ProcessFile runs one document file end to end.
func (p *Processor) ProcessFile(ctx context.Context, path string) (entity.ExtractionRecord, error) {
	start := time.Now()
	ctx = common.WithRequestID(ctx, uuid.New().String())
	ctx = common.WithSource(ctx, path)

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return entity.ExtractionRecord{}, common.WrapError(err, "extract text from "+path)
	}
	p.logger.Debug("pipeline.text_extracted",
		"path", path,
		"method", text.Method,
		"chars", len(text.Text),
		"ocr_confidence", text.Confidence,
	)

	res := p.engine.Extract(ctx, text.Text, nil)
	rec := entity.NewRecord(path, entity.EmailMetadata{}, res)

	if p.archive != nil {
		if err := p.archive.Save(ctx, rec); err != nil {
			p.logger.Warn("pipeline.archive_error", "path", path, "error", err)
		}
	}

	p.logger.Info("pipeline.file_done",
		"path", path,
		"method", res.Method,
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// ProcessMessage runs one inbound message: the body text plus the text of
// every attachment, concatenated, with header metadata as fallback signals.
func (p *Processor) ProcessMessage(ctx context.Context, msg mail.Message) (entity.ExtractionRecord, error) {
	ctx = common.WithRequestID(ctx, uuid.New().String())
	ctx = common.WithSource(ctx, msg.Meta.Subject)

	var b strings.Builder
	b.WriteString(msg.Body)

	for _, path := range msg.AttachmentPaths {
		text, err := p.extractor.Extract(ctx, path)
		if err != nil {
			p.logger.Warn("pipeline.attachment_error", "path", path, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text.Text)
	}

	meta := msg.Meta
	res := p.engine.Extract(ctx, b.String(), &meta)
	rec := entity.NewRecord(msg.Meta.Subject, msg.Meta, res)

	if p.archive != nil {
		if err := p.archive.Save(ctx, rec); err != nil {
			p.logger.Warn("pipeline.archive_error", "subject", msg.Meta.Subject, "error", err)
		}
	}
	return rec, nil
}

// ProcessDirectory walks dir and processes every file with a supported
// extension. Individual failures are counted, not fatal.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) ([]entity.ExtractionRecord, Stats, error) {
	var records []entity.ExtractionRecord
	var stats Stats

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.Scanned++

		ext := constants.NormalizeExt(filepath.Ext(path))
		if constants.MapExtToFormat(ext) == "" {
			return nil
		}
		stats.Matched++

		rec, perr := p.ProcessFile(ctx, path)
		if perr != nil {
			p.logger.Error("pipeline.file_error", "path", path, "error", perr)
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return records, stats, fmt.Errorf("walk %s: %w", dir, err)
	}

	p.logger.Info("pipeline.directory_done",
		"dir", dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return records, stats, nil
}
