// Package hybrid arbitrates between the remote model and the pattern
// extractor, producing one extraction result per document.
package hybrid

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-extractor/constants"
	"github.com/joseph-ayodele/claims-extractor/internal/common"
	"github.com/joseph-ayodele/claims-extractor/internal/entity"
	"github.com/joseph-ayodele/claims-extractor/internal/inference"
	"github.com/joseph-ayodele/claims-extractor/internal/pattern"
)

// ModelClient is the slice of the inference client the engine needs.
// Kept narrow so tests can stub model behavior without a server.
type ModelClient interface {
	Generate(ctx context.Context, prompt string, opts inference.GenerateOptions) (*inference.Response, error)
	DecodeStructuredOutput(text string) (entity.FieldSet, error)
	CheckHealth(ctx context.Context) bool
}

// Config tunes arbitration behavior.
type Config struct {
	// AcceptThreshold is the minimum model confidence (exclusive) for the
	// model's fields to be adopted.
	AcceptThreshold float32
	// PatternConfidence is the fixed confidence of pattern-only results.
	PatternConfidence float32
	// UseFallback enables the pattern path. Disabled, the engine reports
	// whatever the model produced, or nothing.
	UseFallback bool
	// ProbeHealth gates each model attempt behind a health check.
	ProbeHealth bool
}

// Engine runs the hybrid extraction flow. A nil model client degrades
// every call to the pattern path.
type Engine struct {
	model  ModelClient
	cfg    Config
	logger *slog.Logger
}

// NewEngine builds an engine, filling unset config fields with defaults.
func NewEngine(model ModelClient, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AcceptThreshold <= 0 {
		cfg.AcceptThreshold = constants.ModelAcceptThreshold
	}
	if cfg.PatternConfidence <= 0 {
		cfg.PatternConfidence = constants.PatternConfidence
	}
	return &Engine{model: model, cfg: cfg, logger: logger}
}

// Extract produces one result for the document text. It never returns an
// error: model failures degrade to the pattern path, and an unusable
// document yields method "none" with zero confidence.
func (e *Engine) Extract(ctx context.Context, text string, meta *entity.EmailMetadata) entity.ExtractionResult {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	res := entity.ExtractionResult{
		Method:         constants.MethodNone,
		RawTextPreview: preview(text),
	}
	if strings.TrimSpace(text) == "" {
		e.logger.Info("hybrid.extract.empty_input", "req_id", reqID)
		return res
	}

	modelConf, modelOK := e.tryModel(ctx, reqID, text, meta, &res)

	if !e.cfg.UseFallback {
		// Method "model" requires at least one anchor field; a confident
		// answer carrying only peripheral fields is not enough evidence.
		if modelOK && res.Fields.HasAnchor() {
			res.Method = constants.MethodModel
			res.Confidence = modelConf
		} else {
			res.Fields = entity.FieldSet{}
		}
		return res
	}

	patternFields := pattern.Extract(text, meta)
	filled := res.Fields.MergeMissing(patternFields)
	res.Subtotal = pattern.ExtractSubtotal(text)
	res.LineItems = pattern.ExtractItems(text)

	switch {
	case modelOK && filled:
		res.Method = constants.MethodHybrid
		res.Confidence = (modelConf + e.cfg.PatternConfidence) / 2
	case modelOK && res.Fields.HasAnchor():
		res.Method = constants.MethodModel
		res.Confidence = modelConf
	case modelOK && !res.Fields.IsEmpty():
		// Model answered without an anchor and the pattern pass added
		// nothing; the blended tag keeps the anchor rule for "model" intact.
		res.Method = constants.MethodHybrid
		res.Confidence = (modelConf + e.cfg.PatternConfidence) / 2
	case !res.Fields.IsEmpty():
		res.Method = constants.MethodPattern
		res.Confidence = e.cfg.PatternConfidence
	}
	finalize(&res)

	e.logger.Info("hybrid.extract.done",
		"req_id", reqID,
		"source", common.SourceFromContext(ctx),
		"method", res.Method,
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// tryModel attempts the model path. On success it writes the decoded fields
// into res and returns the model confidence; any failure or a sub-threshold
// confidence reports not-ok and leaves res untouched.
func (e *Engine) tryModel(ctx context.Context, reqID, text string, meta *entity.EmailMetadata, res *entity.ExtractionResult) (float32, bool) {
	if e.model == nil {
		return 0, false
	}
	if e.cfg.ProbeHealth && !e.model.CheckHealth(ctx) {
		e.logger.Warn("hybrid.model.unhealthy", "req_id", reqID)
		return 0, false
	}

	var pm inference.PromptMetadata
	if meta != nil {
		pm = inference.PromptMetadata{Subject: meta.Subject, From: meta.From}
	}
	resp, err := e.model.Generate(ctx, inference.BuildExtractionPrompt(text, pm), inference.GenerateOptions{})
	if err != nil {
		e.logger.Warn("hybrid.model.generate_error", "req_id", reqID, "error", err)
		return 0, false
	}

	fields, err := e.model.DecodeStructuredOutput(resp.Text)
	if err != nil {
		e.logger.Warn("hybrid.model.decode_error", "req_id", reqID, "error", err)
		return 0, false
	}
	if resp.Confidence <= e.cfg.AcceptThreshold {
		e.logger.Info("hybrid.model.below_threshold",
			"req_id", reqID,
			"confidence", resp.Confidence,
			"threshold", e.cfg.AcceptThreshold,
		)
		return 0, false
	}

	res.Fields = fields
	return resp.Confidence, true
}

// finalize normalizes results that carry no fields at all. The
// submission-date default is not applied here: it belongs to the pattern
// path, which handles it before merging.
func finalize(res *entity.ExtractionResult) {
	if res.Fields.IsEmpty() {
		res.Method = constants.MethodNone
		res.Confidence = 0
	}
}

func preview(text string) string {
	if len(text) > constants.RawPreviewLen {
		return text[:constants.RawPreviewLen]
	}
	return text
}
