package constants

// ExtractionMethod is the provenance tag on an extraction result.
type ExtractionMethod string

// Stable values (these exact strings appear in exported records).
const (
	MethodNone    ExtractionMethod = "none"    // nothing extracted (empty input)
	MethodPattern ExtractionMethod = "pattern" // regex/heuristic extraction only
	MethodModel   ExtractionMethod = "model"   // remote inference only
	MethodHybrid  ExtractionMethod = "hybrid"  // model seeded, pattern backfilled
)

// Extraction defaults and caps.
const (
	// ModelAcceptThreshold is the minimum model confidence above which
	// inference output is adopted by the hybrid engine.
	ModelAcceptThreshold float32 = 0.5

	// PatternConfidence is the fixed confidence assigned to pattern-only results.
	PatternConfidence float32 = 0.6

	// MaxPromptTextLen is the character budget for receipt text embedded in the
	// extraction prompt.
	MaxPromptTextLen = 2000

	// MaxVendorLen caps vendor/merchant strings.
	MaxVendorLen = 100

	// MaxRefLen caps invoice/policy reference tokens.
	MaxRefLen = 50

	// RawPreviewLen is how much raw text is carried on a result for auditing.
	RawPreviewLen = 500
)
