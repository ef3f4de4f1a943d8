package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionRecord is an ExtractionResult wrapped with the envelope the
// store/export layers need. The core never persists these itself; ownership
// passes to the caller.
type ExtractionRecord struct {
	ID          uuid.UUID        `json:"id"`
	Source      string           `json:"source"` // file path or message id
	Email       EmailMetadata    `json:"email"`
	Result      ExtractionResult `json:"result"`
	ExtractedAt time.Time        `json:"extracted_at"`
}

// NewRecord stamps a result with an id and extraction time.
func NewRecord(source string, meta EmailMetadata, res ExtractionResult) ExtractionRecord {
	return ExtractionRecord{
		ID:          uuid.New(),
		Source:      source,
		Email:       meta,
		Result:      res,
		ExtractedAt: time.Now().UTC(),
	}
}
