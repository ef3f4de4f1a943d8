package entity

import (
	"github.com/joseph-ayodele/claims-extractor/constants"
)

// FieldSet is the canonical structured output of an extraction pass.
// Pointer fields distinguish "absent" from zero values; extractors never
// populate a field with a placeholder.
type FieldSet struct {
	EventDate      *string  `json:"event_date,omitempty"`      // YYYY-MM-DD
	SubmissionDate *string  `json:"submission_date,omitempty"` // YYYY-MM-DD
	Amount         *float64 `json:"amount,omitempty"`
	Tax            *float64 `json:"tax,omitempty"`
	InvoiceNumber  *string  `json:"invoice_number,omitempty"`
	PolicyNumber   *string  `json:"policy_number,omitempty"`
	Vendor         *string  `json:"vendor,omitempty"`
}

// IsEmpty reports whether no field carries a value.
func (f FieldSet) IsEmpty() bool {
	return f.EventDate == nil && f.SubmissionDate == nil && f.Amount == nil &&
		f.Tax == nil && f.InvoiceNumber == nil && f.PolicyNumber == nil && f.Vendor == nil
}

// HasAnchor reports whether at least one anchor field is populated.
// Anchor fields are the minimum evidence of a meaningful extraction.
func (f FieldSet) HasAnchor() bool {
	return f.Amount != nil || f.InvoiceNumber != nil || f.Vendor != nil || f.EventDate != nil
}

// MergeMissing fills nil fields of f from other without overwriting any value
// already present. Returns true if at least one field was filled.
func (f *FieldSet) MergeMissing(other FieldSet) bool {
	filled := false
	mergeStr := func(dst **string, src *string) {
		if *dst == nil && src != nil {
			*dst = src
			filled = true
		}
	}
	mergeNum := func(dst **float64, src *float64) {
		if *dst == nil && src != nil {
			*dst = src
			filled = true
		}
	}
	mergeStr(&f.EventDate, other.EventDate)
	mergeStr(&f.SubmissionDate, other.SubmissionDate)
	mergeNum(&f.Amount, other.Amount)
	mergeNum(&f.Tax, other.Tax)
	mergeStr(&f.InvoiceNumber, other.InvoiceNumber)
	mergeStr(&f.PolicyNumber, other.PolicyNumber)
	mergeStr(&f.Vendor, other.Vendor)
	return filled
}

// LineItem is a single "description + price" row found by the pattern extractor.
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// EmailMetadata carries side-channel signals from the upstream mail/OCR layer.
// Used only as extraction fallbacks, never as primary evidence.
type EmailMetadata struct {
	Subject string `json:"subject,omitempty"`
	From    string `json:"from,omitempty"`
	Date    string `json:"date,omitempty"`
}

// ExtractionResult is a FieldSet plus its provenance and aggregate confidence.
// Subtotal and LineItems come from the pattern path only; they sit outside the
// canonical FieldSet because the model is never asked for them.
type ExtractionResult struct {
	Fields         FieldSet                   `json:"fields"`
	Method         constants.ExtractionMethod `json:"extraction_method"`
	Confidence     float32                    `json:"confidence"`
	Subtotal       *float64                   `json:"subtotal,omitempty"`
	LineItems      []LineItem                 `json:"items,omitempty"`
	RawTextPreview string                     `json:"raw_text_preview,omitempty"`
}
