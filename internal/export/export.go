// Package export renders extraction records into JSON, CSV, or XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Encode renders records in the requested format. Unknown formats fall back
// to JSON.
func Encode(records []entity.ExtractionRecord, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return CSV(records)
	case FormatXLSX:
		return XLSX(records)
	default:
		return JSON(records)
	}
}

type jsonEnvelope struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Count       int                       `json:"count"`
	Claims      []entity.ExtractionRecord `json:"claims"`
}

// JSON renders an envelope with generation metadata plus the full records.
func JSON(records []entity.ExtractionRecord) ([]byte, error) {
	env := jsonEnvelope{
		GeneratedAt: time.Now().UTC(),
		Count:       len(records),
		Claims:      records,
	}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

// CSV renders one flat row per record. Line items collapse into a single
// summary column since CSV has no nesting.
func CSV(records []entity.ExtractionRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "source", "subject", "event_date", "submission_date",
		"amount", "tax", "invoice_number", "policy_number", "vendor",
		"method", "confidence", "items", "extracted_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		f := r.Result.Fields
		row := []string{
			r.ID.String(),
			r.Source,
			r.Email.Subject,
			strOrEmpty(f.EventDate),
			strOrEmpty(f.SubmissionDate),
			numOrEmpty(f.Amount),
			numOrEmpty(f.Tax),
			strOrEmpty(f.InvoiceNumber),
			strOrEmpty(f.PolicyNumber),
			strOrEmpty(f.Vendor),
			string(r.Result.Method),
			fmt.Sprintf("%.2f", r.Result.Confidence),
			summarizeItems(r.Result.LineItems),
			r.ExtractedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func summarizeItems(items []entity.LineItem) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s ($%.2f)", it.Name, it.Price))
	}
	return strings.Join(parts, "; ")
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func numOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *f)
}
