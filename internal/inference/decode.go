package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/claims-extractor/constants"
	"github.com/joseph-ayodele/claims-extractor/internal/entity"
	"github.com/joseph-ayodele/claims-extractor/internal/pattern"
)

// wireFields maps the JSON keys the model is asked for. Amount fields decode
// to numbers, everything else to strings.
var wireAmountKeys = []string{"claim_amount", "tax"}
var wireDateKeys = []string{"event_date", "submission_date"}
var wireStringKeys = []string{"invoice_number", "policy_number", "vendor"}

// buildFieldSchema returns the JSON-Schema the sanitized model output must
// satisfy. All fields are optional; the shape is what matters.
func buildFieldSchema() map[string]any {
	dateProp := map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
	amountProp := map[string]any{"type": "number", "minimum": 0.0}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"event_date":      dateProp,
			"submission_date": dateProp,
			"claim_amount":    amountProp,
			"tax":             amountProp,
			"invoice_number":  map[string]any{"type": "string", "minLength": 1},
			"policy_number":   map[string]any{"type": "string", "minLength": 1},
			"vendor":          map[string]any{"type": "string", "minLength": 1},
		},
	}
}

// ExtractJSONObject recovers the first complete JSON object from model text.
// Markdown code fences are stripped first, then a balanced-brace scan finds
// the object boundaries so trailing prose does not break decoding.
func ExtractJSONObject(text string) ([]byte, error) {
	s := stripFences(text)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(s[start : i+1]), nil
			}
		}
	}
	return nil, ErrNoJSON
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// sanitizeFields normalizes a decoded object toward the field schema:
// drops nulls and unknown keys, coerces numeric strings, and rewrites
// dates into ISO form. Returns the cleaned JSON and what was dropped.
func sanitizeFields(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)

	// Common synonyms the model drifts into.
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
		}
	}
	rename("amount", "claim_amount")
	rename("total", "claim_amount")
	rename("total_amount", "claim_amount")
	rename("date", "event_date")
	rename("invoice_no", "invoice_number")
	rename("merchant", "vendor")
	rename("merchant_name", "vendor")

	for _, k := range wireAmountKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			// keep as-is
		case string:
			s := strings.TrimSpace(strings.TrimPrefix(t, "$"))
			s = strings.ReplaceAll(s, ",", "")
			if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
				m[k] = f
			} else {
				delete(m, k)
				dropped = append(dropped, k+"(unparseable)")
			}
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	for _, k := range wireDateKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			delete(m, k)
			dropped = append(dropped, k+"(type)")
			continue
		}
		if iso, ok := pattern.NormalizeDate(strings.TrimSpace(s)); ok {
			m[k] = iso
		} else {
			delete(m, k)
			dropped = append(dropped, k+"(unparseable)")
		}
	}

	for _, k := range wireStringKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			delete(m, k)
			dropped = append(dropped, k+"(type)")
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "unknown") {
			delete(m, k)
			dropped = append(dropped, k+"(empty)")
			continue
		}
		m[k] = s
	}

	allowed := map[string]struct{}{
		"event_date": {}, "submission_date": {}, "claim_amount": {}, "tax": {},
		"invoice_number": {}, "policy_number": {}, "vendor": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("inference.decode.sanitized", "dropped", dropped)
	}
	return out, dropped, nil
}

// validateFields checks sanitized JSON against the field schema.
func validateFields(data []byte) error {
	b, err := json.Marshal(buildFieldSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("fields.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

type wireFieldSet struct {
	EventDate      *string  `json:"event_date"`
	SubmissionDate *string  `json:"submission_date"`
	ClaimAmount    *float64 `json:"claim_amount"`
	Tax            *float64 `json:"tax"`
	InvoiceNumber  *string  `json:"invoice_number"`
	PolicyNumber   *string  `json:"policy_number"`
	Vendor         *string  `json:"vendor"`
}

// DecodeFields recovers, sanitizes, validates, and maps model output into a
// field set. Fails with ErrNoJSON when no object could be recovered.
func DecodeFields(text string, logger *slog.Logger) (entity.FieldSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := ExtractJSONObject(text)
	if err != nil {
		return entity.FieldSet{}, err
	}

	clean, _, err := sanitizeFields(raw, logger)
	if err != nil {
		return entity.FieldSet{}, err
	}
	if err := validateFields(clean); err != nil {
		return entity.FieldSet{}, err
	}

	var w wireFieldSet
	if err := json.Unmarshal(clean, &w); err != nil {
		return entity.FieldSet{}, fmt.Errorf("decode fields: %w", err)
	}

	fs := entity.FieldSet{
		EventDate:      w.EventDate,
		SubmissionDate: w.SubmissionDate,
		Amount:         w.ClaimAmount,
		Tax:            w.Tax,
		InvoiceNumber:  capField(w.InvoiceNumber, constants.MaxRefLen),
		PolicyNumber:   capField(w.PolicyNumber, constants.MaxRefLen),
		Vendor:         capField(w.Vendor, constants.MaxVendorLen),
	}
	return fs, nil
}

// DecodeStructuredOutput is the client-flavored entry point used by callers
// that hold a Client and want its logger on the decode path.
func (c *Client) DecodeStructuredOutput(text string) (entity.FieldSet, error) {
	return DecodeFields(text, c.logger)
}

func capField(s *string, n int) *string {
	if s == nil {
		return nil
	}
	v := *s
	if len(v) > n {
		v = v[:n]
	}
	return &v
}
