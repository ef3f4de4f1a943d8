// Package pattern extracts claim fields from raw receipt or invoice text with
// compiled regex tables. It makes no external calls, never returns an error,
// and is deterministic for identical input; all tables are package-level and
// immutable, so concurrent reuse needs no synchronization.
package pattern

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/claims-extractor/constants"
	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

// decimal is the currency-number shape shared by every money pattern:
// optional thousands separators, optional cents.
const decimal = `\d{1,3}(?:,\d{3})*(?:\.\d{2})?`

// Generic date-shaped patterns, in priority order. The first pattern that
// matches anywhere in the text wins; its match is normalized to YYYY-MM-DD.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`), // MM/DD/YYYY or DD/MM/YYYY
	regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),   // YYYY/MM/DD
	regexp.MustCompile(`\b\d{4}\.\d{1,2}\.\d{1,2}\b`),       // YYYY.MM.DD
	regexp.MustCompile(`[A-Z][a-z]+\s+\d{1,2},?\s+\d{4}`),   // Month DD, YYYY
}

// Labeled service-date patterns get a higher-priority pass for medical and
// insurance documents, where the visit date outranks any other date on the page.
var eventDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)date\s+of\s+service\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2})`),
	regexp.MustCompile(`(?i)service\s+date\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2})`),
	regexp.MustCompile(`(?i)\bDOS\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2})`),
	regexp.MustCompile(`(?i)treatment\s+date\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2})`),
	regexp.MustCompile(`(?i)visit\s+date\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2})`),
}

// Currency-shaped patterns. All matches across the document are collected and
// handed to the total strategy; the scan is deliberately label-agnostic.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[$£€]\s*(` + decimal + `)`),
	regexp.MustCompile(`(` + decimal + `)\s*[$£€]`),
	regexp.MustCompile(`(?i)\btotal[:\s]+[$£€]?\s*(` + decimal + `)`),
	regexp.MustCompile(`(?i)\bamount[:\s]+[$£€]?\s*(` + decimal + `)`),
}

var taxPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btax[:\s]+[$£€]?\s*(` + decimal + `)`),
	regexp.MustCompile(`(?i)\bsales\s+tax[:\s]+[$£€]?\s*(` + decimal + `)`),
	regexp.MustCompile(`(?i)\bVAT[:\s]+[$£€]?\s*(` + decimal + `)`),
}

var subtotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsubtotal[:\s]+[$£€]?\s*(` + decimal + `)`),
	regexp.MustCompile(`(?i)\bsub-total[:\s]+[$£€]?\s*(` + decimal + `)`),
}

// Vendor labels are matched per line and require an explicit colon so bare
// words like "Store" on their own line are not treated as labels.
var vendorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*from\s*:[ \t]*(\S.*)$`),
	regexp.MustCompile(`(?im)^\s*merchant\s*:[ \t]*(\S.*)$`),
	regexp.MustCompile(`(?im)^\s*store\s*:[ \t]*(\S.*)$`),
	regexp.MustCompile(`(?im)^\s*vendor\s*:[ \t]*(\S.*)$`),
}

var invoicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)claim\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)bill\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)receipt\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)reference\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
}

var policyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)policy\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)member\s+id\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)subscriber\s+id\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)insurance\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)account\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
}

var (
	lineItemPattern = regexp.MustCompile(`(\S.*?)\s+\$?\s*(` + decimal + `)\s*$`)
	subjectPrefix   = regexp.MustCompile(`(?i)^(?:re|fwd?|fw)\s*:\s*`)
	displayName     = regexp.MustCompile(`^(.+?)\s*<`)
	senderDomain    = regexp.MustCompile(`@([^.>\s]+)`)
	whitespaceRun   = regexp.MustCompile(`[\s\t\r\n]+`)
)

// Extract runs the full pattern pass over text, with meta as a fallback signal
// for dates and vendor. Best-effort: fields that cannot be positively
// identified stay nil.
func Extract(text string, meta *entity.EmailMetadata) entity.FieldSet {
	fs := entity.FieldSet{
		EventDate:     ExtractDate(text, meta),
		Amount:        ExtractAmount(text),
		Tax:           ExtractTax(text),
		InvoiceNumber: extractRef(text, invoicePatterns),
		PolicyNumber:  extractRef(text, policyPatterns),
		Vendor:        ExtractVendor(text, meta),
	}
	// The document rarely states a separate submission date; default it to the
	// event date so downstream consumers always see a filing date when a
	// service date exists.
	if fs.SubmissionDate == nil && fs.EventDate != nil {
		d := *fs.EventDate
		fs.SubmissionDate = &d
	}
	return fs
}

// ExtractDate finds the document's primary date. A labeled service-date pass
// runs first; then the generic patterns in priority order; then the message
// timestamp from meta.
func ExtractDate(text string, meta *entity.EmailMetadata) *string {
	for _, re := range eventDatePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if d, ok := NormalizeDate(m[1]); ok {
				return &d
			}
		}
	}
	for _, re := range datePatterns {
		if m := re.FindString(text); m != "" {
			if d, ok := NormalizeDate(m); ok {
				return &d
			}
		}
	}
	if meta != nil && meta.Date != "" {
		if d, ok := NormalizeDate(meta.Date); ok {
			return &d
		}
	}
	return nil
}

// ExtractAmount collects every currency-shaped match in the document and
// returns the chosen total, or nil when nothing parses.
func ExtractAmount(text string) *float64 {
	var candidates []float64
	for _, re := range amountPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseMoney(m[1]); ok {
				candidates = append(candidates, v)
			}
		}
	}
	return totalFromCandidates(candidates)
}

// totalFromCandidates picks the grand total from all currency matches.
// Strategy: the maximum, betting that line items and subtotals never exceed
// the total. Known-fragile when a single item outprices an unlabeled total;
// isolated here so a labeled-total-preferring strategy can replace it.
func totalFromCandidates(candidates []float64) *float64 {
	if len(candidates) == 0 {
		return nil
	}
	max := candidates[0]
	for _, v := range candidates[1:] {
		if v > max {
			max = v
		}
	}
	return &max
}

// ExtractTax returns the first labeled tax amount, or nil.
func ExtractTax(text string) *float64 {
	return firstLabeledAmount(text, taxPatterns)
}

// ExtractSubtotal returns the first labeled subtotal amount, or nil.
func ExtractSubtotal(text string) *float64 {
	return firstLabeledAmount(text, subtotalPatterns)
}

func firstLabeledAmount(text string, patterns []*regexp.Regexp) *float64 {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := parseMoney(m[1]); ok {
				return &v
			}
		}
	}
	return nil
}

// ExtractVendor tries explicit labeled fields, then the email subject minus
// reply/forward prefixes, then the sender's display name or domain fragment.
func ExtractVendor(text string, meta *entity.EmailMetadata) *string {
	for _, re := range vendorPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			v := capLen(whitespaceRun.ReplaceAllString(strings.TrimSpace(m[1]), " "), constants.MaxVendorLen)
			if v != "" {
				return &v
			}
		}
	}
	if meta == nil {
		return nil
	}
	if subject := strings.TrimSpace(meta.Subject); subject != "" {
		for {
			stripped := subjectPrefix.ReplaceAllString(subject, "")
			if stripped == subject {
				break
			}
			subject = stripped
		}
		subject = strings.TrimSpace(subject)
		if subject != "" && len(subject) < constants.MaxVendorLen {
			return &subject
		}
	}
	if from := strings.TrimSpace(meta.From); from != "" {
		if m := displayName.FindStringSubmatch(from); m != nil {
			name := strings.TrimSpace(m[1])
			if name != "" {
				return &name
			}
		}
		if m := senderDomain.FindStringSubmatch(from); m != nil {
			frag := capitalize(m[1])
			return &frag
		}
	}
	return nil
}

func extractRef(text string, patterns []*regexp.Regexp) *string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			ref := capLen(strings.TrimSpace(m[1]), constants.MaxRefLen)
			if ref != "" {
				return &ref
			}
		}
	}
	return nil
}

// ExtractItems scans line-by-line for "description + trailing amount" rows.
// Summary lines (total/tax/subtotal/amount keywords) are skipped so they are
// not double-counted as items.
func ExtractItems(text string) []entity.LineItem {
	var items []entity.LineItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 5 {
			continue
		}
		m := lineItemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if isSummaryLine(name) {
			continue
		}
		price, ok := parseMoney(m[2])
		if !ok {
			continue
		}
		items = append(items, entity.LineItem{
			Name:  capLen(name, constants.MaxVendorLen),
			Price: price,
		})
	}
	return items
}

func isSummaryLine(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"total", "tax", "subtotal", "amount"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// parseMoney strips thousands separators and parses a decimal. Failures are
// swallowed; the candidate is simply discarded.
func parseMoney(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func capLen(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
