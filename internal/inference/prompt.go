package inference

import (
	"strings"

	"github.com/joseph-ayodele/claims-extractor/constants"
)

// BuildSystemPrompt composes the instruction block for field extraction.
// The model must answer with a single JSON object matching the wire schema;
// everything else here exists to keep that output stable across runs.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a claims document parser. Return ONLY a single JSON object, no prose.",
		"Extract these fields from the document text: event_date, submission_date, claim_amount, invoice_number, policy_number, vendor, tax.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Amounts are plain numbers without currency symbols or thousands separators.",
		"If a field is not present in the text, omit it entirely. Never output null.",
		"Do not invent values. Only report what the document states.",
	}
	return strings.Join(parts, " ")
}

// BuildExtractionPrompt packages the document text, truncated so the request
// stays inside the model's context window.
func BuildExtractionPrompt(text string, meta PromptMetadata) string {
	var b strings.Builder
	if s := strings.TrimSpace(meta.Subject); s != "" {
		b.WriteString("Subject: ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	if f := strings.TrimSpace(meta.From); f != "" {
		b.WriteString("From: ")
		b.WriteString(f)
		b.WriteString("\n")
	}

	doc := strings.TrimSpace(text)
	if len(doc) > constants.MaxPromptTextLen {
		doc = doc[:constants.MaxPromptTextLen] + "..."
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(doc)
	return b.String()
}

// PromptMetadata carries optional message context worth surfacing to the model.
type PromptMetadata struct {
	Subject string
	From    string
}

// renderCompletion formats the final completions-style prompt. The stop
// sequences in the request body mirror the "User:" turn marker used here.
func renderCompletion(system, user string) string {
	return system + "\n\nUser: " + user + "\n\nAssistant:"
}
