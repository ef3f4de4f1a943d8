package inference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"vendor": "Acme"}`, `{"vendor": "Acme"}`},
		{"surrounding prose", `Sure, here are the fields: {"vendor": "Acme"} Hope that helps!`, `{"vendor": "Acme"}`},
		{"markdown fence", "```json\n{\"vendor\": \"Acme\"}\n```", `{"vendor": "Acme"}`},
		{"plain fence", "```\n{\"vendor\": \"Acme\"}\n```", `{"vendor": "Acme"}`},
		{"nested object", `{"a": {"b": 1}, "c": 2}`, `{"a": {"b": 1}, "c": 2}`},
		{"brace inside string", `{"vendor": "Acme {Inc}"}`, `{"vendor": "Acme {Inc}"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestExtractJSONObjectNone(t *testing.T) {
	for _, in := range []string{"", "no json here", "{unterminated"} {
		_, err := ExtractJSONObject(in)
		assert.ErrorIs(t, err, ErrNoJSON, "input %q", in)
	}
}

func TestDecodeFieldsFull(t *testing.T) {
	text := `{"event_date": "2024-03-15", "claim_amount": 150.0, "invoice_number": "INV-1",
		"policy_number": "POL-9", "vendor": "Acme Corp", "tax": 12.5}`

	fs, err := DecodeFields(text, nil)
	require.NoError(t, err)
	require.NotNil(t, fs.EventDate)
	assert.Equal(t, "2024-03-15", *fs.EventDate)
	require.NotNil(t, fs.Amount)
	assert.Equal(t, 150.0, *fs.Amount)
	require.NotNil(t, fs.Tax)
	assert.Equal(t, 12.5, *fs.Tax)
	require.NotNil(t, fs.InvoiceNumber)
	assert.Equal(t, "INV-1", *fs.InvoiceNumber)
	require.NotNil(t, fs.PolicyNumber)
	assert.Equal(t, "POL-9", *fs.PolicyNumber)
	require.NotNil(t, fs.Vendor)
	assert.Equal(t, "Acme Corp", *fs.Vendor)
	assert.Nil(t, fs.SubmissionDate)
}

func TestDecodeFieldsDropsNulls(t *testing.T) {
	fs, err := DecodeFields(`{"vendor": null, "claim_amount": 150.0, "invoice_number": "INV-1"}`, nil)
	require.NoError(t, err)
	assert.Nil(t, fs.Vendor)
	require.NotNil(t, fs.Amount)
	assert.Equal(t, 150.0, *fs.Amount)
	require.NotNil(t, fs.InvoiceNumber)
	assert.Equal(t, "INV-1", *fs.InvoiceNumber)
}

func TestDecodeFieldsSynonyms(t *testing.T) {
	fs, err := DecodeFields(`{"total": 99.0, "merchant": "Corner Shop", "date": "2024-01-02"}`, nil)
	require.NoError(t, err)
	require.NotNil(t, fs.Amount)
	assert.Equal(t, 99.0, *fs.Amount)
	require.NotNil(t, fs.Vendor)
	assert.Equal(t, "Corner Shop", *fs.Vendor)
	require.NotNil(t, fs.EventDate)
	assert.Equal(t, "2024-01-02", *fs.EventDate)
}

func TestDecodeFieldsCoercesAndNormalizes(t *testing.T) {
	fs, err := DecodeFields(`{"claim_amount": "$1,250.75", "event_date": "03/15/2024"}`, nil)
	require.NoError(t, err)
	require.NotNil(t, fs.Amount)
	assert.Equal(t, 1250.75, *fs.Amount)
	require.NotNil(t, fs.EventDate)
	assert.Equal(t, "2024-03-15", *fs.EventDate)
}

func TestDecodeFieldsDropsGarbageValues(t *testing.T) {
	fs, err := DecodeFields(`{"claim_amount": "lots", "event_date": "sometime", "vendor": "N/A", "notes": "extra"}`, nil)
	require.NoError(t, err)
	assert.True(t, fs.IsEmpty(), "unparseable and placeholder values are dropped, unknown keys ignored")
}

func TestDecodeFieldsCapsLongStrings(t *testing.T) {
	long := strings.Repeat("x", 300)
	fs, err := DecodeFields(`{"vendor": "`+long+`", "invoice_number": "`+long+`"}`, nil)
	require.NoError(t, err)
	require.NotNil(t, fs.Vendor)
	assert.Len(t, *fs.Vendor, 100)
	require.NotNil(t, fs.InvoiceNumber)
	assert.Len(t, *fs.InvoiceNumber, 50)
}

func TestDecodeFieldsNoJSON(t *testing.T) {
	_, err := DecodeFields("the model rambled and produced nothing structured", nil)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestBuildExtractionPromptTruncates(t *testing.T) {
	long := strings.Repeat("a", 5000)
	p := BuildExtractionPrompt(long, PromptMetadata{})
	assert.Contains(t, p, "...")
	assert.Less(t, len(p), 2200)
}

func TestBuildExtractionPromptMetadata(t *testing.T) {
	p := BuildExtractionPrompt("body", PromptMetadata{Subject: "Claim receipt", From: "billing@acme.com"})
	assert.Contains(t, p, "Subject: Claim receipt")
	assert.Contains(t, p, "From: billing@acme.com")
	assert.Contains(t, p, "body")
}
