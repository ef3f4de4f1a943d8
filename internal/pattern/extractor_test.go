package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

func TestExtractBasicReceipt(t *testing.T) {
	text := "Store\nDate: 2024-03-15\nTotal: $50.00"

	fs := Extract(text, nil)

	require.NotNil(t, fs.Amount)
	assert.Equal(t, 50.00, *fs.Amount)
	require.NotNil(t, fs.EventDate)
	assert.Equal(t, "2024-03-15", *fs.EventDate)
	require.NotNil(t, fs.SubmissionDate)
	assert.Equal(t, "2024-03-15", *fs.SubmissionDate)
	assert.Nil(t, fs.Vendor, "bare word without a colon is not a vendor label")
	assert.Nil(t, fs.Tax)
}

func TestExtractAmountMaxOfAllMatches(t *testing.T) {
	text := "Total: $10.00\nSubtotal: $8.00\nTax: $2.00"

	amount := ExtractAmount(text)
	require.NotNil(t, amount)
	assert.Equal(t, 10.00, *amount)

	tax := ExtractTax(text)
	require.NotNil(t, tax)
	assert.Equal(t, 2.00, *tax)

	subtotal := ExtractSubtotal(text)
	require.NotNil(t, subtotal)
	assert.Equal(t, 8.00, *subtotal)
}

func TestExtractAmountThousandsSeparator(t *testing.T) {
	amount := ExtractAmount("Amount due: $1,234.56")
	require.NotNil(t, amount)
	assert.Equal(t, 1234.56, *amount)
}

func TestExtractAmountTrailingSymbol(t *testing.T) {
	amount := ExtractAmount("Zu zahlen: 42.50€")
	require.NotNil(t, amount)
	assert.Equal(t, 42.50, *amount)
}

func TestExtractAmountNoMatch(t *testing.T) {
	assert.Nil(t, ExtractAmount("no currency figures anywhere"))
}

func TestExtractDeterministic(t *testing.T) {
	text := "Invoice #INV-42\nMerchant: Acme Corp\nDate: 05/20/2024\nTotal: $99.99"
	meta := &entity.EmailMetadata{Subject: "Re: your invoice", From: "billing@acme.com"}

	first := Extract(text, meta)
	second := Extract(text, meta)
	assert.Equal(t, first, second)
}

func TestExtractDateServiceDatePriority(t *testing.T) {
	text := "Invoice Date: 01/02/2024\nDate of Service: 03/04/2024"

	d := ExtractDate(text, nil)
	require.NotNil(t, d)
	assert.Equal(t, "2024-03-04", *d, "labeled service date outranks other dates")
}

func TestExtractDateDOSLabel(t *testing.T) {
	d := ExtractDate("DOS: 2024-07-01\nBilled: 2024-07-15", nil)
	require.NotNil(t, d)
	assert.Equal(t, "2024-07-01", *d)
}

func TestExtractDateFormats(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"paid on 03/15/2024", "2024-03-15"},
		{"paid on 25/12/2024", "2024-12-25"}, // day-first when month-first cannot parse
		{"paid on 2024/03/15", "2024-03-15"},
		{"paid on March 15, 2024", "2024-03-15"},
		{"paid on 2024.03.15", "2024-03-15"},
	}
	for _, tc := range tests {
		d := ExtractDate(tc.in, nil)
		require.NotNil(t, d, "input %q", tc.in)
		assert.Equal(t, tc.want, *d, "input %q", tc.in)
	}
}

func TestExtractDateMetaFallback(t *testing.T) {
	meta := &entity.EmailMetadata{Date: "Mon, 15 Jan 2024 10:30:00 +0000"}

	d := ExtractDate("no dates in this text", meta)
	require.NotNil(t, d)
	assert.Equal(t, "2024-01-15", *d)
}

func TestExtractDateNone(t *testing.T) {
	assert.Nil(t, ExtractDate("nothing here", nil))
}

func TestNormalizeDateRejectsGarbage(t *testing.T) {
	_, ok := NormalizeDate("not a date")
	assert.False(t, ok)
	_, ok = NormalizeDate("")
	assert.False(t, ok)
}

func TestExtractVendorLabeled(t *testing.T) {
	v := ExtractVendor("Merchant: Joe's Diner\nTotal: $20.00", nil)
	require.NotNil(t, v)
	assert.Equal(t, "Joe's Diner", *v)
}

func TestExtractVendorLabelRequiresColon(t *testing.T) {
	assert.Nil(t, ExtractVendor("Store\nTotal: $5.00", nil))
}

func TestExtractVendorSubjectFallback(t *testing.T) {
	meta := &entity.EmailMetadata{Subject: "Re: Fwd: Acme Invoice"}

	v := ExtractVendor("no labels here", meta)
	require.NotNil(t, v)
	assert.Equal(t, "Acme Invoice", *v, "reply and forward prefixes stripped")
}

func TestExtractVendorDisplayNameFallback(t *testing.T) {
	meta := &entity.EmailMetadata{From: "Billing Dept <billing@acme.com>"}

	v := ExtractVendor("no labels here", meta)
	require.NotNil(t, v)
	assert.Equal(t, "Billing Dept", *v)
}

func TestExtractVendorDomainFallback(t *testing.T) {
	meta := &entity.EmailMetadata{From: "billing@acme.com"}

	v := ExtractVendor("no labels here", meta)
	require.NotNil(t, v)
	assert.Equal(t, "Acme", *v)
}

func TestExtractVendorLengthCap(t *testing.T) {
	long := "Merchant: A very long vendor name that should definitely exceed the configured hundred character maximum for vendor fields in output"
	v := ExtractVendor(long, nil)
	require.NotNil(t, v)
	assert.LessOrEqual(t, len(*v), 100)
}

func TestExtractRefs(t *testing.T) {
	text := "Invoice #INV-100\nPolicy No: POL-7\nMember ID: M123"

	fs := Extract(text, nil)
	require.NotNil(t, fs.InvoiceNumber)
	assert.Equal(t, "INV-100", *fs.InvoiceNumber)
	require.NotNil(t, fs.PolicyNumber)
	assert.Equal(t, "POL-7", *fs.PolicyNumber)
}

func TestExtractClaimNumberAsInvoice(t *testing.T) {
	fs := Extract("Claim Number: CLM-2024-88", nil)
	require.NotNil(t, fs.InvoiceNumber)
	assert.Equal(t, "CLM-2024-88", *fs.InvoiceNumber)
}

func TestExtractItems(t *testing.T) {
	text := "RECEIPT\nAspirin 200mg  12.99\nBandages  3.50\nSubtotal  16.49\nTax  1.32\nTotal  17.81"

	items := ExtractItems(text)
	require.Len(t, items, 2, "summary lines must not become items")
	assert.Equal(t, "Aspirin 200mg", items[0].Name)
	assert.Equal(t, 12.99, items[0].Price)
	assert.Equal(t, "Bandages", items[1].Name)
	assert.Equal(t, 3.50, items[1].Price)
}

func TestExtractItemsSkipsShortLines(t *testing.T) {
	assert.Empty(t, ExtractItems("a 1\nxy 2"))
}

func TestExtractNeverPanicsOnHostileInput(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t\n  ",
		"$$$$$",
		"Total: $99,999,999,999.99",
		"Date: 99/99/9999",
		string([]byte{0xff, 0xfe, 0x00}),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Extract(in, nil) })
	}
}

func TestParseFailureDiscardsCandidate(t *testing.T) {
	// month 99 fails every layout; no date should surface
	fs := Extract("Date: 99/99/9999", nil)
	assert.Nil(t, fs.EventDate)
}
