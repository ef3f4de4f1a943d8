package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }
func fp(f float64) *float64 { return &f }

func TestIsEmpty(t *testing.T) {
	assert.True(t, FieldSet{}.IsEmpty())
	assert.False(t, FieldSet{Tax: fp(1.50)}.IsEmpty())
	assert.False(t, FieldSet{PolicyNumber: strp("POL-9")}.IsEmpty())
}

func TestHasAnchor(t *testing.T) {
	assert.False(t, FieldSet{}.HasAnchor())
	assert.True(t, FieldSet{Amount: fp(10)}.HasAnchor())
	assert.True(t, FieldSet{InvoiceNumber: strp("INV-1")}.HasAnchor())
	assert.True(t, FieldSet{Vendor: strp("Acme")}.HasAnchor())
	assert.True(t, FieldSet{EventDate: strp("2024-03-15")}.HasAnchor())

	// Secondary fields alone are not enough to anchor an extraction.
	assert.False(t, FieldSet{
		SubmissionDate: strp("2024-03-16"),
		Tax:            fp(2.00),
		PolicyNumber:   strp("POL-9"),
	}.HasAnchor())
}

func TestMergeMissingFillsOnlyNilFields(t *testing.T) {
	f := FieldSet{
		Amount: fp(150.00),
		Vendor: strp("Acme"),
	}
	other := FieldSet{
		Amount:        fp(999.99),
		Vendor:        strp("Other Corp"),
		EventDate:     strp("2024-03-15"),
		InvoiceNumber: strp("INV-100"),
	}

	filled := f.MergeMissing(other)
	assert.True(t, filled)

	assert.Equal(t, 150.00, *f.Amount, "existing values survive the merge")
	assert.Equal(t, "Acme", *f.Vendor)
	assert.Equal(t, "2024-03-15", *f.EventDate)
	assert.Equal(t, "INV-100", *f.InvoiceNumber)
}

func TestMergeMissingReportsNothingFilled(t *testing.T) {
	f := FieldSet{Amount: fp(10)}
	assert.False(t, f.MergeMissing(FieldSet{}))
	assert.False(t, f.MergeMissing(FieldSet{Amount: fp(20)}))
	assert.Equal(t, 10.0, *f.Amount)
}

func TestMergeMissingIntoEmpty(t *testing.T) {
	var f FieldSet
	other := FieldSet{
		EventDate:      strp("2024-03-15"),
		SubmissionDate: strp("2024-03-16"),
		Amount:         fp(50),
		Tax:            fp(4.50),
		InvoiceNumber:  strp("INV-1"),
		PolicyNumber:   strp("POL-1"),
		Vendor:         strp("Acme"),
	}
	assert.True(t, f.MergeMissing(other))
	assert.Equal(t, other, f)
}

func TestNewRecord(t *testing.T) {
	meta := EmailMetadata{Subject: "receipt", From: "a@b.com"}
	res := ExtractionResult{Confidence: 0.6}

	rec := NewRecord("inbox/42", meta, res)
	require.NotEqual(t, [16]byte{}, [16]byte(rec.ID))
	assert.Equal(t, "inbox/42", rec.Source)
	assert.Equal(t, meta, rec.Email)
	assert.Equal(t, res, rec.Result)
	assert.False(t, rec.ExtractedAt.IsZero())
	assert.Equal(t, "UTC", rec.ExtractedAt.Location().String())
}
