package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-extractor/constants"
	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

func strp(s string) *string { return &s }
func fp(f float64) *float64 { return &f }

func sampleRecords() []entity.ExtractionRecord {
	return []entity.ExtractionRecord{
		{
			ID:     uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Source: "receipts/acme.pdf",
			Email:  entity.EmailMetadata{Subject: "March claim"},
			Result: entity.ExtractionResult{
				Fields: entity.FieldSet{
					EventDate:      strp("2024-03-15"),
					SubmissionDate: strp("2024-03-15"),
					Amount:         fp(150.0),
					Tax:            fp(12.5),
					InvoiceNumber:  strp("INV-1"),
					Vendor:         strp("Acme Corp"),
				},
				Method:     constants.MethodHybrid,
				Confidence: 0.7,
				LineItems: []entity.LineItem{
					{Name: "Gauze", Price: 4.25},
					{Name: "Saline", Price: 6.00},
				},
			},
			ExtractedAt: time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:     uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Source: "receipts/empty.txt",
			Result: entity.ExtractionResult{
				Method: constants.MethodNone,
			},
			ExtractedAt: time.Date(2024, 3, 16, 11, 0, 0, 0, time.UTC),
		},
	}
}

func TestJSONEnvelope(t *testing.T) {
	out, err := JSON(sampleRecords())
	require.NoError(t, err)

	var env struct {
		GeneratedAt time.Time         `json:"generated_at"`
		Count       int               `json:"count"`
		Claims      []json.RawMessage `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, 2, env.Count)
	assert.Len(t, env.Claims, 2)
	assert.False(t, env.GeneratedAt.IsZero())

	var first map[string]any
	require.NoError(t, json.Unmarshal(env.Claims[0], &first))
	result := first["result"].(map[string]any)
	fields := result["fields"].(map[string]any)
	assert.Equal(t, "Acme Corp", fields["vendor"])
	assert.Equal(t, "hybrid", result["extraction_method"])
	_, hasTax := fields["tax"]
	assert.True(t, hasTax)
}

func TestJSONOmitsAbsentFields(t *testing.T) {
	out, err := JSON(sampleRecords()[1:])
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"vendor"`, "absent fields are omitted, not null")
}

func TestCSVRows(t *testing.T) {
	out, err := CSV(sampleRecords())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")

	header := rows[0]
	assert.Equal(t, "id", header[0])
	assert.Equal(t, "vendor", header[9])

	first := rows[1]
	assert.Equal(t, "receipts/acme.pdf", first[1])
	assert.Equal(t, "2024-03-15", first[3])
	assert.Equal(t, "150.00", first[5])
	assert.Equal(t, "Acme Corp", first[9])
	assert.Equal(t, "hybrid", first[10])
	assert.Equal(t, "Gauze ($4.25); Saline ($6.00)", first[12])

	second := rows[2]
	assert.Equal(t, "", second[3], "absent fields render empty")
	assert.Equal(t, "none", second[10])
}

func TestXLSXWorkbook(t *testing.T) {
	out, err := XLSX(sampleRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Claims")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Event Date", rows[0][0])
	assert.Equal(t, "2024-03-15", rows[1][0])
	assert.Equal(t, "Acme Corp", rows[1][2])
	assert.Equal(t, "hybrid", rows[1][7])
}

func TestEncodeDispatch(t *testing.T) {
	recs := sampleRecords()

	jsonOut, err := Encode(recs, "json")
	require.NoError(t, err)
	assert.True(t, json.Valid(jsonOut))

	csvOut, err := Encode(recs, "CSV")
	require.NoError(t, err)
	assert.Contains(t, string(csvOut), "invoice_number")

	fallback, err := Encode(recs, "unknown-format")
	require.NoError(t, err)
	assert.True(t, json.Valid(fallback), "unknown formats fall back to JSON")
}
