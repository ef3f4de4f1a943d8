package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/claims-extractor/constants"
	"github.com/joseph-ayodele/claims-extractor/internal/common"
	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

func strp(s string) *string { return &s }
func fp(f float64) *float64 { return &f }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(vendor, eventDate string, amount float64) entity.ExtractionRecord {
	return entity.ExtractionRecord{
		ID:     uuid.New(),
		Source: "test/" + vendor + ".pdf",
		Result: entity.ExtractionResult{
			Fields: entity.FieldSet{
				Vendor:    strp(vendor),
				EventDate: strp(eventDate),
				Amount:    fp(amount),
			},
			Method:     constants.MethodPattern,
			Confidence: 0.6,
		},
		ExtractedAt: time.Now().UTC(),
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := record("Acme", "2024-03-15", 150.0)
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	require.NotNil(t, got.Result.Fields.Vendor)
	assert.Equal(t, "Acme", *got.Result.Fields.Vendor)
	require.NotNil(t, got.Result.Fields.Amount)
	assert.Equal(t, 150.0, *got.Result.Fields.Amount)
	assert.Equal(t, constants.MethodPattern, got.Result.Method)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Nil(t, got)
}

func TestSaveHandlesAbsentFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := entity.ExtractionRecord{
		ID:          uuid.New(),
		Source:      "test/empty.txt",
		Result:      entity.ExtractionResult{Method: constants.MethodNone},
		ExtractedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Result.Fields.IsEmpty())
}

func TestListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, record("Acme Corp", "2024-01-10", 50.0)))
	require.NoError(t, s.Save(ctx, record("Acme Labs", "2024-02-20", 150.0)))
	require.NoError(t, s.Save(ctx, record("Other Co", "2024-03-30", 250.0)))

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	acme, err := s.List(ctx, Filter{Vendor: "acme"})
	require.NoError(t, err)
	assert.Len(t, acme, 2, "vendor filter is a case-insensitive substring match")

	feb, err := s.List(ctx, Filter{FromDate: "2024-02-01", ToDate: "2024-02-28"})
	require.NoError(t, err)
	require.Len(t, feb, 1)
	assert.Equal(t, "Acme Labs", *feb[0].Result.Fields.Vendor)

	big, err := s.List(ctx, Filter{MinAmount: fp(100.0)})
	require.NoError(t, err)
	assert.Len(t, big, 2)

	limited, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
