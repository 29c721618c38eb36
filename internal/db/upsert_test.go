package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:        "nem.dispatch_data",
		Columns:      []string{"settlementdate", "duid", "scadavalue"},
		ConflictKeys: []string{"settlementdate", "duid"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:        "nem.dispatch_data",
		ConflictKeys: []string{"settlementdate"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:   "nem.dispatch_data",
		Columns: []string{"settlementdate", "duid"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_FullRowOverwrite(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_nem_dispatch_data"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(
		pgx.Identifier{"_tmp_upsert_nem_dispatch_data"},
		[]string{"settlementdate", "duid", "scadavalue"},
	).WillReturnResult(2)
	// Non-key columns are overwritten from EXCLUDED
	mock.ExpectExec(`INSERT INTO "nem"\."dispatch_data" .+ ON CONFLICT \("settlementdate", "duid"\) DO UPDATE SET "scadavalue" = EXCLUDED\."scadavalue"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "nem.dispatch_data",
		Columns:      []string{"settlementdate", "duid", "scadavalue"},
		ConflictKeys: []string{"settlementdate", "duid"},
	}, [][]any{
		{"2025-01-15 10:30:00", "BASTYAN", 82.5},
		{"2025-01-15 10:30:00", "YWPS1", 351.2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"nem.price_data", `"nem"."price_data"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeTable(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	got := quoteAndJoin([]string{"settlementdate", "duid"})
	assert.Equal(t, `"settlementdate", "duid"`, got)
}
