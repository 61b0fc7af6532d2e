package ingest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efda-insights/permit-analytics/internal/normalize"
)

func expectBatchLoad(mock pgxmock.PgxPoolIface, orders, items int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_orders"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_orders"}, orderColumns).
		WillReturnResult(orders)
	mock.ExpectExec(`INSERT INTO "orders"`).
		WillReturnResult(pgxmock.NewResult("INSERT", orders))
	mock.ExpectCommit()
	mock.ExpectRollback()

	mock.ExpectExec(`DELETE FROM order_items WHERE order_id = ANY\(\$1\)`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"order_items"}, lineItemColumns).
		WillReturnResult(items)
}

func testPermits() ([]RawPermit, map[string][]RawProduct) {
	permits := []RawPermit{
		{Ref: "IMP-1", Payload: map[string]any{
			"permit_number": "PN-1", "importer": "Alpha", "requested_date": "2026-01-10",
		}},
		{Ref: "IMP-2", Payload: map[string]any{
			"permit_number": "PN-2", "importer": "Beta", "requested_date": "2026-02-20",
		}},
	}
	products := map[string][]RawProduct{
		"IMP-1": {
			{Ref: "IMP-1", Payload: map[string]any{
				"product_name": "IBUPROFEN 400MG TABLET", "form": "TAB", "strength": "400mg",
			}},
		},
	}
	return permits, products
}

func TestLoaderBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectBatchLoad(mock, 2, 1)

	permits, products := testPermits()
	l := NewLoader(mock, normalize.New(), 500)

	n, items, err := l.loadBatch(context.Background(), permits, products)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(1), items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLoader_DefaultBatchSize(t *testing.T) {
	l := NewLoader(nil, normalize.New(), 0)
	assert.Equal(t, 500, l.batchSize)
}
