package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func orderColumns() []string {
	return []string{"id", "permit_number", "agent_name", "supplier_name", "port_name",
		"amount", "currency", "permit_type", "status", "requested_date", "created_at"}
}

func TestListOrders_NoFilters(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT count\(\*\) FROM orders o`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`FROM orders o ORDER BY o\.requested_date DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(25, 0).
		WillReturnRows(pgxmock.NewRows(orderColumns()).
			AddRow("o1", "PN-1", "Alpha Trading", "Acme Pharma", "Djibouti",
				1000.0, "USD", model.PermitMedicine, model.StatusApproved, now, now).
			AddRow("o2", "PN-2", "Beta Imports", "Zenith Labs", "Modjo",
				2500.0, "EUR", model.PermitMedicine, model.StatusRequested, now, now))

	page, err := s.ListOrders(context.Background(), query.Filters{},
		query.ResolveSort(query.OrderSortColumns, "", "", "date", "desc"),
		query.PageRequest{Page: 1, PageSize: 25})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "PN-1", page.Data[0].PermitNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrders_FiltersShareWhereClause(t *testing.T) {
	s, mock := newMockStore(t)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Both the count and the page query must carry the same predicate and args.
	mock.ExpectQuery(`SELECT count\(\*\) FROM orders o WHERE o\.permit_type = \$1 AND o\.requested_date >= \$2`).
		WithArgs("medicine", from).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM orders o WHERE o\.permit_type = \$1 AND o\.requested_date >= \$2 ORDER BY o\.amount ASC LIMIT \$3 OFFSET \$4`).
		WithArgs("medicine", from, 10, 20).
		WillReturnRows(pgxmock.NewRows(orderColumns()))

	page, err := s.ListOrders(context.Background(),
		query.Filters{Type: model.PermitMedicine, DateFrom: &from},
		query.ResolveSort(query.OrderSortColumns, "amount", "asc", "date", "desc"),
		query.PageRequest{Page: 3, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_WithLineItems(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM orders o WHERE o\.id = \$1`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows(orderColumns()).
			AddRow("o1", "PN-1", "Alpha Trading", "Acme Pharma", "Djibouti",
				1000.0, "USD", model.PermitMedicine, model.StatusApproved, now, now))
	mock.ExpectQuery(`FROM order_items\s+WHERE order_id = \$1`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "generic_name", "brand_name",
			"manufacturer", "dosage_form", "dosage_strength", "unit", "quantity",
			"unit_price", "line_total", "norm_generic_name", "norm_dosage_form", "norm_dosage_strength"}).
			AddRow("li1", "o1", "Paracetamol 500mg Tablet", "Panadol", "GSK",
				"Tablet", "500mg", "pack", 100.0, 2.5, 250.0,
				"paracetamol", "tablet", "500"))

	order, items, err := s.GetOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "PN-1", order.PermitNumber)
	require.Len(t, items, 1)
	assert.Equal(t, "paracetamol", items[0].NormGenericName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM orders o WHERE o\.id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, _, err := s.GetOrder(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPorts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT DISTINCT port_name FROM orders`).
		WillReturnRows(pgxmock.NewRows([]string{"port_name"}).
			AddRow("Djibouti").AddRow("Modjo"))

	ports, err := s.Ports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Djibouti", "Modjo"}, ports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxOrderDate_Empty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT max\(requested_date\) FROM orders`).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(nil))

	latest, err := s.MaxOrderDate(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS orders`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
