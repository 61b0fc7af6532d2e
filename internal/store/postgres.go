package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/efda-insights/permit-analytics/internal/db"
	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests inject pgxmock here.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that build their
// own queries (the analytics service, bulk ingest).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// Legacy databases predate the norm_* columns; the migration backfills them as
// nullable so the capability detector flips to the extended column set on the
// next restart without a data rewrite.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	permit_number  TEXT NOT NULL UNIQUE,
	agent_name     TEXT NOT NULL DEFAULT '',
	supplier_name  TEXT NOT NULL DEFAULT '',
	port_name      TEXT NOT NULL DEFAULT '',
	amount         DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency       TEXT NOT NULL DEFAULT '',
	permit_type    TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'requested',
	requested_date TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_requested_date ON orders(requested_date);
CREATE INDEX IF NOT EXISTS idx_orders_permit_type ON orders(permit_type);
CREATE INDEX IF NOT EXISTS idx_orders_port_name ON orders(port_name);
CREATE INDEX IF NOT EXISTS idx_orders_agent_name ON orders(agent_name);
CREATE INDEX IF NOT EXISTS idx_orders_type_date ON orders(permit_type, requested_date);

CREATE TABLE IF NOT EXISTS order_items (
	id              TEXT PRIMARY KEY,
	order_id        TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	generic_name    TEXT NOT NULL DEFAULT '',
	brand_name      TEXT NOT NULL DEFAULT '',
	manufacturer    TEXT NOT NULL DEFAULT '',
	dosage_form     TEXT NOT NULL DEFAULT '',
	dosage_strength TEXT NOT NULL DEFAULT '',
	unit            TEXT NOT NULL DEFAULT '',
	quantity        DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit_price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	line_total      DOUBLE PRECISION NOT NULL DEFAULT 0
);

ALTER TABLE order_items ADD COLUMN IF NOT EXISTS norm_generic_name    TEXT;
ALTER TABLE order_items ADD COLUMN IF NOT EXISTS norm_dosage_form     TEXT;
ALTER TABLE order_items ADD COLUMN IF NOT EXISTS norm_dosage_strength TEXT;

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_generic ON order_items(lower(btrim(coalesce(generic_name, ''))));
CREATE INDEX IF NOT EXISTS idx_order_items_norm_generic ON order_items(lower(btrim(coalesce(norm_generic_name, ''))));
`

const orderSelect = `SELECT o.id, o.permit_number, o.agent_name, o.supplier_name, o.port_name,
	o.amount, o.currency, o.permit_type, o.status, o.requested_date, o.created_at
	FROM orders o`

const lineItemSelect = `SELECT id, order_id, generic_name, brand_name, manufacturer,
	dosage_form, dosage_strength, unit, quantity, unit_price, line_total,
	coalesce(norm_generic_name, ''), coalesce(norm_dosage_form, ''), coalesce(norm_dosage_strength, '')
	FROM order_items`

// orderSearchColumns is the set a free-text search matches against.
var orderSearchColumns = []string{"o.permit_number", "o.agent_name", "o.supplier_name"}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// ListOrders returns one page of orders matching the filters. Total is counted
// under the same WHERE clause, so the envelope stays consistent with the data
// page.
func (s *PostgresStore) ListOrders(ctx context.Context, f query.Filters, sort query.SortSpec, page query.PageRequest) (*query.Page[model.Order], error) {
	b := &query.Builder{}
	f.Apply(b, "o", orderSearchColumns)
	where := b.WhereClause()

	var total int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders o`+where, b.Args()...).Scan(&total)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count orders")
	}

	sql := orderSelect + where + sort.OrderBy() +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, b.ArgCount()+1, b.ArgCount()+2)
	args := append(b.Args(), page.PageSize, page.Offset())

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list orders")
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan order")
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list orders iterate")
	}
	return query.NewPage(orders, total, page), nil
}

// GetOrder returns one order with its line items.
func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*model.Order, []model.LineItem, error) {
	row := s.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, eris.Wrapf(ErrNotFound, "order %s", id)
		}
		return nil, nil, eris.Wrapf(err, "postgres: get order %s", id)
	}

	rows, err := s.pool.Query(ctx,
		lineItemSelect+` WHERE order_id = $1 ORDER BY generic_name, id`, id)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: get line items %s", id)
	}
	defer rows.Close()

	var items []model.LineItem
	for rows.Next() {
		var li model.LineItem
		if err := rows.Scan(&li.ID, &li.OrderID, &li.GenericName, &li.BrandName,
			&li.Manufacturer, &li.DosageForm, &li.DosageStrength, &li.Unit,
			&li.Quantity, &li.UnitPrice, &li.LineTotal,
			&li.NormGenericName, &li.NormDosageForm, &li.NormDosageStrength); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: scan line item")
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "postgres: line items iterate")
	}
	return &o, items, nil
}

// Ports lists the distinct port names seen on orders, for filter dropdowns.
func (s *PostgresStore) Ports(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT port_name FROM orders WHERE port_name <> '' ORDER BY port_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ports")
	}
	defer rows.Close()

	var ports []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "postgres: scan port")
		}
		ports = append(ports, p)
	}
	return ports, eris.Wrap(rows.Err(), "postgres: list ports iterate")
}

// MaxOrderDate returns the latest requested date in the store, or nil when no
// orders exist. Rolling analytics windows anchor on this value rather than on
// the wall clock, so a stale dataset still produces meaningful periods.
func (s *PostgresStore) MaxOrderDate(ctx context.Context) (*time.Time, error) {
	var t *time.Time
	err := s.pool.QueryRow(ctx, `SELECT max(requested_date) FROM orders`).Scan(&t)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: max order date")
	}
	return t, nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.PermitNumber, &o.AgentName, &o.SupplierName,
		&o.PortName, &o.Amount, &o.Currency, &o.PermitType, &o.Status,
		&o.RequestedDate, &o.CreatedAt)
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}
