// Package store is the persistence layer over the permit database.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

// ErrNotFound marks a lookup for a row that does not exist. Handlers translate
// it to a 404.
var ErrNotFound = eris.New("store: not found")

// Store defines the order persistence interface consumed by the API and the
// ingest pipeline.
type Store interface {
	ListOrders(ctx context.Context, f query.Filters, sort query.SortSpec, page query.PageRequest) (*query.Page[model.Order], error)
	GetOrder(ctx context.Context, id string) (*model.Order, []model.LineItem, error)
	Ports(ctx context.Context) ([]string, error)
	MaxOrderDate(ctx context.Context) (*time.Time, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
