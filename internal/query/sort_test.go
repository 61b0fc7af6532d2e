package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSort_Known(t *testing.T) {
	s := ResolveSort(OrderSortColumns, "amount", "asc", "date", "desc")
	assert.Equal(t, "o.amount", s.Column)
	assert.Equal(t, "ASC", s.Direction)
	assert.Equal(t, " ORDER BY o.amount ASC", s.OrderBy())
}

func TestResolveSort_UnknownFallsBack(t *testing.T) {
	s := ResolveSort(OrderSortColumns, "nonsense", "asc", "date", "desc")
	assert.Equal(t, "o.requested_date", s.Column)
	assert.Equal(t, "DESC", s.Direction)
}

func TestResolveSort_InjectionAttemptFallsBack(t *testing.T) {
	s := ResolveSort(OrderSortColumns, "'; DROP TABLE orders--", "desc", "date", "desc")
	assert.Equal(t, "o.requested_date", s.Column)
	assert.Equal(t, "DESC", s.Direction)
}

func TestResolveSort_BadDirectionFallsBack(t *testing.T) {
	s := ResolveSort(ProductSortColumns, "value", "sideways", "orders", "desc")
	assert.Equal(t, "total_value", s.Column)
	assert.Equal(t, "DESC", s.Direction)
}

func TestResolveSort_DirectionCaseInsensitive(t *testing.T) {
	s := ResolveSort(ProductSortColumns, "name", "Asc", "orders", "desc")
	assert.Equal(t, "generic_name", s.Column)
	assert.Equal(t, "ASC", s.Direction)
}
