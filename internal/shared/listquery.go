package shared

import (
	"fmt"
	"strings"
)

// Listing defaults. A query that uses all of them and carries no filters is
// the "bare" listing, the only variant the cache holds.
const (
	DefaultOffset = 0
	DefaultLimit  = 10
	DefaultOrder  = "id"
)

// Filter is a single equality predicate over a declared column. Instances are
// produced by per-resource typed filter structs, never from raw request input.
type Filter struct {
	Column string
	Value  any
}

// ListQuery describes pagination, ordering and equality filters for a listing.
// OrderBy holds a column name with an optional leading '-' for descending.
type ListQuery struct {
	Offset  int
	Limit   int
	OrderBy string
	Filters []Filter
}

// NewListQuery returns a query with default pagination and ordering.
func NewListQuery() ListQuery {
	return ListQuery{Offset: DefaultOffset, Limit: DefaultLimit, OrderBy: DefaultOrder}
}

// Bare reports whether this is the unfiltered, default-paginated listing.
func (q ListQuery) Bare() bool {
	return len(q.Filters) == 0 &&
		q.Offset == DefaultOffset &&
		q.Limit == DefaultLimit &&
		q.OrderBy == DefaultOrder
}

// Order splits OrderBy into the bare column name and direction.
func (q ListQuery) Order() (column string, desc bool) {
	column = q.OrderBy
	if strings.HasPrefix(column, "-") {
		return strings.TrimPrefix(column, "-"), true
	}
	return column, false
}

// Validate checks pagination bounds and the sort column against the set of
// sortable columns declared by the resource.
func (q ListQuery) Validate(sortable map[string]bool) error {
	if q.Offset < 0 {
		return fmt.Errorf("%w: offset must be >= 0", ErrValidation)
	}
	if q.Limit < 1 {
		return fmt.Errorf("%w: limit must be >= 1", ErrValidation)
	}
	column, _ := q.Order()
	if column == "" || !sortable[column] {
		return fmt.Errorf("%w: cannot order by %q", ErrValidation, column)
	}
	return nil
}

// OrderClause renders the validated ORDER BY fragment.
func (q ListQuery) OrderClause() string {
	column, desc := q.Order()
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
