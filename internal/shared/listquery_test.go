package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBareListing(t *testing.T) {
	assert.True(t, NewListQuery().Bare())

	cases := map[string]ListQuery{
		"offset":  {Offset: 5, Limit: DefaultLimit, OrderBy: DefaultOrder},
		"limit":   {Offset: 0, Limit: 25, OrderBy: DefaultOrder},
		"order":   {Offset: 0, Limit: DefaultLimit, OrderBy: "-id"},
		"filters": {Offset: 0, Limit: DefaultLimit, OrderBy: DefaultOrder, Filters: []Filter{{Column: "title", Value: "x"}}},
	}
	for name, q := range cases {
		assert.False(t, q.Bare(), name)
	}
}

func TestOrderDirection(t *testing.T) {
	q := ListQuery{OrderBy: "price"}
	column, desc := q.Order()
	assert.Equal(t, "price", column)
	assert.False(t, desc)
	assert.Equal(t, "price ASC", q.OrderClause())

	q.OrderBy = "-price"
	column, desc = q.Order()
	assert.Equal(t, "price", column)
	assert.True(t, desc)
	assert.Equal(t, "price DESC", q.OrderClause())
}

func TestValidateBoundsAndSortColumn(t *testing.T) {
	sortable := map[string]bool{"id": true, "title": true}

	require.NoError(t, NewListQuery().Validate(sortable))
	require.NoError(t, ListQuery{Limit: 1, OrderBy: "-title"}.Validate(sortable))

	assert.ErrorIs(t, ListQuery{Offset: -1, Limit: 10, OrderBy: "id"}.Validate(sortable), ErrValidation)
	assert.ErrorIs(t, ListQuery{Limit: 0, OrderBy: "id"}.Validate(sortable), ErrValidation)
	assert.ErrorIs(t, ListQuery{Limit: 10, OrderBy: "price"}.Validate(sortable), ErrValidation)
	assert.ErrorIs(t, ListQuery{Limit: 10, OrderBy: "-"}.Validate(sortable), ErrValidation)
	assert.ErrorIs(t, ListQuery{Limit: 10}.Validate(sortable), ErrValidation)
}
