package httpx

import (
	"net/http"
	"strconv"

	"github.com/showcase-api/showcase/internal/shared"
)

// ListQuery extracts offset, limit and order_by query parameters, falling
// back to the listing defaults. Bounds and the sort column are validated by
// the service layer.
func ListQuery(r *http.Request) shared.ListQuery {
	q := shared.NewListQuery()
	values := r.URL.Query()

	if raw := values.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			q.Offset = offset
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			q.Limit = limit
		}
	}
	if raw := values.Get("order_by"); raw != "" {
		q.OrderBy = raw
	}
	return q
}
