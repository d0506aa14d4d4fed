package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/cantine/core"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=name,-created_at` style query params.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// DestroyMultipleRequest binds `?id=1&id=2`.
type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
