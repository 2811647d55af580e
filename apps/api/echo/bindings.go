package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ignasimgol/tfm-uoc/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the comma separated `ordering` query param; a "-" prefix sorts the field in descending order.
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

// Month is a `YYYY-MM` query param; it defaults to the current month.
type Month struct {
	Year  int
	Month time.Month
}

func (m *Month) Bind(ctx echo.Context, param string) error {
	val := core.CleanString(ctx.QueryParam(param))
	if val == "" {
		now := time.Now().UTC()
		m.Year, m.Month = now.Year(), now.Month()
		return nil
	}
	t, err := time.Parse("2006-01", val)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: param, Error: "month must be formatted as YYYY-MM"})
	}
	m.Year, m.Month = t.Year(), t.Month()
	return nil
}

// intParam returns the integer query param, or `def` when it is missing or malformed.
func intParam(ctx echo.Context, param string, def int) int {
	n, err := strconv.Atoi(ctx.QueryParam(param))
	if err != nil {
		return def
	}
	return n
}
