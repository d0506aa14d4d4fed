package sqlxrepos

import (
	"strings"

	"github.com/trezcool/cantine/core"
)

// orderBy builds an ORDER BY clause out of the allowed orderings, falling back to def.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool, def ...core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		for _, ord := range def {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
