package selection

import (
	"errors"

	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/student"
)

var errTooFewTokens = errors.New("expected at least 2 fields")

// SelectionRow is a parsed row of a selection import.
type SelectionRow struct {
	Identifier string
	MealType   meal.Type
}

// ParseStudentRow reads `FULL_NAME CLASS [EXTERNAL_LOGIN_ID]`.
func ParseStudentRow(tokens []string) (student.NewStudent, error) {
	if len(tokens) < 2 {
		return student.NewStudent{}, errTooFewTokens
	}
	ns := student.NewStudent{FullName: tokens[0], ClassName: tokens[1]}
	if len(tokens) > 2 {
		ns.ExternalLoginID = tokens[2]
	}
	return ns, nil
}

// ParseSelectionRow reads `IDENTIFIER A|B`, the type being case-insensitive.
func ParseSelectionRow(tokens []string) (SelectionRow, error) {
	if len(tokens) < 2 {
		return SelectionRow{}, errTooFewTokens
	}
	t, err := meal.ParseType(tokens[1])
	if err != nil {
		return SelectionRow{}, err
	}
	return SelectionRow{Identifier: tokens[0], MealType: t}, nil
}
