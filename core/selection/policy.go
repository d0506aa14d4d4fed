package selection

import (
	"strings"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
)

// Policy tells Assign which type to give each student.
type Policy string

const (
	PolicyA      = Policy(meal.TypeA)
	PolicyB      = Policy(meal.TypeB)
	PolicyRandom = Policy("random")
)

func (p Policy) Valid() bool {
	return p == PolicyA || p == PolicyB || p == PolicyRandom
}

// ParsePolicy accepts A, B or random in any case.
func ParsePolicy(s string) (Policy, error) {
	s = core.CleanString(s)
	if strings.EqualFold(s, string(PolicyRandom)) {
		return PolicyRandom, nil
	}
	p := Policy(strings.ToUpper(s))
	if !p.Valid() {
		return "", &PreconditionError{Field: "meal_type", Reason: "must be one of A, B or random"}
	}
	return p, nil
}
