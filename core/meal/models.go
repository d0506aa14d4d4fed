package meal

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cantine/core"
)

var ErrInvalidType = errors.New("meal type must be one of A or B")

// Type is one of the two fixed choices of a Meal.
type Type string

const (
	TypeA Type = "A"
	TypeB Type = "B"
)

var Types = []Type{TypeA, TypeB}

func (t Type) Valid() bool { return t == TypeA || t == TypeB }

// ParseType upper-cases s and checks that it is a valid Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(core.CleanString(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

type Meal struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	SelectionStart time.Time `json:"selection_start" db:"selection_start"` // UTC
	SelectionEnd   time.Time `json:"selection_end" db:"selection_end"`     // UTC
	EffectiveStart time.Time `json:"effective_start" db:"effective_start"` // UTC
	EffectiveEnd   time.Time `json:"effective_end" db:"effective_end"`     // UTC
	CreatedAt      time.Time `json:"created_at" db:"created_at"`           // UTC
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`           // UTC
}

// NewMeal contains information needed to create a new Meal.
type NewMeal struct {
	Name           string    `json:"name" validate:"required"`
	SelectionStart time.Time `json:"selection_start" validate:"required"`
	SelectionEnd   time.Time `json:"selection_end" validate:"required"`
	EffectiveStart time.Time `json:"effective_start" validate:"required"`
	EffectiveEnd   time.Time `json:"effective_end" validate:"required"`
}

func (nm *NewMeal) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	return validate.Struct(nm)
}

// UpdateMeal defines what information may be provided to modify an existing Meal.
// Omitted fields keep their current value.
type UpdateMeal struct {
	Name           *string    `json:"name"`
	SelectionStart *time.Time `json:"selection_start"`
	SelectionEnd   *time.Time `json:"selection_end"`
	EffectiveStart *time.Time `json:"effective_start"`
	EffectiveEnd   *time.Time `json:"effective_end"`
}

// Merge applies the set fields of um on top of orig.
func (um UpdateMeal) Merge(orig Meal) NewMeal {
	nm := NewMeal{
		Name:           orig.Name,
		SelectionStart: orig.SelectionStart,
		SelectionEnd:   orig.SelectionEnd,
		EffectiveStart: orig.EffectiveStart,
		EffectiveEnd:   orig.EffectiveEnd,
	}
	if um.Name != nil {
		nm.Name = *um.Name
	}
	if um.SelectionStart != nil {
		nm.SelectionStart = *um.SelectionStart
	}
	if um.SelectionEnd != nil {
		nm.SelectionEnd = *um.SelectionEnd
	}
	if um.EffectiveStart != nil {
		nm.EffectiveStart = *um.EffectiveStart
	}
	if um.EffectiveEnd != nil {
		nm.EffectiveEnd = *um.EffectiveEnd
	}
	return nm
}

// Validate merges um into orig and validates the result as a whole.
func (um UpdateMeal) Validate(orig Meal, validate *validator.Validate) (NewMeal, error) {
	nm := um.Merge(orig)
	if err := nm.Validate(validate); err != nil {
		return NewMeal{}, err
	}
	return nm, nil
}
