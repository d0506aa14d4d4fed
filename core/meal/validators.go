package meal

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cantine/core"
)

var (
	windowOrderTag  = "window_order"
	windowOrderText = "{0} must be after the start of its window"
)

// InitValidators registers the Meal validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(mealStructValidation, NewMeal{})
	core.RegisterCustomTranslation(validate, translator, windowOrderTag, windowOrderText)
}

// mealStructValidation checks that both windows end after they start.
func mealStructValidation(sl validator.StructLevel) {
	nm, ok := sl.Current().Interface().(NewMeal)
	if !ok {
		return
	}
	if !nm.SelectionStart.IsZero() && !nm.SelectionEnd.IsZero() && !nm.SelectionEnd.After(nm.SelectionStart) {
		sl.ReportError(nm.SelectionEnd, "selection_end", "SelectionEnd", windowOrderTag, "")
	}
	if !nm.EffectiveStart.IsZero() && !nm.EffectiveEnd.IsZero() && !nm.EffectiveEnd.After(nm.EffectiveStart) {
		sl.ReportError(nm.EffectiveEnd, "effective_end", "EffectiveEnd", windowOrderTag, "")
	}
}
