package selection

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
)

var (
	mealTypeTag  = "meal_type"
	mealTypeText = "{0} must be one of A or B"

	policyTag  = "policy"
	policyText = "{0} must be one of A, B or random"

	methodTag  = "import_method"
	methodText = "{0} must be one of student_id or external_login_id"
)

type (
	// BatchAssignment is an administrator's request to Assign.
	BatchAssignment struct {
		StudentIDs []string `json:"student_ids"`
		MealID     string   `json:"meal_id" validate:"required"`
		Policy     Policy   `json:"meal_type" validate:"required,policy"`
	}

	// StudentChoice is a student's request to StudentAssign.
	StudentChoice struct {
		MealID   string    `json:"meal_id" validate:"required"`
		MealType meal.Type `json:"meal_type" validate:"required,meal_type"`
	}

	// ImportRequest carries the raw rows of a selection import.
	ImportRequest struct {
		MealID string `json:"meal_id" validate:"required"`
		Method Method `json:"method" validate:"required,import_method"`
		Data   string `json:"data" validate:"required"`
	}

	// StudentImportRequest carries the raw rows of a student import.
	StudentImportRequest struct {
		Data string `json:"data" validate:"required"`
	}
)

func (ba *BatchAssignment) Validate(validate *validator.Validate) error {
	ba.MealID = core.CleanString(ba.MealID)
	if p, err := ParsePolicy(string(ba.Policy)); err == nil {
		ba.Policy = p
	}
	return validate.Struct(ba)
}

func (sc *StudentChoice) Validate(validate *validator.Validate) error {
	sc.MealID = core.CleanString(sc.MealID)
	if t, err := meal.ParseType(string(sc.MealType)); err == nil {
		sc.MealType = t
	}
	return validate.Struct(sc)
}

func (si *SelectionImport) Validate(validate *validator.Validate) error {
	si.ID = core.CleanString(si.ID)
	si.MealID = core.CleanString(si.MealID)
	if t, err := meal.ParseType(string(si.MealType)); err == nil {
		si.MealType = t
	}
	return validate.Struct(si)
}

func (ir *ImportRequest) Validate(validate *validator.Validate) error {
	ir.MealID = core.CleanString(ir.MealID)
	return validate.Struct(ir)
}

func (sir *StudentImportRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(sir)
}

// InitValidators registers the selection validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(mealTypeTag, func(fl validator.FieldLevel) bool {
		return meal.Type(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, mealTypeTag, mealTypeText)

	_ = validate.RegisterValidation(policyTag, func(fl validator.FieldLevel) bool {
		return Policy(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, policyTag, policyText)

	_ = validate.RegisterValidation(methodTag, func(fl validator.FieldLevel) bool {
		return Method(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, methodTag, methodText)
}
