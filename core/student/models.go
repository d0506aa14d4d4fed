package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cantine/core"
)

type Student struct {
	ID              string    `json:"id" db:"id"`
	FullName        string    `json:"full_name" db:"full_name"`
	ClassName       string    `json:"class" db:"class_name"`
	ExternalLoginID string    `json:"external_login_id" db:"external_login_id"` // optional
	CreatedAt       time.Time `json:"created_at" db:"created_at"`               // UTC
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`               // UTC
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FullName        string `json:"full_name" validate:"required"`
	ClassName       string `json:"class" validate:"required"`
	ExternalLoginID string `json:"external_login_id"`
}

func (ns *NewStudent) Clean() {
	ns.FullName = core.CleanString(ns.FullName)
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.ExternalLoginID = core.CleanString(ns.ExternalLoginID)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	FullName        string  `json:"full_name"`
	ClassName       string  `json:"class"`
	ExternalLoginID *string `json:"external_login_id"` // "" clears it
}

// Validate merges us into orig; empty fields keep their current value.
func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) (NewStudent, error) {
	ns := NewStudent{
		FullName:        core.CleanString(us.FullName),
		ClassName:       core.CleanString(us.ClassName),
		ExternalLoginID: orig.ExternalLoginID,
	}
	if ns.FullName == "" {
		ns.FullName = orig.FullName
	}
	if ns.ClassName == "" {
		ns.ClassName = orig.ClassName
	}
	if us.ExternalLoginID != nil {
		ns.ExternalLoginID = *us.ExternalLoginID
	}
	if err := ns.Validate(validate); err != nil {
		return NewStudent{}, err
	}
	return ns, nil
}

type QueryFilter struct {
	ClassName string `query:"class"`
	Search    string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ClassName == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.ClassName = core.CleanString(qf.ClassName)
	qf.Search = core.CleanString(qf.Search)
}
