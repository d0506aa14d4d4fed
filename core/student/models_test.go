package student

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core"
)

func TestUpdateStudent_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	orig := Student{ID: "1", FullName: "Alice", ClassName: "1A", ExternalLoginID: "alice"}
	empty := ""
	other := " al2 "

	tests := []struct {
		name string
		us   UpdateStudent
		want NewStudent
	}{
		{name: "no change", us: UpdateStudent{}, want: NewStudent{FullName: "Alice", ClassName: "1A", ExternalLoginID: "alice"}},
		{name: "rename", us: UpdateStudent{FullName: " Alice B "}, want: NewStudent{FullName: "Alice B", ClassName: "1A", ExternalLoginID: "alice"}},
		{name: "clear login", us: UpdateStudent{ExternalLoginID: &empty}, want: NewStudent{FullName: "Alice", ClassName: "1A"}},
		{name: "change login", us: UpdateStudent{ClassName: "2B", ExternalLoginID: &other}, want: NewStudent{FullName: "Alice", ClassName: "2B", ExternalLoginID: "al2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.us.Validate(orig, validate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStudent_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	ns := NewStudent{FullName: "  ", ClassName: "1A"}
	err := ns.Validate(validate)
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "full_name", verrs[0].Field())
}
