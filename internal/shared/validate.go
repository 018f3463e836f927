package shared

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateStruct runs struct tag validation and folds failures into ErrValidation.
func ValidateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Validationf("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
	}
	return Validationf("%s", strings.Join(msgs, "; "))
}
