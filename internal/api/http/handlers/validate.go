package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

var validate = validator.New()

// validateStruct runs struct-tag validation and converts failures into
// the 400 taxonomy with per-field details.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := map[string]any{}
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return apperrors.NewValidationError("invalid payload", details)
	}
	return apperrors.NewValidationError("invalid payload", nil)
}
