package rest

import (
	"fmt"
	"strings"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateRequest runs the struct tags of a request DTO and folds the
// failures into one validation_error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.ErrValidation(err.Error())
	}

	var messages []string
	for _, fe := range verrs {
		messages = append(messages, formatFieldError(fe))
	}
	return domain.ErrValidation(strings.Join(messages, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid uuid", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
