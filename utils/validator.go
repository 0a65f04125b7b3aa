package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs `validate:"..."` tags and reports the first failing field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%s is required", strings.ToLower(fe.Field()))
		case "email":
			return fmt.Errorf("%s must be a valid email address", strings.ToLower(fe.Field()))
		default:
			return fmt.Errorf("%s failed %s validation", strings.ToLower(fe.Field()), fe.Tag())
		}
	}
	return err
}
