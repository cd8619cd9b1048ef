package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"enrollment-api/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	ssnPattern   = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	codePattern  = regexp.MustCompile(`^\d{6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	patterns := map[string]*regexp.Regexp{
		"personname": namePattern,
		"phonenum":   phonePattern,
		"ssnformat":  ssnPattern,
		"zipcode":    zipPattern,
		"mfacode":    codePattern,
	}
	for tag, re := range patterns {
		re := re
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	return v
}

// validateStruct reports the first failing field as an apperrors.ValidationError.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(fe.Field(), fieldMessage(fe))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "cannot exceed " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters long"
	case "gt":
		return "must be greater than " + fe.Param()
	case "datetime":
		return "must be a date in format YYYY-MM-DD"
	case "personname":
		return "can only contain letters, spaces, hyphens, and apostrophes"
	case "phonenum":
		return "must be a valid phone number"
	case "ssnformat":
		return "must be in format XXX-XX-XXXX or XXXXXXXXX"
	case "zipcode":
		return "must be in format XXXXX or XXXXX-XXXX"
	case "mfacode":
		return "must contain only digits"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
