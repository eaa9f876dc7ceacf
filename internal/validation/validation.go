// Package validation checks use case inputs against their `validate` tags and
// reports failures as *apperr.ValidationError keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
)

var (
	once     sync.Once
	validate *validator.Validate

	permissionNamePattern = regexp.MustCompile(`^[a-z]+:[a-z_]+$`)
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("email_format", func(fl validator.FieldLevel) bool {
			return checkmail.ValidateFormat(fl.Field().String()) == nil
		})
		_ = validate.RegisterValidation("permission_name", func(fl validator.FieldLevel) bool {
			return permissionNamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= constants.MaxPasswordBytes
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Struct validates s and returns nil or a *apperr.ValidationError.
func Struct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.NewValidation(err.Error(), nil)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return apperr.NewValidation("validation failed", fields)
}

// Email reports whether address is syntactically valid.
func Email(address string) bool {
	return checkmail.ValidateFormat(address) == nil
}

func message(fe validator.FieldError) string {
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		if isString {
			return "must be at least " + param + " characters"
		}
		return "must be at least " + param
	case "max":
		if isString {
			return "must be at most " + param + " characters"
		}
		return "must be at most " + param
	case "email_format":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + param
	case "uuid":
		return "must be a valid id"
	case "gtefield":
		return "must not be before " + lowerFirst(param)
	case "bcrypt_len":
		return fmt.Sprintf("must be at most %d bytes", constants.MaxPasswordBytes)
	case "permission_name":
		return "must look like resource:action"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
