// ABOUTME: Request DTO validation backed by go-playground/validator
// ABOUTME: Field errors come back as a VALIDATION error keyed by JSON field name
package web

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
)

type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// "date" accepts YYYY-MM-DD.
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := db.ParseDate(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	var first string
	for _, e := range fieldErrs {
		msg := friendlyMessage(e)
		details[e.Field()] = msg
		if first == "" {
			first = e.Field() + " " + msg
		}
	}
	return apperr.Validationf("%s", first).WithDetails(details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "date":
		return "must be a date in YYYY-MM-DD form"
	case "uuid":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}
