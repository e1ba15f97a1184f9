package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/models"
)

var v *validator.Validate

func init() {
	v = validator.New()

	// Use JSON tag as the field name in error output
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// notblank rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	_ = v.RegisterValidation("casestatus", func(fl validator.FieldLevel) bool {
		return models.ValidCaseStatus(fl.Field().String())
	})
}

// Validate checks s against its validate tags and returns an apperrors.ErrValidationFailed
// error carrying one message list per json field, or nil
func Validate(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(map[string][]string)
	for _, e := range ve {
		field := fieldPath(e)

		switch e.Tag() {
		case "required", "notblank":
			out[field] = append(out[field], "This field is required")

		case "min":
			if e.Kind() == reflect.String {
				out[field] = append(out[field], fmt.Sprintf("Must be at least %s characters", e.Param()))
			} else {
				out[field] = append(out[field], fmt.Sprintf("Must be at least %s", e.Param()))
			}

		case "max":
			if e.Kind() == reflect.String {
				out[field] = append(out[field], fmt.Sprintf("Must be at most %s characters", e.Param()))
			} else {
				out[field] = append(out[field], fmt.Sprintf("Must be at most %s", e.Param()))
			}

		case "casestatus":
			out[field] = append(out[field], "Unknown case status")

		case "url":
			out[field] = append(out[field], "Invalid URL")

		default:
			out[field] = append(out[field], e.Error())
		}
	}
	return apperrors.Validation(out)
}

// fieldPath returns the json path of the failing field without the root struct name,
// e.g. "plaintiff.name"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}
