// Package forms decodes and validates untrusted form submissions.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

// Normalizer is implemented by forms that clean up their values before validation.
type Normalizer interface {
	Normalize()
}

// Validator decodes request forms into structs and validates them against their tags.
type Validator struct {
	decoder  *form.Decoder
	validate *validator.Validate
}

// NewValidator creates a Validator. Field errors are keyed by the form tag name.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{decoder: form.NewDecoder(), validate: v}
}

// Decode parses the request form into dst, normalizes and validates it.
// It returns nil when the submission is valid.
func (v *Validator) Decode(r *http.Request, dst any) Errors {
	if err := r.ParseForm(); err != nil {
		return FieldError(FormField, "Invalid form submission.")
	}
	if err := v.decoder.Decode(dst, r.PostForm); err != nil {
		return FieldError(FormField, "Invalid form submission.")
	}
	return v.Validate(dst)
}

// Validate normalizes and validates dst. It returns nil when dst is valid.
func (v *Validator) Validate(dst any) Errors {
	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}

	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldError(FormField, "Invalid form submission.")
	}

	errs := Errors{}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Must contain at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Must contain at most %s characters.", fe.Param())
	case "email":
		return "Invalid email address."
	default:
		return "Invalid value."
	}
}
