// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package blog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/samber/oops"
)

// Column limits from the blog_posts table. The PostInput validate tags
// carry the same numbers.
const (
	MaxTitleLength    = 250
	MaxSubtitleLength = 250
	MaxImgURLLength   = 250
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return oops.Code(CodeInvalidInput).
		With("field", field).
		Wrap(&ValidationError{Field: field, Message: message})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
	return v
}

// Normalize trims surrounding whitespace from every field except Body.
func (in PostInput) Normalize() PostInput {
	return PostInput{
		Title:    strings.TrimSpace(in.Title),
		Subtitle: strings.TrimSpace(in.Subtitle),
		ImgURL:   strings.TrimSpace(in.ImgURL),
		Body:     in.Body,
	}
}

// Validate checks that every field is present and fits its column, and that
// ImgURL is an absolute http or https URL. The first failing field is
// reported.
func (in PostInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return oops.Code(CodeInvalidInput).Wrap(err)
	}
	fe := errs[0]
	return invalid(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "cannot be empty"
	case "utf8":
		return "must be valid UTF-8"
	case "max":
		return "exceeds maximum length of " + fe.Param()
	case "http_url":
		return "must be an absolute http or https URL"
	}
	return "failed " + fe.Tag() + " validation"
}
