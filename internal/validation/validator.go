// Package validation validates decoded request bodies at the HTTP boundary.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	appErrors "smartdocs-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	docIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,99}$`)
	langPattern   = regexp.MustCompile(`^(auto|[a-z]{2}(-[A-Za-z]{2})?)$`)
	githubPattern = regexp.MustCompile(`github\.com/[^/\s]+/[^/\s]+`)
)

// SelfValidator is implemented by requests with cross-field rules.
type SelfValidator interface {
	Validate() error
}

// Validator wraps go-playground/validator with SmartDocs rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered.
func New() *Validator {
	v := &Validator{validate: validator.New()}

	// Error messages use JSON field names.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.validate.RegisterValidation("notblank", notBlank)
	_ = v.validate.RegisterValidation("docid", matches(docIDPattern))
	_ = v.validate.RegisterValidation("langcode", matches(langPattern))
	_ = v.validate.RegisterValidation("githuburl", matches(githubPattern))

	return v
}

// Struct validates s and returns a VALIDATION AppError describing every failed field.
func (v *Validator) Struct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return format(err)
	}
	if sv, ok := s.(SelfValidator); ok {
		if err := sv.Validate(); err != nil {
			return appErrors.NewValidation(err.Error())
		}
	}
	return nil
}

// Var validates a single value against a tag.
func (v *Validator) Var(field interface{}, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return format(err)
	}
	return nil
}

func format(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErrors.NewValidation(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		if field == "" {
			field = "value"
		}
		messages = append(messages, fmt.Sprintf("%s: %s", field, message(e.Tag(), e.Param())))
	}
	sort.Strings(messages)
	return appErrors.NewValidation(strings.Join(messages, "; "))
}

func message(tag, param string) string {
	switch tag {
	case "required", "notblank":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "docid":
		return "must be a valid document id"
	case "langcode":
		return "must be a language code such as en, es or auto"
	case "githuburl":
		return "must be a GitHub repository URL"
	case "url":
		return "must be a valid URL"
	case "dive":
		return "invalid item in collection"
	default:
		return fmt.Sprintf("failed %s validation", tag)
	}
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		return strings.TrimSpace(field.String()) != ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return field.Len() > 0
	default:
		return !field.IsZero()
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true // emptiness is checked by required
		}
		return re.MatchString(s)
	}
}
