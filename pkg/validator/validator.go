package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	validate     *playground.Validate
	validateOnce sync.Once
)

// ErrInvalidInput is returned for values the validator cannot inspect
// (nil or non-struct).
var ErrInvalidInput = errors.New("validator: invalid input")

// ValidationError is a single field failure.
type ValidationError struct {
	TranslationValues map[string]any
	Field             string
	Message           string
	TranslationKey    string
}

// ValidationErrors collects field failures. It is returned as an error.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a failure for field.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// Has reports whether field has at least one failure.
func (e ValidationErrors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Fields groups messages by field, the shape of the 422 response body.
func (e ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// Err returns e as an error, or nil when it is empty.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Translate rewrites messages in place with fn. Entries without a
// translation key, and results equal to the key, are left untouched.
func (e ValidationErrors) Translate(fn func(key string, values map[string]any) string) {
	if fn == nil {
		return
	}
	for i := range e {
		if e[i].TranslationKey == "" {
			continue
		}
		if msg := fn(e[i].TranslationKey, e[i].TranslationValues); msg != "" && msg != e[i].TranslationKey {
			e[i].Message = msg
		}
	}
}

func engine() *playground.Validate {
	validateOnce.Do(func() {
		validate = playground.New(playground.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and returns ValidationErrors on failure.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Join(ErrInvalidInput, err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, failure(fe.Tag(), fe.Field(), fe.Param(), fe.Kind()))
	}
	return out
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value any, tag string) error {
	err := engine().Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Join(ErrInvalidInput, err)
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, failure(fe.Tag(), field, fe.Param(), fe.Kind()))
	}
	return out
}

var plainMessages = map[string]string{
	"required": "The %s field is required.",
	"email":    "The %s must be a valid email address.",
	"url":      "The %s must be a valid URL.",
	"uuid4":    "The %s must be a valid UUID.",
	"numeric":  "The %s must be a number.",
	"alphanum": "The %s may only contain letters and numbers.",
}

var paramMessages = map[string]string{
	"oneof": "The %s must be one of: %s.",
	"gte":   "The %s must be greater than or equal to %s.",
	"lte":   "The %s must be less than or equal to %s.",
	"gt":    "The %s must be greater than %s.",
	"lt":    "The %s must be less than %s.",
	"len":   "The %s must be %s characters.",
}

// failure builds the entry for one failed rule. min and max keys carry
// the value kind ("validation.min.string") since their wording differs.
func failure(tag, field, param string, kind reflect.Kind) ValidationError {
	key := "validation." + tag
	if tag == "min" || tag == "max" {
		if kind == reflect.String {
			key += ".string"
		} else {
			key += ".number"
		}
	}
	return ValidationError{
		Field:             field,
		Message:           render(tag, field, param, kind),
		TranslationKey:    key,
		TranslationValues: map[string]any{"field": field, "param": strings.ReplaceAll(param, " ", ", ")},
	}
}

func render(tag, field, param string, kind reflect.Kind) string {
	if tpl, ok := plainMessages[tag]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tpl, field, strings.ReplaceAll(param, " ", ", "))
	}
	switch tag {
	case "min":
		if kind == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters long.", field, param)
		}
		return fmt.Sprintf("The %s must be at least %s.", field, param)
	case "max":
		if kind == reflect.String {
			return fmt.Sprintf("The %s may not be greater than %s characters.", field, param)
		}
		return fmt.Sprintf("The %s may not be greater than %s.", field, param)
	}
	return fmt.Sprintf("The %s is invalid.", field)
}
