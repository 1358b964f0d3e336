package validator

import (
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

// instance returns the shared go-playground validator. It caches struct
// metadata, so a single instance is reused for the life of the process.
func instance() *playground.Validate {
	validateOnce.Do(func() {
		validate = playground.New(playground.WithRequiredStructEnabled())

		// Report fields by their JSON names so error keys match what the
		// client actually sent.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validator holds a map of validation errors keyed by field path.
type Validator struct {
	Errors map[string]string
}

// New returns a Validator with an empty errors map.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the errors map doesn't contain any entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map, as long as no entry already
// exists for the given key.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error message to the map only if a validation check is not 'ok'.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Struct runs the `validate` struct tags on s and records every failure.
// Keys are dotted JSON paths without the root type name, e.g.
// "imdb.avaliacao".
func (v *Validator) Struct(s any) {
	err := instance().Struct(s)
	if err == nil {
		return
	}

	fieldErrors, ok := err.(playground.ValidationErrors)
	if !ok {
		v.AddError("body", err.Error())
		return
	}

	for _, fe := range fieldErrors {
		v.AddError(fieldPath(fe), message(fe))
	}
}

// fieldPath strips the root struct name from the error namespace.
func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s bytes long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not be more than %s bytes long", fe.Param())
		}
		return fmt.Sprintf("must be a maximum of %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "unique":
		return "must not contain duplicate values"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

// In returns true if a specific value is in a list of strings.
func In(value string, list ...string) bool {
	for i := range list {
		if value == list[i] {
			return true
		}
	}
	return false
}

// Unique returns true if all string values in a slice are unique.
func Unique(values []string) bool {
	uniqueValues := make(map[string]bool)

	for _, value := range values {
		uniqueValues[value] = true
	}

	return len(values) == len(uniqueValues)
}
