// Package inputval validates form input with struct tags.
//
//	type createInput struct {
//	    Title string `validate:"required,max=200" label:"Title" msg:"Enter a title"`
//	}
//	if res := inputval.Validate(in); res.HasErrors() { ... res.First() ... }
//
// The label tag names the field in generated messages; a msg tag replaces
// the generated message entirely.
package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("docname", func(fl validator.FieldLevel) bool {
			return IsValidDocumentName(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks input against its validate tags.
func Validate(input any) *Result {
	res := &Result{}
	err := get().Struct(input)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}

	t := reflect.TypeOf(input)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		msg := ""
		if sf, found := t.FieldByName(fe.StructField()); found {
			msg = sf.Tag.Get("msg")
		}
		if msg == "" {
			msg = message(fe)
		}
		res.Errors = append(res.Errors, FieldError{Field: fe.StructField(), Message: msg})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "email":
		return "A valid email address is required."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, fe.Param())
	case "docname":
		return label + " must be a file name without slashes."
	case "nefield":
		return fmt.Sprintf("%s must differ from %s.", label, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s.", label, fe.Param())
	}
	return label + " is invalid."
}

// IsValidEmail reports whether s is a bare email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return get().Var(s, "email") == nil
}

// IsValidDocumentName reports whether s can be used as a document name.
func IsValidDocumentName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}
