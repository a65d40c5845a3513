// Package validate checks submitted forms and turns failures into
// user-facing field messages.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const FormSummary = "Please correct the errors in the form"

var ErrInvalid = errors.New("invalid form")

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[\d\s\-+()]+$`)
)

const minPhoneDigits = 10

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// Error is returned for a form that failed validation. It unwraps to
// ErrInvalid.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

// Fields extracts the field messages from err, or nil when err is not a
// validation failure.
func Fields(err error) FieldErrors {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	mustRegister(v, "email_loose", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err) // develop mistake
	}
}

// Struct validates a form struct. The returned error is an *Error holding
// one message per failed field.
func (v *Validator) Struct(form any) error {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		if _, ok := fields[name]; !ok {
			fields[name] = message(fe)
		}
	}
	return &Error{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email_loose":
		return "Please enter a valid email address"
	case "phone":
		return "Please enter a valid phone number"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func IsEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsPhone accepts digits, spaces, dashes, plus and parentheses with at
// least ten digits.
func IsPhone(s string) bool {
	if !phoneRe.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= minPhoneDigits
}
