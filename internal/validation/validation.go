// Package validation checks profile form payloads and maps each failure
// to the exact input field it belongs to, using addresses[i].field paths
// for nested address fields.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/staffdir/staffdir/internal/domain"
)

var (
	phoneStripper = regexp.MustCompile(`[\s\-()]`)
	phonePattern  = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	zipPattern    = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// ProfileForm is the editable part of a user profile as submitted by a
// create or update form.
type ProfileForm struct {
	FullName  string        `json:"fullName" validate:"required,min=2,max=100"`
	Email     string        `json:"email" validate:"required,email"`
	Phone     string        `json:"phone" validate:"required,phone"`
	Role      domain.Role   `json:"role" validate:"required,role"`
	Addresses []AddressForm `json:"addresses" validate:"required,min=1,dive"`
}

// AddressForm is one address entry of a profile form.
type AddressForm struct {
	ID      string `json:"id"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required,zipcode"`
}

// FieldError attributes one validation failure to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries the full list of field errors from one validation pass.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// FieldMessage returns the message for the named field, or "".
func (e *Error) FieldMessage(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// HasField reports whether any error is attributed to the named field.
func (e *Error) HasField(field string) bool {
	return e.FieldMessage(field) != ""
}

// Validator validates profile forms.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the phone, zip and role rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		stripped := phoneStripper.ReplaceAllString(fl.Field().String(), "")
		return phonePattern.MatchString(stripped)
	})
	_ = v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.IsValidRole(domain.Role(fl.Field().String()))
	})

	return &Validator{v: v}
}

// ValidateProfile checks a form payload. A nil return means valid.
func (va *Validator) ValidateProfile(form ProfileForm) *Error {
	err := va.v.Struct(form)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Fields: []FieldError{{Field: "", Message: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return &Error{Fields: fields}
}

// fieldPath strips the root struct name and rewrites slice indices into
// bracket notation, e.g. "ProfileForm.addresses[0].street" → "addresses[0].street".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "fullName":
		switch fe.Tag() {
		case "required":
			return "Full name is required"
		case "min":
			return "Full name must be at least 2 characters"
		case "max":
			return "Full name must be less than 100 characters"
		}
	case "email":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Please enter a valid email address"
	case "phone":
		if fe.Tag() == "required" {
			return "Phone number is required"
		}
		return "Please enter a valid phone number"
	case "role":
		if fe.Tag() == "required" {
			return "Role is required"
		}
		return "Please select a valid role"
	case "addresses":
		return "At least one address is required"
	case "street":
		return "Street address is required"
	case "city":
		return "City is required"
	case "state":
		return "State is required"
	case "zipCode":
		if fe.Tag() == "required" {
			return "Zip code is required"
		}
		return "Please enter a valid zip code"
	}
	return fmt.Sprintf("Invalid value for %s", fe.Field())
}
