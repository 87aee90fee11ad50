package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/medicore-health/hospital-service/internal/models"
)

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation failures
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// HasErrors reports whether any validation failure was collected
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator wraps go-playground/validator with domain-specific rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerCustomRules()

	return v
}

// Validate validates a struct and returns collected failures
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a rule expression
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// ToValidationErrors converts validator library errors to our error type
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "unknown",
			Message: err.Error(),
			Rule:    "unknown",
		}}
	}

	errors := make(ValidationErrors, 0, len(validatorErrs))
	for _, fe := range validatorErrs {
		errors = append(errors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageForTag(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "date_format":
		return "must be a date in YYYY-MM-DD format"
	case "time_format":
		return "must be a time in HH:MM format"
	case "user_role":
		return "must be one of admin, doctor, patient"
	case "gender":
		return "must be one of male, female, other"
	case "appointment_status":
		return "must be one of Booked, Completed, Cancelled"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// registerCustomRules registers hospital domain validators
func (v *Validator) registerCustomRules() {
	// Calendar date string, e.g. "2025-03-14"
	v.validate.RegisterValidation("date_format", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})

	// Zero-padded 24h clock string, e.g. "09:30"
	v.validate.RegisterValidation("time_format", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) != 5 {
			return false
		}
		_, err := time.Parse(TimeLayout, value)
		return err == nil
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "male", "female", "other":
			return true
		}
		return false
	})

	v.validate.RegisterValidation("appointment_status", func(fl validator.FieldLevel) bool {
		switch models.AppointmentStatus(fl.Field().String()) {
		case models.AppointmentBooked, models.AppointmentCompleted, models.AppointmentCancelled:
			return true
		}
		return false
	})
}
