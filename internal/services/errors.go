package services

import (
	"errors"
	"fmt"

	"github.com/medicore-health/hospital-service/internal/validator"
)

// ValidationErrors is re-exported so handlers can errors.As against it
// without importing the validator package directly.
type ValidationErrors = validator.ValidationErrors

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// status codes; nothing below the handler layer knows about HTTP.
var (
	// Not found (404)
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAvailabilityNotFound = errors.New("availability slot not found")
	ErrTreatmentNotFound    = errors.New("treatment not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrDoctorNotFound       = errors.New("doctor not found")

	// Conflict (409)
	ErrAppointmentConflict = errors.New("doctor already has an appointment at this time")
	ErrSlotOverlap         = errors.New("slot overlaps an existing availability window")
	ErrDepartmentExists    = errors.New("department already exists")

	// State errors (409): transition not allowed from the current status
	ErrAppointmentNotBooked = errors.New("appointment is not in a cancellable state")
	ErrAppointmentCancelled = errors.New("appointment has been cancelled")

	// Gone (410): the slot is already in the past
	ErrAppointmentInPast = errors.New("appointment time has already passed")

	// Validation (400 / 422)
	ErrValidationFailed       = errors.New("validation failed")
	ErrDoctorNotActive        = errors.New("doctor account is not active")
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
)

// PermissionError represents access denied to a resource (403)
type PermissionError struct {
	UserID     string
	ResourceID interface{}
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %v: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// NewPermissionError creates a permission error with full context
func NewPermissionError(userID string, resourceID interface{}, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError checks whether err is a permission failure
func IsPermissionError(err error) bool {
	var permErr *PermissionError
	return errors.As(err, &permErr)
}
