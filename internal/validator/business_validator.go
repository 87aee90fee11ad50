package validator

import (
	"fmt"
	"time"

	"github.com/medicore-health/hospital-service/internal/models"
)

const (
	// DateLayout is the wire format for calendar dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for clock times
	TimeLayout = "15:04"
)

// allowedTransitions defines the appointment lifecycle. Completed and
// Cancelled are terminal.
var allowedTransitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.AppointmentBooked:    {models.AppointmentCompleted, models.AppointmentCancelled},
	models.AppointmentCompleted: {},
	models.AppointmentCancelled: {},
}

// ValidateStatusTransition validates appointment status transitions
func (v *Validator) ValidateStatusTransition(currentStatus, newStatus models.AppointmentStatus) ValidationErrors {
	var errors ValidationErrors

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateSlotWindow validates an availability window on a single day.
// Times are half-open: [start, end), and end must be strictly after start.
func (v *Validator) ValidateSlotWindow(date, startTime, endTime string) ValidationErrors {
	var errors ValidationErrors

	if _, err := ParseDate(date); err != nil {
		errors = append(errors, ValidationError{
			Field:   "date",
			Message: "must be a date in YYYY-MM-DD format",
			Value:   date,
			Rule:    "date_format",
		})
	}

	startOK := true
	if _, err := ParseTime(startTime); err != nil {
		startOK = false
		errors = append(errors, ValidationError{
			Field:   "start_time",
			Message: "must be a time in HH:MM format",
			Value:   startTime,
			Rule:    "time_format",
		})
	}

	endOK := true
	if _, err := ParseTime(endTime); err != nil {
		endOK = false
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be a time in HH:MM format",
			Value:   endTime,
			Rule:    "time_format",
		})
	}

	if startOK && endOK && endTime <= startTime {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   endTime,
			Rule:    "slot_window",
		})
	}

	return errors
}

// ParseDate parses a calendar date string in DateLayout
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected format %s", value, DateLayout)
	}
	return t, nil
}

// ParseTime parses a clock time string in TimeLayout. The zero padding
// matters: accepting "9:30" would break lexicographic ordering.
func ParseTime(value string) (time.Time, error) {
	if len(value) != 5 {
		return time.Time{}, fmt.Errorf("invalid time %q: expected format %s", value, TimeLayout)
	}
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected format %s", value, TimeLayout)
	}
	return t, nil
}

// CombineDateTime merges a date string and a time string into one UTC
// timestamp, the canonical appointment slot representation.
func CombineDateTime(date, clock string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTime(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
