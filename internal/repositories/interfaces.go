package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AppointmentFilters struct {
	Status    *models.AppointmentStatus `json:"status"`
	DoctorID  *string                   `json:"doctor_id"`
	PatientID *string                   `json:"patient_id"`
	DateFrom  *time.Time                `json:"date_from"`
	DateTo    *time.Time                `json:"date_to"`
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
	SortBy    string                    `json:"sort_by"`    // "date_time", "created_at", "status"
	SortOrder string                    `json:"sort_order"` // "asc", "desc"
}

type AvailabilityFilters struct {
	DoctorID string    `json:"doctor_id"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// ===== AVAILABILITY =====

// AvailabilityRepository manages a doctor's declared consultation windows.
type AvailabilityRepository interface {
	Create(ctx context.Context, tx *gorm.DB, slot *models.DoctorAvailability) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DoctorAvailability, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// ListByDoctorDate returns all slots for a doctor on one day, ordered by start_time.
	ListByDoctorDate(ctx context.Context, tx *gorm.DB, doctorID string, date time.Time) ([]*models.DoctorAvailability, error)

	// ListUpcoming returns slots with date in [From, To], ordered by (date, start_time) asc.
	ListUpcoming(ctx context.Context, tx *gorm.DB, filters AvailabilityFilters) ([]*models.DoctorAvailability, error)

	// CountOverlapping counts same-doctor/same-date slots colliding with the
	// half-open [start, end) window. Adjacent slots do not count.
	CountOverlapping(ctx context.Context, tx *gorm.DB, doctorID string, date time.Time, start, end string) (int64, error)
}

// ===== APPOINTMENT =====

type AppointmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, appointment *models.Appointment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Appointment, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Appointment, error)

	// UpdateStatus and UpdateDateTime are the only mutations an appointment
	// supports; rows are never deleted.
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AppointmentStatus) error
	UpdateDateTime(ctx context.Context, tx *gorm.DB, id uint, dateTime time.Time) error

	List(ctx context.Context, tx *gorm.DB, filters AppointmentFilters) ([]*models.Appointment, int64, error)

	// CountActiveAt counts non-Cancelled appointments for the doctor at the
	// exact timestamp, excluding the given id when non-nil.
	CountActiveAt(ctx context.Context, tx *gorm.DB, doctorID string, at time.Time, excludeID *uint) (int64, error)
}

// ===== TREATMENT =====

type TreatmentRepository interface {
	GetByAppointment(ctx context.Context, tx *gorm.DB, appointmentID uint) (*models.Treatment, error)

	// Upsert creates the treatment row for the appointment or overwrites the
	// three text fields of the existing one. One row per appointment.
	Upsert(ctx context.Context, tx *gorm.DB, treatment *models.Treatment) error
}

// ===== DEPARTMENT =====

type DepartmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, department *models.Department) error
	List(ctx context.Context, tx *gorm.DB) ([]*models.Department, error)
	ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error)
}
