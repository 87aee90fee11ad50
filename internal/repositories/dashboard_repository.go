package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
)

// DashboardRepository interface for dashboard analytics operations
type DashboardRepository interface {
	// Dashboard counters
	GetTotalDoctors(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalPatients(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalAppointments(ctx context.Context, tx *gorm.DB) (int64, error)

	// Status breakdown across all appointments
	GetStatusBreakdown(ctx context.Context, tx *gorm.DB) (map[models.AppointmentStatus]int64, error)

	// Recent appointments, date_time desc
	GetRecentAppointments(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Appointment, error)

	// Role-scoped schedules
	GetUpcomingForDoctor(ctx context.Context, tx *gorm.DB, doctorID string, from time.Time) ([]*models.Appointment, error)
	GetUpcomingForPatient(ctx context.Context, tx *gorm.DB, patientID string, from time.Time) ([]*models.Appointment, error)
	GetPastForPatient(ctx context.Context, tx *gorm.DB, patientID string, before time.Time) ([]*models.Appointment, error)
}
