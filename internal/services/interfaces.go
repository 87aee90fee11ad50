package services

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

// Request DTOs live in the validator package next to their rules; the service
// layer re-exports them so handlers depend on a single package.
type (
	AddSlotRequest               = validator.AddSlotRequest
	BookAppointmentRequest       = validator.BookAppointmentRequest
	RescheduleAppointmentRequest = validator.RescheduleAppointmentRequest
	CompleteAppointmentRequest   = validator.CompleteAppointmentRequest
	RegisterPatientRequest       = validator.RegisterPatientRequest
	CreateDoctorRequest          = validator.CreateDoctorRequest
	CreateDepartmentRequest      = validator.CreateDepartmentRequest
)

// ===== RESPONSE DTOs =====

// AppointmentResponse decorates an appointment with the actions the current
// actor may still take on it.
type AppointmentResponse struct {
	*models.Appointment
	CanCancel     bool `json:"can_cancel"`
	CanReschedule bool `json:"can_reschedule"`
	CanComplete   bool `json:"can_complete"`
}

// AppointmentListResponse is a paginated appointment collection
type AppointmentListResponse struct {
	Appointments []*AppointmentResponse `json:"appointments"`
	Total        int64                  `json:"total"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// UserListResponse is a paginated user collection
type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
}

// DashboardStatsResponse is the admin overview
type DashboardStatsResponse struct {
	TotalDoctors       int64                              `json:"total_doctors"`
	TotalPatients      int64                              `json:"total_patients"`
	TotalAppointments  int64                              `json:"total_appointments"`
	StatusBreakdown    map[models.AppointmentStatus]int64 `json:"status_breakdown"`
	RecentAppointments []*models.Appointment              `json:"recent_appointments"`
}

// DoctorDashboardResponse is the doctor's schedule view
type DoctorDashboardResponse struct {
	Upcoming []*models.Appointment `json:"upcoming"`
}

// PatientDashboardResponse splits the patient's history around now
type PatientDashboardResponse struct {
	Upcoming []*models.Appointment `json:"upcoming"`
	Past     []*models.Appointment `json:"past"`
}

// ===== SERVICE INTERFACES =====

// AvailabilityService manages a doctor's consultation windows
type AvailabilityService interface {
	// AddSlot declares a window; rejects end <= start and any overlap with an
	// existing same-doctor/same-date slot. Adjacent windows are allowed.
	AddSlot(ctx context.Context, doctorID string, req *AddSlotRequest) (*models.DoctorAvailability, error)

	// RemoveSlot hard-deletes a slot owned by the doctor. Booked appointments
	// are not touched.
	RemoveSlot(ctx context.Context, doctorID string, slotID uint) error

	// ListUpcoming returns slots with date in [from, from+windowDays],
	// ordered by (date, start_time) ascending.
	ListUpcoming(ctx context.Context, doctorID string, from time.Time, windowDays int) ([]*models.DoctorAvailability, error)

	// ListForDay returns the doctor's slots on a single day, start_time ascending.
	ListForDay(ctx context.Context, doctorID string, date time.Time) ([]*models.DoctorAvailability, error)
}

// AppointmentService owns booking, conflict detection and the appointment
// lifecycle (Booked -> Completed | Cancelled).
type AppointmentService interface {
	Book(ctx context.Context, patientID string, req *BookAppointmentRequest) (*AppointmentResponse, error)
	Reschedule(ctx context.Context, id uint, actorID string, req *RescheduleAppointmentRequest) (*AppointmentResponse, error)
	Cancel(ctx context.Context, id uint, actorID string) (*AppointmentResponse, error)
	Complete(ctx context.Context, id uint, doctorID string, req *CompleteAppointmentRequest) (*AppointmentResponse, error)

	GetByID(ctx context.Context, id uint, actorID string, actorRole models.UserRole) (*AppointmentResponse, error)
	GetTreatment(ctx context.Context, appointmentID uint, actorID string, actorRole models.UserRole) (*models.Treatment, error)
	List(ctx context.Context, filters repositories.AppointmentFilters, actorID string, actorRole models.UserRole) (*AppointmentListResponse, error)

	// HasConflict reports whether a non-Cancelled appointment already occupies
	// (doctorID, at), excluding excludeID when non-nil. Exact timestamp match.
	HasConflict(ctx context.Context, doctorID string, at time.Time, excludeID *uint) (bool, error)
}

// UserService manages accounts: self-service patient registration, admin
// doctor provisioning, activation state, and doctor browsing.
type UserService interface {
	RegisterPatient(ctx context.Context, req *RegisterPatientRequest) (*models.User, error)
	CreateDoctor(ctx context.Context, req *CreateDoctorRequest, adminID string) (*models.User, error)
	SetActive(ctx context.Context, targetID string, active bool, adminID string) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error)
	Search(ctx context.Context, query string, filters repositories.UserFilters) (*UserListResponse, error)

	// ListDoctors returns active doctors for patient browsing, optionally
	// filtered by specialization or free-text query.
	ListDoctors(ctx context.Context, query string, specialization *string) (*UserListResponse, error)
}

// DepartmentService maintains the department catalog
type DepartmentService interface {
	Create(ctx context.Context, req *CreateDepartmentRequest) (*models.Department, error)
	List(ctx context.Context) ([]*models.Department, error)
}

// DashboardService builds the per-role landing views
type DashboardService interface {
	GetAdminStats(ctx context.Context) (*DashboardStatsResponse, error)
	GetDoctorDashboard(ctx context.Context, doctorID string) (*DoctorDashboardResponse, error)
	GetPatientDashboard(ctx context.Context, patientID string) (*PatientDashboardResponse, error)
}

// ReportService exports operational data for administrators
type ReportService interface {
	// ExportAppointments builds an XLSX workbook of appointments matching the
	// filters, one row per appointment with its treatment when present.
	ExportAppointments(ctx context.Context, filters repositories.AppointmentFilters) (*excelize.File, error)
}

// ServiceManager provides access to all services with lifecycle management
type ServiceManager interface {
	Availability() AvailabilityService
	Appointment() AppointmentService
	User() UserService
	Department() DepartmentService
	Dashboard() DashboardService
	Report() ReportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
