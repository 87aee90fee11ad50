package repositories

import "context"

// Repository aggregates all per-entity repository interfaces
type Repository interface {
	// User domain
	User() UserRepository
	Department() DepartmentRepository

	// Scheduling domain
	Availability() AvailabilityRepository
	Appointment() AppointmentRepository
	Treatment() TreatmentRepository

	// Dashboard domain
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
