package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query          string           // Search query for name or email
	Role           *models.UserRole // Filter by role
	Specialization *string          // Doctor specialization filter
	ActiveOnly     bool             // Restrict to is_active accounts
	Limit          int              // Page size
	Offset         int              // Offset for pagination
}

// UserRepository interface for user operations. Identity lives in Casdoor;
// this service mirrors accounts locally for role, profile and activity state.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error

	// Basic read operations
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List and search operations
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	Search(ctx context.Context, query string, filters UserFilters) ([]*models.User, int64, error)

	// SetActive flips the is_active flag; role and identity never change.
	SetActive(ctx context.Context, tx *gorm.DB, id string, active bool) error

	// Validation and checks
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
