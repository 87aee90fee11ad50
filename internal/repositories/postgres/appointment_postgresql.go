package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/cache"
	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
)

// AppointmentPostgreSQL is deliberately uncached: appointment rows are
// real-time scheduling state and the conflict check must always see the
// latest committed data.
type AppointmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAppointmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AppointmentRepository {
	return &AppointmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AppointmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AppointmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, appointment *models.Appointment) error {
	if err := a.getDB(tx).WithContext(ctx).Create(appointment).Error; err != nil {
		// Duplicate-key from the partial unique index passes through untouched
		// so the service can map it to a conflict.
		return err
	}
	a.invalidateStats(ctx)
	return nil
}

func (a *AppointmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := a.getDB(tx).WithContext(ctx).First(&appointment, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (a *AppointmentPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	err := a.getDB(tx).WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		Preload("Treatment").
		First(&appointment, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment details: %w", err)
	}
	return &appointment, nil
}

func (a *AppointmentPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AppointmentStatus) error {
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	a.invalidateStats(ctx)
	return nil
}

func (a *AppointmentPostgreSQL) UpdateDateTime(ctx context.Context, tx *gorm.DB, id uint, dateTime time.Time) error {
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"date_time":  dateTime,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		// Unique-violation from the partial index surfaces here on reschedule.
		return err
	}
	return nil
}

func (a *AppointmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.Appointment{})
	query = a.helpers.ApplyAppointmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var appointments []*models.Appointment
	if err := query.Preload("Patient").Preload("Doctor").Find(&appointments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}

	return appointments, total, nil
}

// CountActiveAt is the query-time conflict check: exact timestamp equality,
// non-Cancelled rows only. The partial unique index remains the authoritative
// guard under concurrent writers.
func (a *AppointmentPostgreSQL) CountActiveAt(ctx context.Context, tx *gorm.DB, doctorID string, at time.Time, excludeID *uint) (int64, error) {
	query := a.getDB(tx).WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND date_time = ? AND status <> ?", doctorID, at, models.AppointmentCancelled)

	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count conflicting appointments: %w", err)
	}
	return count, nil
}

func (a *AppointmentPostgreSQL) invalidateStats(ctx context.Context) {
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Stats, "dashboard:*")
}
