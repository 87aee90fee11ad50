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

type AvailabilityPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAvailabilityPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AvailabilityRepository {
	return &AvailabilityPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AvailabilityPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AvailabilityPostgreSQL) Create(ctx context.Context, tx *gorm.DB, slot *models.DoctorAvailability) error {
	if err := a.getDB(tx).WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create availability slot: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Availability, fmt.Sprintf("doctor:%s:*", slot.DoctorID))

	return nil
}

func (a *AvailabilityPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DoctorAvailability, error) {
	var slot models.DoctorAvailability
	if err := a.getDB(tx).WithContext(ctx).First(&slot, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get availability slot: %w", err)
	}
	return &slot, nil
}

// Delete hard deletes the slot. Availability is the only entity that is ever
// physically removed; booked appointments are deliberately not cascaded.
func (a *AvailabilityPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var slot models.DoctorAvailability
	if err := a.getDB(tx).WithContext(ctx).Select("id, doctor_id").First(&slot, id).Error; err != nil {
		return fmt.Errorf("failed to get availability slot before delete: %w", err)
	}

	if err := a.getDB(tx).WithContext(ctx).Delete(&models.DoctorAvailability{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete availability slot: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Availability, fmt.Sprintf("doctor:%s:*", slot.DoctorID))

	return nil
}

func (a *AvailabilityPostgreSQL) ListByDoctorDate(ctx context.Context, tx *gorm.DB, doctorID string, date time.Time) ([]*models.DoctorAvailability, error) {
	var slots []*models.DoctorAvailability
	err := a.getDB(tx).WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date.Format("2006-01-02")).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list availability slots: %w", err)
	}
	return slots, nil
}

// ListUpcoming returns slots inside the window ordered by (date, start_time),
// cached per doctor and window.
func (a *AvailabilityPostgreSQL) ListUpcoming(ctx context.Context, tx *gorm.DB, filters repositories.AvailabilityFilters) ([]*models.DoctorAvailability, error) {
	cacheKey := fmt.Sprintf("doctor:%s:window:%s:%s",
		filters.DoctorID, filters.From.Format("2006-01-02"), filters.To.Format("2006-01-02"))

	var slots []*models.DoctorAvailability
	err := a.cacheManager.Availability.CacheOrExecute(ctx, cacheKey, &slots, cache.AvailabilityCacheConfig.TTL, func() (interface{}, error) {
		var dbSlots []*models.DoctorAvailability
		err := a.getDB(tx).WithContext(ctx).
			Where("doctor_id = ? AND date >= ? AND date <= ?",
				filters.DoctorID, filters.From.Format("2006-01-02"), filters.To.Format("2006-01-02")).
			Order("date ASC, start_time ASC").
			Find(&dbSlots).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list upcoming availability: %w", err)
		}
		return dbSlots, nil
	})

	return slots, err
}

// CountOverlapping applies the half-open interval test:
// existing.start < new.end AND existing.end > new.start.
func (a *AvailabilityPostgreSQL) CountOverlapping(ctx context.Context, tx *gorm.DB, doctorID string, date time.Time, start, end string) (int64, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.DoctorAvailability{}).
		Where("doctor_id = ? AND date = ? AND start_time < ? AND end_time > ?",
			doctorID, date.Format("2006-01-02"), end, start).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping slots: %w", err)
	}
	return count, nil
}
