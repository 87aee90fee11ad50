package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/medicore-health/hospital-service/internal/config"
	"github.com/medicore-health/hospital-service/internal/models"
)

// Guards against double-booking at the storage level: at most one
// non-cancelled appointment per doctor per timestamp, regardless of how
// many requests race past the application check.
const appointmentSlotIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_doctor_slot
ON appointments (doctor_id, date_time)
WHERE status <> 'Cancelled'`

// InitDatabase opens the Postgres connection, runs migrations and seeds
// the baseline records the service expects to exist.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
	}
	if cfg.Environment != "production" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	if err := seedDefaults(db); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.DoctorAvailability{},
		&models.Appointment{},
		&models.Treatment{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.Exec(appointmentSlotIndex).Error; err != nil {
		return fmt.Errorf("failed to create appointment slot index: %w", err)
	}

	return nil
}

// seedDefaults creates the bootstrap admin account and the initial
// department catalog when they are missing. Safe to run on every start.
func seedDefaults(db *gorm.DB) error {
	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if adminCount == 0 {
		admin := &models.User{
			ID:       "admin",
			FullName: "System Administrator",
			Email:    "admin@hospital.local",
			Role:     models.RoleAdmin,
			IsActive: true,
		}
		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin account: %w", err)
		}
	}

	departments := []models.Department{
		{Name: "Cardiology", Description: strPtr("Heart and vascular care")},
		{Name: "Neurology", Description: strPtr("Brain and nervous system care")},
	}
	for _, dept := range departments {
		var count int64
		if err := db.Model(&models.Department{}).Where("name = ?", dept.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check department %s: %w", dept.Name, err)
		}
		if count == 0 {
			if err := db.Create(&dept).Error; err != nil {
				return fmt.Errorf("failed to seed department %s: %w", dept.Name, err)
			}
		}
	}

	return nil
}

func strPtr(s string) *string {
	return &s
}
