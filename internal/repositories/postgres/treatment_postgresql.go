package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
)

type TreatmentPostgreSQL struct {
	db *gorm.DB
}

func NewTreatmentPostgreSQL(db *gorm.DB) repositories.TreatmentRepository {
	return &TreatmentPostgreSQL{db: db}
}

func (t *TreatmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TreatmentPostgreSQL) GetByAppointment(ctx context.Context, tx *gorm.DB, appointmentID uint) (*models.Treatment, error) {
	var treatment models.Treatment
	err := t.getDB(tx).WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		First(&treatment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return &treatment, nil
}

// Upsert overwrites the three text fields of the existing row or creates a
// new one. Completing an appointment twice leaves a single row holding the
// latest text.
func (t *TreatmentPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, treatment *models.Treatment) error {
	var existing models.Treatment
	err := t.getDB(tx).WithContext(ctx).
		Where("appointment_id = ?", treatment.AppointmentID).
		First(&existing).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing treatment: %w", err)
		}
		if err := t.getDB(tx).WithContext(ctx).Create(treatment).Error; err != nil {
			return fmt.Errorf("failed to create treatment: %w", err)
		}
		return nil
	}

	err = t.getDB(tx).WithContext(ctx).
		Model(&models.Treatment{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"diagnosis":    treatment.Diagnosis,
			"prescription": treatment.Prescription,
			"notes":        treatment.Notes,
			"updated_at":   time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update treatment: %w", err)
	}

	treatment.ID = existing.ID
	return nil
}
