package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
)

type DashboardPostgreSQL struct {
	db *gorm.DB
}

func NewDashboardPostgreSQL(db *gorm.DB) repositories.DashboardRepository {
	return &DashboardPostgreSQL{db: db}
}

func (d *DashboardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *DashboardPostgreSQL) GetTotalDoctors(ctx context.Context, tx *gorm.DB) (int64, error) {
	return d.countUsersByRole(ctx, tx, models.RoleDoctor)
}

func (d *DashboardPostgreSQL) GetTotalPatients(ctx context.Context, tx *gorm.DB) (int64, error) {
	return d.countUsersByRole(ctx, tx, models.RolePatient)
}

func (d *DashboardPostgreSQL) countUsersByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error) {
	var count int64
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s users: %w", role, err)
	}
	return count, nil
}

func (d *DashboardPostgreSQL) GetTotalAppointments(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.Appointment{}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (d *DashboardPostgreSQL) GetStatusBreakdown(ctx context.Context, tx *gorm.DB) (map[models.AppointmentStatus]int64, error) {
	type statusCount struct {
		Status models.AppointmentStatus
		Count  int64
	}

	var rows []statusCount
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.Appointment{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get status breakdown: %w", err)
	}

	breakdown := make(map[models.AppointmentStatus]int64, len(rows))
	for _, row := range rows {
		breakdown[row.Status] = row.Count
	}
	return breakdown, nil
}

func (d *DashboardPostgreSQL) GetRecentAppointments(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := d.getDB(tx).WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		Order("date_time DESC").
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent appointments: %w", err)
	}
	return appointments, nil
}

func (d *DashboardPostgreSQL) GetUpcomingForDoctor(ctx context.Context, tx *gorm.DB, doctorID string, from time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := d.getDB(tx).WithContext(ctx).
		Preload("Patient").
		Where("doctor_id = ? AND date_time >= ?", doctorID, from).
		Order("date_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor schedule: %w", err)
	}
	return appointments, nil
}

func (d *DashboardPostgreSQL) GetUpcomingForPatient(ctx context.Context, tx *gorm.DB, patientID string, from time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := d.getDB(tx).WithContext(ctx).
		Preload("Doctor").
		Where("patient_id = ? AND date_time >= ?", patientID, from).
		Order("date_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming patient appointments: %w", err)
	}
	return appointments, nil
}

func (d *DashboardPostgreSQL) GetPastForPatient(ctx context.Context, tx *gorm.DB, patientID string, before time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := d.getDB(tx).WithContext(ctx).
		Preload("Doctor").
		Where("patient_id = ? AND date_time < ?", patientID, before).
		Order("date_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get past patient appointments: %w", err)
	}
	return appointments, nil
}
