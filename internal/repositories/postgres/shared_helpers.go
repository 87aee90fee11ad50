package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyAppointmentFilters applies common filters to appointment queries
func (h *SharedHelpers) ApplyAppointmentFilters(query *gorm.DB, filters repositories.AppointmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filters.DoctorID)
	}
	if filters.PatientID != nil {
		query = query.Where("patient_id = ?", *filters.PatientID)
	}
	if filters.DateFrom != nil {
		query = query.Where("date_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("date_time <= ?", *filters.DateTo)
	}
	return query
}

// ApplyUserFilters applies common filters to user queries
func (h *SharedHelpers) ApplyUserFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Specialization != nil {
		query = query.Where("specialization = ?", *filters.Specialization)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"date_time":  true,
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"status":     true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "date_time"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// CountAppointmentsByPatient counts appointments booked by a patient
func (h *SharedHelpers) CountAppointmentsByPatient(ctx context.Context, patientID string) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("patient_id = ?", patientID).
		Count(&count).Error
	return count, err
}

// BulkUpdateAppointmentStatus updates status for multiple appointments
func (h *SharedHelpers) BulkUpdateAppointmentStatus(ctx context.Context, ids []uint, status models.AppointmentStatus) error {
	if len(ids) == 0 {
		return fmt.Errorf("no IDs provided for bulk update")
	}
	return h.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}
