package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
)

type DepartmentPostgreSQL struct {
	db *gorm.DB
}

func NewDepartmentPostgreSQL(db *gorm.DB) repositories.DepartmentRepository {
	return &DepartmentPostgreSQL{db: db}
}

func (d *DepartmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

func (d *DepartmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, department *models.Department) error {
	if err := d.getDB(tx).WithContext(ctx).Create(department).Error; err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

func (d *DepartmentPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Department, error) {
	var departments []*models.Department
	err := d.getDB(tx).WithContext(ctx).
		Order("name ASC").
		Find(&departments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (d *DepartmentPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	var count int64
	err := d.getDB(tx).WithContext(ctx).
		Model(&models.Department{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check department existence: %w", err)
	}
	return count > 0, nil
}
