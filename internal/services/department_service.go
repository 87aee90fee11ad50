package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

type departmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewDepartmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) DepartmentService {
	return &departmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

func (s *departmentService) Create(ctx context.Context, req *CreateDepartmentRequest) (*models.Department, error) {
	s.logger.Info("Creating department", "name", req.Name)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	exists, err := s.repo.Department().ExistsByName(ctx, s.db, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check department name: %w", err)
	}
	if exists {
		return nil, ErrDepartmentExists
	}

	department := &models.Department{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.Department().Create(ctx, s.db, department); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrDepartmentExists
		}
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	s.logger.Info("Department created", "department_id", department.ID, "name", department.Name)
	return department, nil
}

func (s *departmentService) List(ctx context.Context) ([]*models.Department, error) {
	departments, err := s.repo.Department().List(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}
