package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

const reportSheetName = "Appointments"

type reportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *reportService) ExportAppointments(ctx context.Context, filters repositories.AppointmentFilters) (*excelize.File, error) {
	s.logger.Info("Exporting appointments report")

	// Exports are unbounded unless the caller narrows them.
	filters.Limit = 0
	filters.Offset = 0

	appointments, _, err := s.repo.Appointment().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for export: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{
		"ID", "Patient", "Patient Email", "Doctor", "Specialization",
		"Date", "Time", "Status", "Diagnosis", "Prescription", "Notes",
	}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(reportSheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, appointment := range appointments {
		row := i + 2

		var diagnosis, prescription, notes string
		if appointment.Status == models.AppointmentCompleted {
			treatment, err := s.repo.Treatment().GetByAppointment(ctx, s.db, appointment.ID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("failed to get treatment for appointment %d: %w", appointment.ID, err)
			}
			if treatment != nil {
				diagnosis = treatment.Diagnosis
				prescription = treatment.Prescription
				notes = treatment.Notes
			}
		}

		specialization := ""
		if appointment.Doctor.Specialization != nil {
			specialization = *appointment.Doctor.Specialization
		}

		values := []interface{}{
			appointment.ID,
			appointment.Patient.FullName,
			appointment.Patient.Email,
			appointment.Doctor.FullName,
			specialization,
			appointment.DateTime.Format(validator.DateLayout),
			appointment.DateTime.Format(validator.TimeLayout),
			string(appointment.Status),
			diagnosis,
			prescription,
			notes,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(reportSheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	s.logger.Info("Appointments report built", "rows", len(appointments))
	return f, nil
}
