package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/repositories"
)

// recentAppointmentsLimit bounds the admin dashboard's recent list.
const recentAppointmentsLimit = 10

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (s *dashboardService) GetAdminStats(ctx context.Context) (*DashboardStatsResponse, error) {
	dashboard := s.repo.Dashboard()

	totalDoctors, err := dashboard.GetTotalDoctors(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to count doctors: %w", err)
	}

	totalPatients, err := dashboard.GetTotalPatients(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}

	totalAppointments, err := dashboard.GetTotalAppointments(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	breakdown, err := dashboard.GetStatusBreakdown(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get status breakdown: %w", err)
	}

	recent, err := dashboard.GetRecentAppointments(ctx, s.db, recentAppointmentsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent appointments: %w", err)
	}

	return &DashboardStatsResponse{
		TotalDoctors:       totalDoctors,
		TotalPatients:      totalPatients,
		TotalAppointments:  totalAppointments,
		StatusBreakdown:    breakdown,
		RecentAppointments: recent,
	}, nil
}

func (s *dashboardService) GetDoctorDashboard(ctx context.Context, doctorID string) (*DoctorDashboardResponse, error) {
	upcoming, err := s.repo.Dashboard().GetUpcomingForDoctor(ctx, s.db, doctorID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor schedule: %w", err)
	}
	return &DoctorDashboardResponse{Upcoming: upcoming}, nil
}

func (s *dashboardService) GetPatientDashboard(ctx context.Context, patientID string) (*PatientDashboardResponse, error) {
	now := s.now()

	upcoming, err := s.repo.Dashboard().GetUpcomingForPatient(ctx, s.db, patientID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming appointments: %w", err)
	}

	past, err := s.repo.Dashboard().GetPastForPatient(ctx, s.db, patientID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get past appointments: %w", err)
	}

	return &PatientDashboardResponse{Upcoming: upcoming, Past: past}, nil
}
