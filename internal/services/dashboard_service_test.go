package services

import (
	"context"
	"testing"
	"time"

	"github.com/medicore-health/hospital-service/internal/models"
)

func newDashboardTestService(repo *mockRepository) *dashboardService {
	svc := NewDashboardService(repo, nil, newTestLogger()).(*dashboardService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedDashboardData(repo *mockRepository) {
	seedScheduleActors(repo)
	repo.addUser(&models.User{ID: "admin-1", FullName: "Root Admin", Email: "admin@hospital.local", Role: models.RoleAdmin, IsActive: true})

	appointments := []*models.Appointment{
		{PatientID: "pat-1", DoctorID: "doc-1", DateTime: testNow.AddDate(0, 0, 2), Status: models.AppointmentBooked},
		{PatientID: "pat-1", DoctorID: "doc-1", DateTime: testNow.AddDate(0, 0, -7), Status: models.AppointmentCompleted},
		{PatientID: "pat-1", DoctorID: "doc-2", DateTime: testNow.AddDate(0, 0, -3), Status: models.AppointmentCancelled},
		{PatientID: "pat-2", DoctorID: "doc-1", DateTime: testNow.AddDate(0, 0, 5), Status: models.AppointmentBooked},
	}
	for _, appointment := range appointments {
		appointment.ID = repo.allocID()
		repo.appointments[appointment.ID] = appointment
	}
}

func TestGetAdminStats(t *testing.T) {
	repo := newMockRepository()
	seedDashboardData(repo)
	svc := newDashboardTestService(repo)

	stats, err := svc.GetAdminStats(context.Background())
	if err != nil {
		t.Fatalf("GetAdminStats failed: %v", err)
	}

	if stats.TotalDoctors != 2 {
		t.Errorf("expected 2 doctors, got %d", stats.TotalDoctors)
	}
	if stats.TotalPatients != 2 {
		t.Errorf("expected 2 patients, got %d", stats.TotalPatients)
	}
	if stats.TotalAppointments != 4 {
		t.Errorf("expected 4 appointments, got %d", stats.TotalAppointments)
	}
	if stats.StatusBreakdown[models.AppointmentBooked] != 2 ||
		stats.StatusBreakdown[models.AppointmentCompleted] != 1 ||
		stats.StatusBreakdown[models.AppointmentCancelled] != 1 {
		t.Errorf("unexpected breakdown %+v", stats.StatusBreakdown)
	}
	if len(stats.RecentAppointments) != 4 {
		t.Errorf("expected 4 recent appointments, got %d", len(stats.RecentAppointments))
	}
}

func TestGetDoctorDashboard(t *testing.T) {
	repo := newMockRepository()
	seedDashboardData(repo)
	svc := newDashboardTestService(repo)

	dashboard, err := svc.GetDoctorDashboard(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetDoctorDashboard failed: %v", err)
	}

	// Only the two future appointments of doc-1, soonest first
	if len(dashboard.Upcoming) != 2 {
		t.Fatalf("expected 2 upcoming appointments, got %d", len(dashboard.Upcoming))
	}
	if !dashboard.Upcoming[0].DateTime.Before(dashboard.Upcoming[1].DateTime) {
		t.Errorf("upcoming schedule should be soonest first")
	}
	for _, appointment := range dashboard.Upcoming {
		if appointment.DoctorID != "doc-1" {
			t.Errorf("schedule leaked appointment of %s", appointment.DoctorID)
		}
	}
}

func TestGetPatientDashboard(t *testing.T) {
	repo := newMockRepository()
	seedDashboardData(repo)
	svc := newDashboardTestService(repo)

	dashboard, err := svc.GetPatientDashboard(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("GetPatientDashboard failed: %v", err)
	}

	if len(dashboard.Upcoming) != 1 {
		t.Errorf("expected 1 upcoming appointment, got %d", len(dashboard.Upcoming))
	}
	if len(dashboard.Past) != 2 {
		t.Errorf("expected 2 past appointments, got %d", len(dashboard.Past))
	}
	if len(dashboard.Past) == 2 && dashboard.Past[0].DateTime.Before(dashboard.Past[1].DateTime) {
		t.Errorf("past visits should be most recent first")
	}
}
