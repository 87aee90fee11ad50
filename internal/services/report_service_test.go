package services

import (
	"context"
	"testing"
	"time"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
)

func TestExportAppointments(t *testing.T) {
	repo := newMockRepository()
	svc := NewReportService(repo, nil, newTestLogger())
	ctx := context.Background()

	specialization := "Cardiology"
	doctor := models.User{ID: "doc-1", FullName: "Dr. Chen", Email: "chen@hospital.local", Role: models.RoleDoctor, Specialization: &specialization}
	patient := models.User{ID: "pat-1", FullName: "Priya Nair", Email: "priya@example.com", Role: models.RolePatient}

	completed := &models.Appointment{
		ID:        repo.allocID(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		DateTime:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Status:    models.AppointmentCompleted,
		Patient:   patient,
		Doctor:    doctor,
	}
	booked := &models.Appointment{
		ID:        repo.allocID(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		DateTime:  time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC),
		Status:    models.AppointmentBooked,
		Patient:   patient,
		Doctor:    doctor,
	}
	repo.appointments[completed.ID] = completed
	repo.appointments[booked.ID] = booked
	repo.treatments[completed.ID] = &models.Treatment{
		ID:            repo.allocID(),
		AppointmentID: completed.ID,
		Diagnosis:     "Arrhythmia",
		Prescription:  "Beta blocker",
	}

	file, err := svc.ExportAppointments(ctx, repositories.AppointmentFilters{SortBy: "date_time", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("ExportAppointments failed: %v", err)
	}

	rows, err := file.GetRows("Appointments")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][8] != "Diagnosis" {
		t.Errorf("unexpected header row %v", rows[0])
	}

	// Rows are date ascending: completed visit first, with its treatment
	if rows[1][1] != "Priya Nair" || rows[1][4] != "Cardiology" {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[1][8] != "Arrhythmia" {
		t.Errorf("completed visit should carry its diagnosis, got %v", rows[1])
	}
	if len(rows[2]) > 8 && rows[2][8] != "" {
		t.Errorf("booked visit must not carry treatment text, got %v", rows[2])
	}
}

func TestExportAppointments_Empty(t *testing.T) {
	repo := newMockRepository()
	svc := NewReportService(repo, nil, newTestLogger())

	file, err := svc.ExportAppointments(context.Background(), repositories.AppointmentFilters{})
	if err != nil {
		t.Fatalf("ExportAppointments failed: %v", err)
	}

	rows, err := file.GetRows("Appointments")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected only the header row, got %d", len(rows))
	}
}
