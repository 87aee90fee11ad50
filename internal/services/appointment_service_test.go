package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medicore-health/hospital-service/internal/events"
	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

var testNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func newAppointmentTestService(repo *mockRepository, publisher events.EventPublisher) *appointmentService {
	svc := NewAppointmentService(repo, nil, newTestLogger(), validator.New(), publisher).(*appointmentService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedScheduleActors(repo *mockRepository) {
	repo.addUser(&models.User{ID: "doc-1", FullName: "Dr. Chen", Email: "chen@hospital.local", Role: models.RoleDoctor, IsActive: true})
	repo.addUser(&models.User{ID: "doc-2", FullName: "Dr. Okafor", Email: "okafor@hospital.local", Role: models.RoleDoctor, IsActive: true})
	repo.addUser(&models.User{ID: "pat-1", FullName: "Priya Nair", Email: "priya@example.com", Role: models.RolePatient, IsActive: true})
	repo.addUser(&models.User{ID: "pat-2", FullName: "Omar Haddad", Email: "omar@example.com", Role: models.RolePatient, IsActive: true})
}

func TestBookAppointment(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	publisher := events.NewMockEventPublisher(newTestLogger())
	svc := newAppointmentTestService(repo, publisher)
	ctx := context.Background()

	resp, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{
		DoctorID: "doc-1",
		Date:     "2026-02-01",
		Time:     "10:00",
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if resp.Status != models.AppointmentBooked {
		t.Errorf("expected status Booked, got %s", resp.Status)
	}
	want := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if !resp.DateTime.Equal(want) {
		t.Errorf("expected date_time %v, got %v", want, resp.DateTime)
	}
	if !resp.CanCancel || !resp.CanReschedule {
		t.Errorf("patient should be able to cancel and reschedule a future booking")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventAppointmentBooked {
		t.Errorf("expected one %s event, got %+v", events.EventAppointmentBooked, published)
	}
}

func TestBookAppointment_Conflict(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	req := &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"}
	if _, err := svc.Book(ctx, "pat-1", req); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := svc.Book(ctx, "pat-2", req)
	if !errors.Is(err, ErrAppointmentConflict) {
		t.Errorf("expected ErrAppointmentConflict, got %v", err)
	}

	// Same instant with another doctor is not a conflict
	if _, err := svc.Book(ctx, "pat-2", &BookAppointmentRequest{DoctorID: "doc-2", Date: "2026-02-01", Time: "10:00"}); err != nil {
		t.Errorf("booking a different doctor at the same time should succeed, got %v", err)
	}

	// Neighbouring minute with the same doctor is fine: conflicts are exact
	if _, err := svc.Book(ctx, "pat-2", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:01"}); err != nil {
		t.Errorf("booking an adjacent minute should succeed, got %v", err)
	}
}

func TestBookAppointment_CancelledSlotReusable(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	req := &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"}
	first, err := svc.Book(ctx, "pat-1", req)
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, first.ID, "pat-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.Book(ctx, "pat-2", req); err != nil {
		t.Errorf("cancelled slot should be bookable again, got %v", err)
	}
}

func TestBookAppointment_DoctorChecks(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	repo.addUser(&models.User{ID: "doc-off", FullName: "Dr. Idle", Email: "idle@hospital.local", Role: models.RoleDoctor, IsActive: false})
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "nobody", Date: "2026-02-01", Time: "10:00"})
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("unknown doctor: expected ErrDoctorNotFound, got %v", err)
	}

	// A patient ID is not a doctor
	_, err = svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "pat-2", Date: "2026-02-01", Time: "10:00"})
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("non-doctor target: expected ErrDoctorNotFound, got %v", err)
	}

	_, err = svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-off", Date: "2026-02-01", Time: "10:00"})
	if !errors.Is(err, ErrDoctorNotActive) {
		t.Errorf("deactivated doctor: expected ErrDoctorNotActive, got %v", err)
	}
}

func TestBookAppointment_InvalidRequest(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)

	_, err := svc.Book(context.Background(), "pat-1", &BookAppointmentRequest{
		DoctorID: "doc-1",
		Date:     "01/02/2026",
		Time:     "10:00",
	})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Errorf("expected validation errors for bad date format, got %v", err)
	}
}

func TestRescheduleAppointment(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	publisher := events.NewMockEventPublisher(newTestLogger())
	svc := newAppointmentTestService(repo, publisher)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	publisher.ClearEvents()

	resp, err := svc.Reschedule(ctx, booked.ID, "pat-1", &RescheduleAppointmentRequest{Date: "2026-02-02", Time: "11:30"})
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	want := time.Date(2026, 2, 2, 11, 30, 0, 0, time.UTC)
	if !resp.DateTime.Equal(want) {
		t.Errorf("expected new date_time %v, got %v", want, resp.DateTime)
	}
	if resp.Status != models.AppointmentBooked {
		t.Errorf("reschedule must not change status, got %s", resp.Status)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventAppointmentRescheduled {
		t.Fatalf("expected one %s event, got %+v", events.EventAppointmentRescheduled, published)
	}
	payload, ok := published[0].Data.(events.AppointmentEvent)
	if !ok {
		t.Fatalf("unexpected event payload type %T", published[0].Data)
	}
	if payload.PreviousDateTime == nil || !payload.PreviousDateTime.Equal(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("reschedule event should carry the previous slot, got %v", payload.PreviousDateTime)
	}

	// The old slot is free again for another patient
	if _, err := svc.Book(ctx, "pat-2", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"}); err != nil {
		t.Errorf("vacated slot should be bookable, got %v", err)
	}
}

func TestRescheduleAppointment_Conflict(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	second, err := svc.Book(ctx, "pat-2", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "11:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	_, err = svc.Reschedule(ctx, second.ID, "pat-2", &RescheduleAppointmentRequest{Date: "2026-02-01", Time: "10:00"})
	if !errors.Is(err, ErrAppointmentConflict) {
		t.Errorf("expected ErrAppointmentConflict, got %v", err)
	}

	// Rescheduling onto its own slot does not conflict with itself
	if _, err := svc.Reschedule(ctx, second.ID, "pat-2", &RescheduleAppointmentRequest{Date: "2026-02-01", Time: "11:00"}); err != nil {
		t.Errorf("rescheduling to the same slot should succeed, got %v", err)
	}
}

func TestRescheduleAppointment_Guards(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	req := &RescheduleAppointmentRequest{Date: "2026-02-03", Time: "09:00"}

	_, err = svc.Reschedule(ctx, booked.ID, "pat-2", req)
	if !IsPermissionError(err) {
		t.Errorf("foreign patient: expected permission error, got %v", err)
	}

	_, err = svc.Reschedule(ctx, 9999, "pat-1", req)
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("missing appointment: expected ErrAppointmentNotFound, got %v", err)
	}

	if _, err := svc.Cancel(ctx, booked.ID, "pat-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err = svc.Reschedule(ctx, booked.ID, "pat-1", req)
	if !errors.Is(err, ErrAppointmentNotBooked) {
		t.Errorf("cancelled appointment: expected ErrAppointmentNotBooked, got %v", err)
	}
}

func TestCancelAppointment(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	publisher := events.NewMockEventPublisher(newTestLogger())
	svc := newAppointmentTestService(repo, publisher)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	publisher.ClearEvents()

	resp, err := svc.Cancel(ctx, booked.ID, "pat-1")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if resp.Status != models.AppointmentCancelled {
		t.Errorf("expected status Cancelled, got %s", resp.Status)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventAppointmentCancelled {
		t.Errorf("expected one %s event, got %+v", events.EventAppointmentCancelled, published)
	}

	// Cancelling twice fails: Cancelled is terminal
	_, err = svc.Cancel(ctx, booked.ID, "pat-1")
	if !errors.Is(err, ErrAppointmentNotBooked) {
		t.Errorf("second cancel: expected ErrAppointmentNotBooked, got %v", err)
	}
}

func TestCancelAppointment_Guards(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	_, err = svc.Cancel(ctx, booked.ID, "pat-2")
	if !IsPermissionError(err) {
		t.Errorf("foreign patient: expected permission error, got %v", err)
	}

	// A booking whose time has already passed can no longer be cancelled
	past, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-03-01", Time: "08:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) }
	_, err = svc.Cancel(ctx, past.ID, "pat-1")
	if !errors.Is(err, ErrAppointmentInPast) {
		t.Errorf("past appointment: expected ErrAppointmentInPast, got %v", err)
	}
}

func TestCompleteAppointment(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	publisher := events.NewMockEventPublisher(newTestLogger())
	svc := newAppointmentTestService(repo, publisher)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	publisher.ClearEvents()

	resp, err := svc.Complete(ctx, booked.ID, "doc-1", &CompleteAppointmentRequest{
		Diagnosis:    "Seasonal allergy",
		Prescription: "Antihistamine 10mg",
		Notes:        "Review in two weeks",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Status != models.AppointmentCompleted {
		t.Errorf("expected status Completed, got %s", resp.Status)
	}

	treatment, err := svc.GetTreatment(ctx, booked.ID, "doc-1", models.RoleDoctor)
	if err != nil {
		t.Fatalf("GetTreatment failed: %v", err)
	}
	if treatment.Diagnosis != "Seasonal allergy" {
		t.Errorf("unexpected diagnosis %q", treatment.Diagnosis)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventAppointmentCompleted {
		t.Errorf("expected one %s event, got %+v", events.EventAppointmentCompleted, published)
	}
}

func TestCompleteAppointment_OverwritesTreatment(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	if _, err := svc.Complete(ctx, booked.ID, "doc-1", &CompleteAppointmentRequest{Diagnosis: "first pass"}); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}
	if _, err := svc.Complete(ctx, booked.ID, "doc-1", &CompleteAppointmentRequest{Diagnosis: "corrected diagnosis"}); err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}

	if len(repo.treatments) != 1 {
		t.Fatalf("expected exactly one treatment row, got %d", len(repo.treatments))
	}
	treatment, err := svc.GetTreatment(ctx, booked.ID, "pat-1", models.RolePatient)
	if err != nil {
		t.Fatalf("GetTreatment failed: %v", err)
	}
	if treatment.Diagnosis != "corrected diagnosis" {
		t.Errorf("second completion should overwrite the record, got %q", treatment.Diagnosis)
	}
}

func TestCompleteAppointment_Guards(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	_, err = svc.Complete(ctx, booked.ID, "doc-2", &CompleteAppointmentRequest{Diagnosis: "x"})
	if !IsPermissionError(err) {
		t.Errorf("foreign doctor: expected permission error, got %v", err)
	}

	if _, err := svc.Cancel(ctx, booked.ID, "pat-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err = svc.Complete(ctx, booked.ID, "doc-1", &CompleteAppointmentRequest{Diagnosis: "x"})
	if !errors.Is(err, ErrAppointmentCancelled) {
		t.Errorf("cancelled appointment: expected ErrAppointmentCancelled, got %v", err)
	}
}

func TestListAppointments_RoleScoped(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := svc.Book(ctx, "pat-2", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "11:00"}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-2", Date: "2026-02-01", Time: "10:00"}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	patientView, err := svc.List(ctx, repositories.AppointmentFilters{}, "pat-1", models.RolePatient)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if patientView.Total != 2 {
		t.Errorf("patient should see 2 appointments, got %d", patientView.Total)
	}
	for _, a := range patientView.Appointments {
		if a.PatientID != "pat-1" {
			t.Errorf("patient list leaked appointment of %s", a.PatientID)
		}
	}

	doctorView, err := svc.List(ctx, repositories.AppointmentFilters{}, "doc-1", models.RoleDoctor)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if doctorView.Total != 2 {
		t.Errorf("doctor should see 2 appointments, got %d", doctorView.Total)
	}

	adminView, err := svc.List(ctx, repositories.AppointmentFilters{}, "admin", models.RoleAdmin)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if adminView.Total != 3 {
		t.Errorf("admin should see all 3 appointments, got %d", adminView.Total)
	}
}

func TestGetAppointment_AccessControl(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	if _, err := svc.GetByID(ctx, booked.ID, "doc-1", models.RoleDoctor); err != nil {
		t.Errorf("assigned doctor should read the appointment, got %v", err)
	}
	if _, err := svc.GetByID(ctx, booked.ID, "admin", models.RoleAdmin); err != nil {
		t.Errorf("admin should read any appointment, got %v", err)
	}
	_, err = svc.GetByID(ctx, booked.ID, "pat-2", models.RolePatient)
	if !IsPermissionError(err) {
		t.Errorf("bystander: expected permission error, got %v", err)
	}

	_, err = svc.GetTreatment(ctx, booked.ID, "pat-1", models.RolePatient)
	if !errors.Is(err, ErrTreatmentNotFound) {
		t.Errorf("no treatment yet: expected ErrTreatmentNotFound, got %v", err)
	}
}

func TestHasConflict(t *testing.T) {
	repo := newMockRepository()
	seedScheduleActors(repo)
	svc := newAppointmentTestService(repo, nil)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "pat-1", &BookAppointmentRequest{DoctorID: "doc-1", Date: "2026-02-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	conflict, err := svc.HasConflict(ctx, "doc-1", at, nil)
	if err != nil || !conflict {
		t.Errorf("expected conflict at occupied slot, got conflict=%v err=%v", conflict, err)
	}

	conflict, err = svc.HasConflict(ctx, "doc-1", at, &booked.ID)
	if err != nil || conflict {
		t.Errorf("excluding the occupant should clear the conflict, got conflict=%v err=%v", conflict, err)
	}

	conflict, err = svc.HasConflict(ctx, "doc-2", at, nil)
	if err != nil || conflict {
		t.Errorf("other doctor should be free, got conflict=%v err=%v", conflict, err)
	}
}
