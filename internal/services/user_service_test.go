package services

import (
	"context"
	"errors"
	"testing"

	"github.com/medicore-health/hospital-service/internal/events"
	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

func newUserTestService(repo *mockRepository, publisher events.EventPublisher, identity IdentityClient) UserService {
	return NewUserService(repo, nil, newTestLogger(), validator.New(), publisher, identity)
}

func TestRegisterPatient(t *testing.T) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(newTestLogger())
	identity := &mockIdentityClient{}
	svc := newUserTestService(repo, publisher, identity)

	age := 34
	user, err := svc.RegisterPatient(context.Background(), &RegisterPatientRequest{
		FullName: "Priya Nair",
		Email:    "priya@example.com",
		Password: "s3cret-pass",
		Age:      &age,
	})
	if err != nil {
		t.Fatalf("RegisterPatient failed: %v", err)
	}
	if user.Role != models.RolePatient {
		t.Errorf("expected patient role, got %s", user.Role)
	}
	if !user.IsActive {
		t.Errorf("new accounts start active")
	}
	if user.ID == "" {
		t.Errorf("expected generated user ID")
	}

	if len(identity.added) != 1 {
		t.Fatalf("expected one identity provisioning call, got %d", len(identity.added))
	}
	if identity.added[0].Name != user.ID || identity.added[0].Type != "patient" {
		t.Errorf("identity account mismatch: %+v", identity.added[0])
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventUserRegistered {
		t.Errorf("expected one %s event, got %+v", events.EventUserRegistered, published)
	}
}

func TestRegisterPatient_DuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := newUserTestService(repo, nil, nil)
	ctx := context.Background()

	req := &RegisterPatientRequest{FullName: "Priya Nair", Email: "priya@example.com", Password: "s3cret-pass"}
	if _, err := svc.RegisterPatient(ctx, req); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	_, err := svc.RegisterPatient(ctx, &RegisterPatientRequest{FullName: "Other Person", Email: "priya@example.com", Password: "another-pass"})
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestRegisterPatient_Validation(t *testing.T) {
	svc := newUserTestService(newMockRepository(), nil, nil)

	cases := []struct {
		name string
		req  *RegisterPatientRequest
	}{
		{"bad email", &RegisterPatientRequest{FullName: "Priya Nair", Email: "not-an-email", Password: "s3cret-pass"}},
		{"short password", &RegisterPatientRequest{FullName: "Priya Nair", Email: "priya@example.com", Password: "short"}},
		{"missing name", &RegisterPatientRequest{Email: "priya@example.com", Password: "s3cret-pass"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterPatient(context.Background(), tc.req)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Errorf("expected validation errors, got %v", err)
			}
		})
	}
}

func TestCreateDoctor(t *testing.T) {
	repo := newMockRepository()
	identity := &mockIdentityClient{}
	svc := newUserTestService(repo, nil, identity)

	user, err := svc.CreateDoctor(context.Background(), &CreateDoctorRequest{
		FullName:       "Dr. Chen",
		Email:          "chen@hospital.local",
		Password:       "s3cret-pass",
		Specialization: "Cardiology",
	}, "admin")
	if err != nil {
		t.Fatalf("CreateDoctor failed: %v", err)
	}
	if user.Role != models.RoleDoctor {
		t.Errorf("expected doctor role, got %s", user.Role)
	}
	if user.Specialization == nil || *user.Specialization != "Cardiology" {
		t.Errorf("expected specialization Cardiology, got %v", user.Specialization)
	}
	if len(identity.added) != 1 || identity.added[0].Type != "doctor" {
		t.Errorf("expected doctor identity account, got %+v", identity.added)
	}
}

func TestSetActive(t *testing.T) {
	repo := newMockRepository()
	identity := &mockIdentityClient{}
	svc := newUserTestService(repo, nil, identity)
	ctx := context.Background()

	repo.addUser(&models.User{ID: "doc-1", FullName: "Dr. Chen", Email: "chen@hospital.local", Role: models.RoleDoctor, IsActive: true})

	user, err := svc.SetActive(ctx, "doc-1", false, "admin")
	if err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if user.IsActive {
		t.Errorf("account should be deactivated")
	}
	if len(identity.updated) != 1 || !identity.updated[0].IsForbidden {
		t.Errorf("identity provider should be forbidden after deactivation, got %+v", identity.updated)
	}

	// Reactivate
	user, err = svc.SetActive(ctx, "doc-1", true, "admin")
	if err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if !user.IsActive {
		t.Errorf("account should be active again")
	}

	// Already in the requested state is a no-op, no extra identity call
	if _, err := svc.SetActive(ctx, "doc-1", true, "admin"); err != nil {
		t.Fatalf("idempotent SetActive failed: %v", err)
	}
	if len(identity.updated) != 2 {
		t.Errorf("no-op activation should not call the identity provider, got %d calls", len(identity.updated))
	}
}

func TestSetActive_Guards(t *testing.T) {
	repo := newMockRepository()
	svc := newUserTestService(repo, nil, nil)
	ctx := context.Background()

	repo.addUser(&models.User{ID: "admin-1", FullName: "Root Admin", Email: "admin@hospital.local", Role: models.RoleAdmin, IsActive: true})

	_, err := svc.SetActive(ctx, "admin-1", false, "admin-2")
	if !IsPermissionError(err) {
		t.Errorf("admin accounts must not be deactivated, got %v", err)
	}

	_, err = svc.SetActive(ctx, "nobody", false, "admin-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListDoctors(t *testing.T) {
	repo := newMockRepository()
	svc := newUserTestService(repo, nil, nil)
	ctx := context.Background()

	cardiology := "Cardiology"
	neurology := "Neurology"
	repo.addUser(&models.User{ID: "doc-1", FullName: "Dr. Chen", Email: "chen@hospital.local", Role: models.RoleDoctor, Specialization: &cardiology, IsActive: true})
	repo.addUser(&models.User{ID: "doc-2", FullName: "Dr. Okafor", Email: "okafor@hospital.local", Role: models.RoleDoctor, Specialization: &neurology, IsActive: true})
	repo.addUser(&models.User{ID: "doc-3", FullName: "Dr. Idle", Email: "idle@hospital.local", Role: models.RoleDoctor, Specialization: &cardiology, IsActive: false})
	repo.addUser(&models.User{ID: "pat-1", FullName: "Priya Nair", Email: "priya@example.com", Role: models.RolePatient, IsActive: true})

	all, err := svc.ListDoctors(ctx, "", nil)
	if err != nil {
		t.Fatalf("ListDoctors failed: %v", err)
	}
	if all.Total != 2 {
		t.Errorf("expected 2 active doctors, got %d", all.Total)
	}

	filtered, err := svc.ListDoctors(ctx, "", &cardiology)
	if err != nil {
		t.Fatalf("ListDoctors failed: %v", err)
	}
	if filtered.Total != 1 || filtered.Users[0].ID != "doc-1" {
		t.Errorf("expected only the active cardiologist, got %+v", filtered.Users)
	}

	byName, err := svc.ListDoctors(ctx, "okafor", nil)
	if err != nil {
		t.Fatalf("ListDoctors failed: %v", err)
	}
	if byName.Total != 1 || byName.Users[0].ID != "doc-2" {
		t.Errorf("expected name search to find doc-2, got %+v", byName.Users)
	}
}

func TestGetByID(t *testing.T) {
	repo := newMockRepository()
	svc := newUserTestService(repo, nil, nil)
	ctx := context.Background()

	repo.addUser(&models.User{ID: "pat-1", FullName: "Priya Nair", Email: "priya@example.com", Role: models.RolePatient, IsActive: true})

	user, err := svc.GetByID(ctx, "pat-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if user.Email != "priya@example.com" {
		t.Errorf("unexpected user %+v", user)
	}

	_, err = svc.GetByID(ctx, "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsers_RoleFilter(t *testing.T) {
	repo := newMockRepository()
	svc := newUserTestService(repo, nil, nil)
	ctx := context.Background()

	repo.addUser(&models.User{ID: "doc-1", FullName: "Dr. Chen", Email: "chen@hospital.local", Role: models.RoleDoctor, IsActive: true})
	repo.addUser(&models.User{ID: "pat-1", FullName: "Priya Nair", Email: "priya@example.com", Role: models.RolePatient, IsActive: true})
	repo.addUser(&models.User{ID: "pat-2", FullName: "Omar Haddad", Email: "omar@example.com", Role: models.RolePatient, IsActive: true})

	role := models.RolePatient
	patients, err := svc.List(ctx, repositories.UserFilters{Role: &role})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if patients.Total != 2 {
		t.Errorf("expected 2 patients, got %d", patients.Total)
	}

	found, err := svc.Search(ctx, "omar", repositories.UserFilters{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if found.Total != 1 || found.Users[0].ID != "pat-2" {
		t.Errorf("expected search to find pat-2, got %+v", found.Users)
	}
}
