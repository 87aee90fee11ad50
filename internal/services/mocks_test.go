package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRepository is an in-memory repositories.Repository for service tests
type mockRepository struct {
	users        map[string]*models.User
	departments  map[uint]*models.Department
	slots        map[uint]*models.DoctorAvailability
	appointments map[uint]*models.Appointment
	treatments   map[uint]*models.Treatment // keyed by appointment ID
	nextID       uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:        make(map[string]*models.User),
		departments:  make(map[uint]*models.Department),
		slots:        make(map[uint]*models.DoctorAvailability),
		appointments: make(map[uint]*models.Appointment),
		treatments:   make(map[uint]*models.Treatment),
	}
}

func (m *mockRepository) allocID() uint {
	m.nextID++
	return m.nextID
}

func (m *mockRepository) User() repositories.UserRepository {
	return &mockUserRepo{m}
}

func (m *mockRepository) Department() repositories.DepartmentRepository {
	return &mockDepartmentRepo{m}
}

func (m *mockRepository) Availability() repositories.AvailabilityRepository {
	return &mockAvailabilityRepo{m}
}

func (m *mockRepository) Appointment() repositories.AppointmentRepository {
	return &mockAppointmentRepo{m}
}

func (m *mockRepository) Treatment() repositories.TreatmentRepository {
	return &mockTreatmentRepo{m}
}

func (m *mockRepository) Dashboard() repositories.DashboardRepository {
	return &mockDashboardRepo{m}
}

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }

func (m *mockRepository) Close() error { return nil }

// addUser seeds an account directly into the store
func (m *mockRepository) addUser(user *models.User) *models.User {
	m.users[user.ID] = user
	return user
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ===== USER =====

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	for _, existing := range r.m.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.m.users[user.ID] = user
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, user := range r.m.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.ActiveOnly && !user.IsActive {
			continue
		}
		if filters.Specialization != nil {
			if user.Specialization == nil || *user.Specialization != *filters.Specialization {
				continue
			}
		}
		if filters.Query != "" {
			q := strings.ToLower(filters.Query)
			if !strings.Contains(strings.ToLower(user.FullName), q) &&
				!strings.Contains(strings.ToLower(user.Email), q) {
				continue
			}
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockUserRepo) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.Query = query
	return r.List(ctx, filters)
}

func (r *mockUserRepo) SetActive(ctx context.Context, tx *gorm.DB, id string, active bool) error {
	user, ok := r.m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsActive = active
	return nil
}

func (r *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := r.m.users[id]
	return ok, nil
}

func (r *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, user := range r.m.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, ok := r.m.users[id]
	if !ok {
		return false, nil
	}
	return user.Role == role, nil
}

// ===== DEPARTMENT =====

type mockDepartmentRepo struct{ m *mockRepository }

func (r *mockDepartmentRepo) Create(ctx context.Context, tx *gorm.DB, department *models.Department) error {
	for _, existing := range r.m.departments {
		if existing.Name == department.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	department.ID = r.m.allocID()
	r.m.departments[department.ID] = department
	return nil
}

func (r *mockDepartmentRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Department, error) {
	var out []*models.Department
	for _, department := range r.m.departments {
		out = append(out, department)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *mockDepartmentRepo) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	for _, department := range r.m.departments {
		if department.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ===== AVAILABILITY =====

type mockAvailabilityRepo struct{ m *mockRepository }

func (r *mockAvailabilityRepo) Create(ctx context.Context, tx *gorm.DB, slot *models.DoctorAvailability) error {
	slot.ID = r.m.allocID()
	r.m.slots[slot.ID] = slot
	return nil
}

func (r *mockAvailabilityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DoctorAvailability, error) {
	slot, ok := r.m.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return slot, nil
}

func (r *mockAvailabilityRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.m.slots[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.slots, id)
	return nil
}

func (r *mockAvailabilityRepo) ListByDoctorDate(ctx context.Context, tx *gorm.DB, doctorID string, date time.Time) ([]*models.DoctorAvailability, error) {
	var out []*models.DoctorAvailability
	for _, slot := range r.m.slots {
		if slot.DoctorID == doctorID && sameDay(time.Time(slot.Date), date) {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *mockAvailabilityRepo) ListUpcoming(ctx context.Context, tx *gorm.DB, filters repositories.AvailabilityFilters) ([]*models.DoctorAvailability, error) {
	var out []*models.DoctorAvailability
	for _, slot := range r.m.slots {
		date := time.Time(slot.Date)
		if slot.DoctorID == filters.DoctorID && !date.Before(filters.From) && !date.After(filters.To) {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := time.Time(out[i].Date), time.Time(out[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *mockAvailabilityRepo) CountOverlapping(ctx context.Context, tx *gorm.DB, doctorID string, date time.Time, start, end string) (int64, error) {
	var count int64
	for _, slot := range r.m.slots {
		if slot.DoctorID == doctorID && sameDay(time.Time(slot.Date), date) && slot.Overlaps(start, end) {
			count++
		}
	}
	return count, nil
}

// ===== APPOINTMENT =====

type mockAppointmentRepo struct{ m *mockRepository }

func (r *mockAppointmentRepo) Create(ctx context.Context, tx *gorm.DB, appointment *models.Appointment) error {
	for _, existing := range r.m.appointments {
		if existing.DoctorID == appointment.DoctorID &&
			existing.DateTime.Equal(appointment.DateTime) &&
			existing.Status != models.AppointmentCancelled {
			return gorm.ErrDuplicatedKey
		}
	}
	appointment.ID = r.m.allocID()
	r.m.appointments[appointment.ID] = appointment
	return nil
}

func (r *mockAppointmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Appointment, error) {
	appointment, ok := r.m.appointments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return appointment, nil
}

func (r *mockAppointmentRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Appointment, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *mockAppointmentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AppointmentStatus) error {
	appointment, ok := r.m.appointments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	appointment.Status = status
	return nil
}

func (r *mockAppointmentRepo) UpdateDateTime(ctx context.Context, tx *gorm.DB, id uint, dateTime time.Time) error {
	appointment, ok := r.m.appointments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	appointment.DateTime = dateTime
	return nil
}

func (r *mockAppointmentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	var out []*models.Appointment
	for _, appointment := range r.m.appointments {
		if filters.Status != nil && appointment.Status != *filters.Status {
			continue
		}
		if filters.DoctorID != nil && appointment.DoctorID != *filters.DoctorID {
			continue
		}
		if filters.PatientID != nil && appointment.PatientID != *filters.PatientID {
			continue
		}
		if filters.DateFrom != nil && appointment.DateTime.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && appointment.DateTime.After(*filters.DateTo) {
			continue
		}
		out = append(out, appointment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })

	total := int64(len(out))
	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			out = nil
		} else {
			out = out[filters.Offset:]
		}
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (r *mockAppointmentRepo) CountActiveAt(ctx context.Context, tx *gorm.DB, doctorID string, at time.Time, excludeID *uint) (int64, error) {
	var count int64
	for _, appointment := range r.m.appointments {
		if excludeID != nil && appointment.ID == *excludeID {
			continue
		}
		if appointment.DoctorID == doctorID &&
			appointment.DateTime.Equal(at) &&
			appointment.Status != models.AppointmentCancelled {
			count++
		}
	}
	return count, nil
}

// ===== TREATMENT =====

type mockTreatmentRepo struct{ m *mockRepository }

func (r *mockTreatmentRepo) GetByAppointment(ctx context.Context, tx *gorm.DB, appointmentID uint) (*models.Treatment, error) {
	treatment, ok := r.m.treatments[appointmentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return treatment, nil
}

func (r *mockTreatmentRepo) Upsert(ctx context.Context, tx *gorm.DB, treatment *models.Treatment) error {
	if existing, ok := r.m.treatments[treatment.AppointmentID]; ok {
		existing.Diagnosis = treatment.Diagnosis
		existing.Prescription = treatment.Prescription
		existing.Notes = treatment.Notes
		return nil
	}
	treatment.ID = r.m.allocID()
	r.m.treatments[treatment.AppointmentID] = treatment
	return nil
}

// ===== DASHBOARD =====

type mockDashboardRepo struct{ m *mockRepository }

func (r *mockDashboardRepo) countByRole(role models.UserRole) int64 {
	var count int64
	for _, user := range r.m.users {
		if user.Role == role {
			count++
		}
	}
	return count
}

func (r *mockDashboardRepo) GetTotalDoctors(ctx context.Context, tx *gorm.DB) (int64, error) {
	return r.countByRole(models.RoleDoctor), nil
}

func (r *mockDashboardRepo) GetTotalPatients(ctx context.Context, tx *gorm.DB) (int64, error) {
	return r.countByRole(models.RolePatient), nil
}

func (r *mockDashboardRepo) GetTotalAppointments(ctx context.Context, tx *gorm.DB) (int64, error) {
	return int64(len(r.m.appointments)), nil
}

func (r *mockDashboardRepo) GetStatusBreakdown(ctx context.Context, tx *gorm.DB) (map[models.AppointmentStatus]int64, error) {
	breakdown := make(map[models.AppointmentStatus]int64)
	for _, appointment := range r.m.appointments {
		breakdown[appointment.Status]++
	}
	return breakdown, nil
}

func (r *mockDashboardRepo) GetRecentAppointments(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, appointment := range r.m.appointments {
		out = append(out, appointment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *mockDashboardRepo) GetUpcomingForDoctor(ctx context.Context, tx *gorm.DB, doctorID string, from time.Time) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, appointment := range r.m.appointments {
		if appointment.DoctorID == doctorID && !appointment.DateTime.Before(from) {
			out = append(out, appointment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (r *mockDashboardRepo) GetUpcomingForPatient(ctx context.Context, tx *gorm.DB, patientID string, from time.Time) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, appointment := range r.m.appointments {
		if appointment.PatientID == patientID && !appointment.DateTime.Before(from) {
			out = append(out, appointment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (r *mockDashboardRepo) GetPastForPatient(ctx context.Context, tx *gorm.DB, patientID string, before time.Time) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, appointment := range r.m.appointments {
		if appointment.PatientID == patientID && appointment.DateTime.Before(before) {
			out = append(out, appointment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out, nil
}

// ===== IDENTITY =====

// mockIdentityClient records identity-provider calls
type mockIdentityClient struct {
	added   []*casdoorsdk.User
	updated []*casdoorsdk.User
	failAdd bool
}

func (c *mockIdentityClient) AddUser(user *casdoorsdk.User) (bool, error) {
	if c.failAdd {
		return false, nil
	}
	c.added = append(c.added, user)
	return true, nil
}

func (c *mockIdentityClient) UpdateUser(user *casdoorsdk.User) (bool, error) {
	c.updated = append(c.updated, user)
	return true, nil
}
