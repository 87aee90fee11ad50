package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/events"
	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

type appointmentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	now            func() time.Time
}

func NewAppointmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) AppointmentService {
	return &appointmentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		now:            time.Now,
	}
}

// ===== LIFECYCLE OPERATIONS =====

func (s *appointmentService) Book(ctx context.Context, patientID string, req *BookAppointmentRequest) (*AppointmentResponse, error) {
	s.logger.Info("Booking appointment",
		"patient_id", patientID,
		"doctor_id", req.DoctorID,
		"date", req.Date,
		"time", req.Time)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	dateTime, err := validator.CombineDateTime(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	if err := s.checkDoctorBookable(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	var appointment *models.Appointment
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		conflict, err := s.hasConflictIn(ctx, txRepo, req.DoctorID, dateTime, nil)
		if err != nil {
			return err
		}
		if conflict {
			return ErrAppointmentConflict
		}

		appointment = &models.Appointment{
			PatientID: patientID,
			DoctorID:  req.DoctorID,
			DateTime:  dateTime,
			Status:    models.AppointmentBooked,
		}
		if err := txRepo.Appointment().Create(ctx, nil, appointment); err != nil {
			// The partial unique index on (doctor_id, date_time) is the
			// authoritative guard; a racing booking surfaces here.
			if repositories.IsDuplicateKeyError(err) {
				return ErrAppointmentConflict
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAppointmentEvent(ctx, events.EventAppointmentBooked, appointment, nil)

	s.logger.Info("Appointment booked",
		"appointment_id", appointment.ID,
		"patient_id", patientID,
		"doctor_id", req.DoctorID)

	return s.buildAppointmentResponse(appointment, patientID, models.RolePatient), nil
}

func (s *appointmentService) Reschedule(ctx context.Context, id uint, actorID string, req *RescheduleAppointmentRequest) (*AppointmentResponse, error) {
	s.logger.Info("Rescheduling appointment", "appointment_id", id, "actor_id", actorID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	newDateTime, err := validator.CombineDateTime(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	var appointment *models.Appointment
	var previous time.Time
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		appointment, err = txRepo.Appointment().GetByID(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("failed to get appointment: %w", err)
		}

		if appointment.PatientID != actorID {
			return NewPermissionError(actorID, id, "appointment", "reschedule", "not the booking patient")
		}
		if appointment.Status != models.AppointmentBooked {
			return ErrAppointmentNotBooked
		}

		conflict, err := s.hasConflictIn(ctx, txRepo, appointment.DoctorID, newDateTime, &id)
		if err != nil {
			return err
		}
		if conflict {
			return ErrAppointmentConflict
		}

		previous = appointment.DateTime
		if err := txRepo.Appointment().UpdateDateTime(ctx, nil, id, newDateTime); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return ErrAppointmentConflict
			}
			return fmt.Errorf("failed to update appointment time: %w", err)
		}
		appointment.DateTime = newDateTime
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAppointmentEvent(ctx, events.EventAppointmentRescheduled, appointment, &previous)

	s.logger.Info("Appointment rescheduled",
		"appointment_id", id,
		"previous", previous,
		"new", newDateTime)

	return s.buildAppointmentResponse(appointment, actorID, models.RolePatient), nil
}

func (s *appointmentService) Cancel(ctx context.Context, id uint, actorID string) (*AppointmentResponse, error) {
	s.logger.Info("Cancelling appointment", "appointment_id", id, "actor_id", actorID)

	var appointment *models.Appointment
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		appointment, err = txRepo.Appointment().GetByID(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("failed to get appointment: %w", err)
		}

		if appointment.PatientID != actorID {
			return NewPermissionError(actorID, id, "appointment", "cancel", "not the booking patient")
		}
		if appointment.Status != models.AppointmentBooked {
			return ErrAppointmentNotBooked
		}
		if appointment.DateTime.Before(s.now()) {
			return ErrAppointmentInPast
		}

		if err := txRepo.Appointment().UpdateStatus(ctx, nil, id, models.AppointmentCancelled); err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}
		appointment.Status = models.AppointmentCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAppointmentEvent(ctx, events.EventAppointmentCancelled, appointment, nil)

	s.logger.Info("Appointment cancelled", "appointment_id", id)
	return s.buildAppointmentResponse(appointment, actorID, models.RolePatient), nil
}

func (s *appointmentService) Complete(ctx context.Context, id uint, doctorID string, req *CompleteAppointmentRequest) (*AppointmentResponse, error) {
	s.logger.Info("Completing appointment", "appointment_id", id, "doctor_id", doctorID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	var appointment *models.Appointment
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		appointment, err = txRepo.Appointment().GetByID(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("failed to get appointment: %w", err)
		}

		if appointment.DoctorID != doctorID {
			return NewPermissionError(doctorID, id, "appointment", "complete", "not the assigned doctor")
		}
		// Completing again just overwrites the treatment record; only a
		// cancelled appointment is off limits.
		if appointment.Status == models.AppointmentCancelled {
			return ErrAppointmentCancelled
		}

		if appointment.Status != models.AppointmentCompleted {
			if err := txRepo.Appointment().UpdateStatus(ctx, nil, id, models.AppointmentCompleted); err != nil {
				return fmt.Errorf("failed to complete appointment: %w", err)
			}
			appointment.Status = models.AppointmentCompleted
		}

		treatment := &models.Treatment{
			AppointmentID: id,
			Diagnosis:     req.Diagnosis,
			Prescription:  req.Prescription,
			Notes:         req.Notes,
		}
		if err := txRepo.Treatment().Upsert(ctx, nil, treatment); err != nil {
			return fmt.Errorf("failed to upsert treatment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAppointmentEvent(ctx, events.EventAppointmentCompleted, appointment, nil)

	s.logger.Info("Appointment completed", "appointment_id", id)
	return s.buildAppointmentResponse(appointment, doctorID, models.RoleDoctor), nil
}

// ===== READ OPERATIONS =====

func (s *appointmentService) GetByID(ctx context.Context, id uint, actorID string, actorRole models.UserRole) (*AppointmentResponse, error) {
	appointment, err := s.repo.Appointment().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if !s.canAccess(appointment, actorID, actorRole) {
		return nil, NewPermissionError(actorID, id, "appointment", "read", "not a participant")
	}

	return s.buildAppointmentResponse(appointment, actorID, actorRole), nil
}

func (s *appointmentService) GetTreatment(ctx context.Context, appointmentID uint, actorID string, actorRole models.UserRole) (*models.Treatment, error) {
	appointment, err := s.repo.Appointment().GetByID(ctx, s.db, appointmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if !s.canAccess(appointment, actorID, actorRole) {
		return nil, NewPermissionError(actorID, appointmentID, "treatment", "read", "not a participant")
	}

	treatment, err := s.repo.Treatment().GetByAppointment(ctx, s.db, appointmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTreatmentNotFound
		}
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return treatment, nil
}

func (s *appointmentService) List(ctx context.Context, filters repositories.AppointmentFilters, actorID string, actorRole models.UserRole) (*AppointmentListResponse, error) {
	// Non-admin actors only ever see their own side of the schedule.
	switch actorRole {
	case models.RolePatient:
		filters.PatientID = &actorID
	case models.RoleDoctor:
		filters.DoctorID = &actorID
	}

	appointments, total, err := s.repo.Appointment().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	responses := make([]*AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		responses[i] = s.buildAppointmentResponse(appointment, actorID, actorRole)
	}

	return &AppointmentListResponse{
		Appointments: responses,
		Total:        total,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}, nil
}

func (s *appointmentService) HasConflict(ctx context.Context, doctorID string, at time.Time, excludeID *uint) (bool, error) {
	return s.hasConflictIn(ctx, s.repo, doctorID, at, excludeID)
}

// ===== HELPERS =====

func (s *appointmentService) hasConflictIn(ctx context.Context, repo repositories.Repository, doctorID string, at time.Time, excludeID *uint) (bool, error) {
	count, err := repo.Appointment().CountActiveAt(ctx, nil, doctorID, at, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check appointment conflict: %w", err)
	}
	return count > 0, nil
}

func (s *appointmentService) checkDoctorBookable(ctx context.Context, doctorID string) error {
	doctor, err := s.repo.User().GetByID(ctx, doctorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDoctorNotFound
		}
		return fmt.Errorf("failed to get doctor: %w", err)
	}
	if doctor.Role != models.RoleDoctor {
		return ErrDoctorNotFound
	}
	if !doctor.IsActive {
		return ErrDoctorNotActive
	}
	return nil
}

func (s *appointmentService) canAccess(appointment *models.Appointment, actorID string, actorRole models.UserRole) bool {
	if actorRole == models.RoleAdmin {
		return true
	}
	return appointment.PatientID == actorID || appointment.DoctorID == actorID
}

func (s *appointmentService) buildAppointmentResponse(appointment *models.Appointment, actorID string, actorRole models.UserRole) *AppointmentResponse {
	booked := appointment.Status == models.AppointmentBooked
	future := appointment.DateTime.After(s.now())

	return &AppointmentResponse{
		Appointment:   appointment,
		CanCancel:     booked && future && appointment.PatientID == actorID,
		CanReschedule: booked && appointment.PatientID == actorID,
		CanComplete:   booked && actorRole == models.RoleDoctor && appointment.DoctorID == actorID,
	}
}

func (s *appointmentService) publishAppointmentEvent(ctx context.Context, eventType string, appointment *models.Appointment, previous *time.Time) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(eventType, events.AppointmentEvent{
		AppointmentID:    appointment.ID,
		PatientID:        appointment.PatientID,
		DoctorID:         appointment.DoctorID,
		DateTime:         appointment.DateTime,
		Status:           string(appointment.Status),
		PreviousDateTime: previous,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish appointment event",
			"type", eventType,
			"appointment_id", appointment.ID,
			"error", err)
	}
}
