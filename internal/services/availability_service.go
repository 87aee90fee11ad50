package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/events"
	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

type availabilityService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewAvailabilityService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) AvailabilityService {
	return &availabilityService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

func (s *availabilityService) AddSlot(ctx context.Context, doctorID string, req *AddSlotRequest) (*models.DoctorAvailability, error) {
	s.logger.Info("Adding availability slot",
		"doctor_id", doctorID,
		"date", req.Date,
		"start_time", req.StartTime,
		"end_time", req.EndTime)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}
	if errs := s.validator.ValidateSlotWindow(req.Date, req.StartTime, req.EndTime); errs.HasErrors() {
		return nil, errs
	}

	date, err := validator.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	var slot *models.DoctorAvailability
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		overlapping, err := txRepo.Availability().CountOverlapping(ctx, nil, doctorID, date, req.StartTime, req.EndTime)
		if err != nil {
			return fmt.Errorf("failed to check slot overlap: %w", err)
		}
		if overlapping > 0 {
			return ErrSlotOverlap
		}

		slot = &models.DoctorAvailability{
			DoctorID:  doctorID,
			Date:      datatypes.Date(date),
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		}
		if err := txRepo.Availability().Create(ctx, nil, slot); err != nil {
			return fmt.Errorf("failed to create slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishSlotEvent(ctx, events.EventSlotAdded, slot)

	s.logger.Info("Availability slot added", "slot_id", slot.ID, "doctor_id", doctorID)
	return slot, nil
}

func (s *availabilityService) RemoveSlot(ctx context.Context, doctorID string, slotID uint) error {
	s.logger.Info("Removing availability slot", "slot_id", slotID, "doctor_id", doctorID)

	slot, err := s.repo.Availability().GetByID(ctx, s.db, slotID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAvailabilityNotFound
		}
		return fmt.Errorf("failed to get slot: %w", err)
	}

	// A doctor can only manage their own schedule; report foreign slots as
	// missing rather than leaking their existence.
	if slot.DoctorID != doctorID {
		return ErrAvailabilityNotFound
	}

	if err := s.repo.Availability().Delete(ctx, s.db, slotID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAvailabilityNotFound
		}
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	s.publishSlotEvent(ctx, events.EventSlotRemoved, slot)

	s.logger.Info("Availability slot removed", "slot_id", slotID, "doctor_id", doctorID)
	return nil
}

func (s *availabilityService) ListUpcoming(ctx context.Context, doctorID string, from time.Time, windowDays int) ([]*models.DoctorAvailability, error) {
	if windowDays <= 0 {
		windowDays = 14
	}

	filters := repositories.AvailabilityFilters{
		DoctorID: doctorID,
		From:     from,
		To:       from.AddDate(0, 0, windowDays),
	}

	slots, err := s.repo.Availability().ListUpcoming(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming slots: %w", err)
	}
	return slots, nil
}

func (s *availabilityService) ListForDay(ctx context.Context, doctorID string, date time.Time) ([]*models.DoctorAvailability, error) {
	slots, err := s.repo.Availability().ListByDoctorDate(ctx, s.db, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for day: %w", err)
	}
	return slots, nil
}

func (s *availabilityService) publishSlotEvent(ctx context.Context, eventType string, slot *models.DoctorAvailability) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(eventType, events.SlotEvent{
		SlotID:    slot.ID,
		DoctorID:  slot.DoctorID,
		Date:      time.Time(slot.Date).Format(validator.DateLayout),
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish slot event", "type", eventType, "slot_id", slot.ID, "error", err)
	}
}
