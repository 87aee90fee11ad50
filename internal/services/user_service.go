package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medicore-health/hospital-service/internal/events"
	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/validator"
)

// IdentityClient is the slice of the Casdoor SDK the user service needs.
// *casdoorsdk.Client satisfies it; tests pass nil or a fake.
type IdentityClient interface {
	AddUser(user *casdoorsdk.User) (bool, error)
	UpdateUser(user *casdoorsdk.User) (bool, error)
}

type userService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	identity       IdentityClient
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, identity IdentityClient) UserService {
	return &userService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		identity:       identity,
	}
}

// ===== ACCOUNT CREATION =====

func (s *userService) RegisterPatient(ctx context.Context, req *RegisterPatientRequest) (*models.User, error) {
	s.logger.Info("Registering patient", "email", req.Email)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user := &models.User{
		ID:       uuid.New().String(),
		FullName: req.FullName,
		Email:    req.Email,
		Role:     models.RolePatient,
		Age:      req.Age,
		Gender:   req.Gender,
		Phone:    req.Phone,
		Address:  req.Address,
		IsActive: true,
	}

	if err := s.createAccount(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, user)

	s.logger.Info("Patient registered", "user_id", user.ID)
	return user, nil
}

func (s *userService) CreateDoctor(ctx context.Context, req *CreateDoctorRequest, adminID string) (*models.User, error) {
	s.logger.Info("Creating doctor account", "email", req.Email, "admin_id", adminID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user := &models.User{
		ID:             uuid.New().String(),
		FullName:       req.FullName,
		Email:          req.Email,
		Role:           models.RoleDoctor,
		Specialization: &req.Specialization,
		IsActive:       true,
	}

	if err := s.createAccount(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, user)

	s.logger.Info("Doctor account created", "user_id", user.ID, "admin_id", adminID)
	return user, nil
}

// createAccount checks email uniqueness, provisions the identity-provider
// account and mirrors it locally, all inside one transaction.
func (s *userService) createAccount(ctx context.Context, user *models.User, password string) error {
	exists, err := s.repo.User().ExistsByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrEmailAlreadyRegistered
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return ErrEmailAlreadyRegistered
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if s.identity != nil {
			ok, err := s.identity.AddUser(&casdoorsdk.User{
				Name:        user.ID,
				DisplayName: user.FullName,
				Email:       user.Email,
				Password:    password,
				Type:        string(user.Role),
			})
			if err != nil {
				return fmt.Errorf("failed to provision identity account: %w", err)
			}
			if !ok {
				return fmt.Errorf("identity provider rejected account for %s", user.Email)
			}
		}
		return nil
	})
}

// ===== ACTIVATION =====

func (s *userService) SetActive(ctx context.Context, targetID string, active bool, adminID string) (*models.User, error) {
	s.logger.Info("Updating account activation", "target_id", targetID, "active", active, "admin_id", adminID)

	user, err := s.repo.User().GetByID(ctx, targetID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsAdmin() {
		return nil, NewPermissionError(adminID, targetID, "user", "deactivate", "admin accounts cannot be deactivated")
	}

	if user.IsActive == active {
		return user, nil
	}

	if err := s.repo.User().SetActive(ctx, s.db, targetID, active); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update activation: %w", err)
	}
	user.IsActive = active

	// Keep the identity provider in sync so deactivated users cannot log in.
	if s.identity != nil {
		if _, err := s.identity.UpdateUser(&casdoorsdk.User{
			Name:        user.ID,
			DisplayName: user.FullName,
			Email:       user.Email,
			Type:        string(user.Role),
			IsForbidden: !active,
		}); err != nil {
			s.logger.Error("Failed to sync activation to identity provider",
				"user_id", user.ID,
				"error", err)
		}
	}

	s.logger.Info("Account activation updated", "target_id", targetID, "active", active)
	return user, nil
}

// ===== READ OPERATIONS =====

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error) {
	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserListResponse{Users: users, Total: total}, nil
}

func (s *userService) Search(ctx context.Context, query string, filters repositories.UserFilters) (*UserListResponse, error) {
	users, total, err := s.repo.User().Search(ctx, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return &UserListResponse{Users: users, Total: total}, nil
}

func (s *userService) ListDoctors(ctx context.Context, query string, specialization *string) (*UserListResponse, error) {
	role := models.RoleDoctor
	filters := repositories.UserFilters{
		Query:          query,
		Role:           &role,
		Specialization: specialization,
		ActiveOnly:     true,
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return &UserListResponse{Users: users, Total: total}, nil
}

func (s *userService) publishUserEvent(ctx context.Context, user *models.User) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(events.EventUserRegistered, events.UserEvent{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish user event", "user_id", user.ID, "error", err)
	}
}
