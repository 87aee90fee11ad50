package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/services"
	"github.com/medicore-health/hospital-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// RegisterPatient is the public self-service signup endpoint
// @Summary Register patient
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body services.RegisterPatientRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *UserHandler) RegisterPatient(c *gin.Context) {
	h.LogRequest(c, "Registering patient")

	var req services.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.RegisterPatient(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// CreateDoctor provisions a doctor account (admin only)
// @Summary Create doctor
// @Tags users
// @Accept json
// @Produce json
// @Param doctor body services.CreateDoctorRequest true "Doctor data"
// @Success 201 {object} models.User
// @Failure 409 {object} ErrorResponse
// @Router /users/doctors [post]
func (h *UserHandler) CreateDoctor(c *gin.Context) {
	h.LogRequest(c, "Creating doctor account")

	var req services.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	adminID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	user, err := h.userService.CreateDoctor(c.Request.Context(), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ActivateUser re-enables an account (admin only)
// @Summary Activate user
// @Tags users
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Router /users/{id}/activate [put]
func (h *UserHandler) ActivateUser(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateUser disables an account (admin only); blocks login and new bookings
// @Summary Deactivate user
// @Tags users
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Router /users/{id}/deactivate [put]
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	h.setActive(c, false)
}

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User ID is required"})
		return
	}

	h.LogRequest(c, "Updating account activation", "target_id", targetID, "active", active)

	adminID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), targetID, active, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers lists users with optional filtering (admin only)
// @Summary List users
// @Tags users
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (admin, doctor, patient)"
// @Success 200 {object} map[string]interface{}
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	filters := h.parseUserFilters(c)

	response, err := h.userService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	page := (filters.Offset / max(filters.Limit, 1)) + 1

	c.JSON(http.StatusOK, map[string]interface{}{
		"users": response.Users,
		"total": response.Total,
		"page":  page,
		"size":  filters.Limit,
	})
}

// SearchUsers searches for users by name or email (admin only)
// @Summary Search users
// @Tags users
// @Param q query string true "Search query"
// @Success 200 {object} map[string]interface{}
// @Router /users/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Search query parameter 'q' is required",
		})
		return
	}

	h.LogRequest(c, "Searching users", "query", query)

	filters := h.parseUserFilters(c)

	response, err := h.userService.Search(c.Request.Context(), query, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	page := (filters.Offset / max(filters.Limit, 1)) + 1

	c.JSON(http.StatusOK, map[string]interface{}{
		"users": response.Users,
		"total": response.Total,
		"page":  page,
		"size":  filters.Limit,
	})
}

// GetUser retrieves a user by ID (admin or the user themselves)
// @Summary Get user by ID
// @Tags users
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User ID is required"})
		return
	}

	h.LogRequest(c, "Getting user", "target_id", targetID)

	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}
	role, err := GetUserRoleFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if role != models.RoleAdmin && actorID != targetID {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), targetID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListDoctors lists active doctors for browsing (all roles)
// @Summary Browse doctors
// @Tags users
// @Param specialization query string false "Filter by specialization"
// @Param q query string false "Free-text search (name or email)"
// @Success 200 {object} map[string]interface{}
// @Router /doctors [get]
func (h *UserHandler) ListDoctors(c *gin.Context) {
	h.LogRequest(c, "Browsing doctors")

	var specialization *string
	if spec := c.Query("specialization"); spec != "" {
		specialization = &spec
	}

	response, err := h.userService.ListDoctors(c.Request.Context(), c.Query("q"), specialization)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"doctors": response.Users,
		"total":   response.Total,
	})
}

// ===== HELPER METHODS =====

func (h *UserHandler) parseUserFilters(c *gin.Context) repositories.UserFilters {
	page := 1
	size := 10

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			size = s
		}
	}

	filters := repositories.UserFilters{
		Limit:  size,
		Offset: (page - 1) * size,
		Query:  c.Query("q"),
	}

	if roleStr := c.Query("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		if role.Valid() {
			filters.Role = &role
		}
	}

	return filters
}

func (h *UserHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrEmailAlreadyRegistered):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Email is already registered",
		})
	default:
		h.LogError(c, err, "Unhandled user service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
