package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/services"
	"github.com/medicore-health/hospital-service/internal/utils"
)

type AppointmentHandler struct {
	BaseHandler
	appointmentService services.AppointmentService
}

func NewAppointmentHandler(appointmentService services.AppointmentService, logger utils.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		BaseHandler:        NewBaseHandler(logger),
		appointmentService: appointmentService,
	}
}

// BookAppointment books a doctor at an exact date/time slot
// @Summary Book appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body services.BookAppointmentRequest true "Booking data"
// @Success 201 {object} services.AppointmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /appointments [post]
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	h.LogRequest(c, "Booking appointment")

	var req services.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	patientID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	appointment, err := h.appointmentService.Book(c.Request.Context(), patientID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// RescheduleAppointment moves a booked appointment to a new slot
// @Summary Reschedule appointment
// @Tags appointments
// @Param id path uint true "Appointment ID"
// @Param appointment body services.RescheduleAppointmentRequest true "New slot"
// @Success 200 {object} services.AppointmentResponse
// @Failure 409 {object} ErrorResponse
// @Router /appointments/{id}/reschedule [put]
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Rescheduling appointment", "appointment_id", id)

	var req services.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	appointment, err := h.appointmentService.Reschedule(c.Request.Context(), id, actorID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// CancelAppointment cancels a booked future appointment
// @Summary Cancel appointment
// @Tags appointments
// @Param id path uint true "Appointment ID"
// @Success 200 {object} services.AppointmentResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Cancelling appointment", "appointment_id", id)

	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	appointment, err := h.appointmentService.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// CompleteAppointment closes an appointment with its treatment record
// @Summary Complete appointment
// @Tags appointments
// @Param id path uint true "Appointment ID"
// @Param treatment body services.CompleteAppointmentRequest true "Treatment data"
// @Success 200 {object} services.AppointmentResponse
// @Failure 409 {object} ErrorResponse
// @Router /appointments/{id}/complete [post]
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Completing appointment", "appointment_id", id)

	var req services.CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	doctorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	appointment, err := h.appointmentService.Complete(c.Request.Context(), id, doctorID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// GetAppointment returns one appointment visible to the actor
// @Summary Get appointment
// @Tags appointments
// @Param id path uint true "Appointment ID"
// @Success 200 {object} services.AppointmentResponse
// @Failure 404 {object} ErrorResponse
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actorID, role, ok := h.actor(c)
	if !ok {
		return
	}

	appointment, err := h.appointmentService.GetByID(c.Request.Context(), id, actorID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// GetTreatment returns the treatment attached to a completed appointment
// @Summary Get appointment treatment
// @Tags appointments
// @Param id path uint true "Appointment ID"
// @Success 200 {object} models.Treatment
// @Failure 404 {object} ErrorResponse
// @Router /appointments/{id}/treatment [get]
func (h *AppointmentHandler) GetTreatment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actorID, role, ok := h.actor(c)
	if !ok {
		return
	}

	treatment, err := h.appointmentService.GetTreatment(c.Request.Context(), id, actorID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, treatment)
}

// ListAppointments lists appointments scoped to the actor's role
// @Summary List appointments
// @Tags appointments
// @Param status query string false "Filter by status"
// @Param date_from query string false "Start of date range (YYYY-MM-DD)"
// @Param date_to query string false "End of date range (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.AppointmentListResponse
// @Router /appointments [get]
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	h.LogRequest(c, "Listing appointments")

	actorID, role, ok := h.actor(c)
	if !ok {
		return
	}

	filters := h.parseAppointmentFilters(c)

	response, err := h.appointmentService.List(c.Request.Context(), filters, actorID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ===== HELPER METHODS =====

func (h *AppointmentHandler) actor(c *gin.Context) (string, models.UserRole, bool) {
	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return "", "", false
	}
	role, err := GetUserRoleFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return "", "", false
	}
	return actorID, role, true
}

func (h *AppointmentHandler) parseAppointmentFilters(c *gin.Context) repositories.AppointmentFilters {
	page := 1
	size := 20

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

	filters := repositories.AppointmentFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.AppointmentStatus(statusStr)
		filters.Status = &status
	}
	if fromStr := c.Query("date_from"); fromStr != "" {
		if from, err := time.Parse("2006-01-02", fromStr); err == nil {
			filters.DateFrom = &from
		}
	}
	if toStr := c.Query("date_to"); toStr != "" {
		if to, err := time.Parse("2006-01-02", toStr); err == nil {
			end := to.AddDate(0, 0, 1).Add(-time.Second)
			filters.DateTo = &end
		}
	}

	return filters
}

func (h *AppointmentHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Appointment not found",
		})
	case errors.Is(err, services.ErrTreatmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Treatment not found",
		})
	case errors.Is(err, services.ErrDoctorNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Doctor not found",
		})
	case errors.Is(err, services.ErrAppointmentConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Doctor already has an appointment at this time",
		})
	case errors.Is(err, services.ErrAppointmentNotBooked):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Appointment is not in a modifiable state",
		})
	case errors.Is(err, services.ErrAppointmentCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Appointment has been cancelled",
		})
	case errors.Is(err, services.ErrAppointmentInPast):
		c.JSON(http.StatusGone, ErrorResponse{
			Message: "Appointment time has already passed",
		})
	case errors.Is(err, services.ErrDoctorNotActive):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Doctor account is not active",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled appointment service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
