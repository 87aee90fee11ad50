package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medicore-health/hospital-service/internal/services"
	"github.com/medicore-health/hospital-service/internal/utils"
	"github.com/medicore-health/hospital-service/internal/validator"
)

// defaultScheduleWindowDays is how far ahead the schedule view looks when the
// caller gives no window.
const defaultScheduleWindowDays = 14

type AvailabilityHandler struct {
	BaseHandler
	availabilityService services.AvailabilityService
}

func NewAvailabilityHandler(availabilityService services.AvailabilityService, logger utils.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		BaseHandler:         NewBaseHandler(logger),
		availabilityService: availabilityService,
	}
}

// AddSlot declares an availability window for the authenticated doctor
// @Summary Add availability slot
// @Tags availability
// @Accept json
// @Produce json
// @Param slot body services.AddSlotRequest true "Slot data"
// @Success 201 {object} models.DoctorAvailability
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /availability [post]
func (h *AvailabilityHandler) AddSlot(c *gin.Context) {
	h.LogRequest(c, "Adding availability slot")

	var req services.AddSlotRequest
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

	slot, err := h.availabilityService.AddSlot(c.Request.Context(), doctorID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// RemoveSlot deletes one of the authenticated doctor's slots
// @Summary Remove availability slot
// @Tags availability
// @Param id path uint true "Slot ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) RemoveSlot(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Removing availability slot", "slot_id", id)

	doctorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if err := h.availabilityService.RemoveSlot(c.Request.Context(), doctorID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDoctorSchedule lists a doctor's upcoming slots
// @Summary Get doctor schedule
// @Tags availability
// @Param doctor_id path string true "Doctor ID"
// @Param date query string false "Single day (YYYY-MM-DD); overrides the window"
// @Param from query string false "Window start (YYYY-MM-DD, default today)"
// @Param window_days query int false "Window length in days (default 14)"
// @Success 200 {object} map[string]interface{}
// @Router /availability/doctors/{doctor_id} [get]
func (h *AvailabilityHandler) GetDoctorSchedule(c *gin.Context) {
	doctorID := c.Param("doctor_id")
	if doctorID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Doctor ID is required"})
		return
	}

	h.LogRequest(c, "Getting doctor schedule", "doctor_id", doctorID)

	// A specific day takes precedence over the rolling window.
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := validator.ParseDate(dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid date parameter",
				Details: err.Error(),
			})
			return
		}

		slots, err := h.availabilityService.ListForDay(c.Request.Context(), doctorID, date)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"doctor_id": doctorID, "slots": slots})
		return
	}

	from := time.Now().Truncate(24 * time.Hour)
	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := validator.ParseDate(fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid from parameter",
				Details: err.Error(),
			})
			return
		}
		from = parsed
	}

	windowDays := defaultScheduleWindowDays
	if windowStr := c.Query("window_days"); windowStr != "" {
		if w, err := strconv.Atoi(windowStr); err == nil && w > 0 && w <= 90 {
			windowDays = w
		}
	}

	slots, err := h.availabilityService.ListUpcoming(c.Request.Context(), doctorID, from, windowDays)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"doctor_id":   doctorID,
		"from":        from.Format(validator.DateLayout),
		"window_days": windowDays,
		"slots":       slots,
	})
}

func (h *AvailabilityHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAvailabilityNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Availability slot not found",
		})
	case errors.Is(err, services.ErrSlotOverlap):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Slot overlaps an existing availability window",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled availability service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
