package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicore-health/hospital-service/internal/services"
	"github.com/medicore-health/hospital-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
	}
}

// GetDashboardStats returns the admin overview
// @Summary Admin dashboard stats
// @Tags dashboard
// @Success 200 {object} services.DashboardStatsResponse
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard stats")

	stats, err := h.dashboardService.GetAdminStats(c.Request.Context())
	if err != nil {
		h.LogError(c, err, "Failed to get dashboard stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to get dashboard stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDoctorDashboard returns the authenticated doctor's upcoming schedule
// @Summary Doctor dashboard
// @Tags dashboard
// @Success 200 {object} services.DoctorDashboardResponse
// @Router /doctors/me/appointments [get]
func (h *DashboardHandler) GetDoctorDashboard(c *gin.Context) {
	doctorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Getting doctor dashboard", "doctor_id", doctorID)

	dashboard, err := h.dashboardService.GetDoctorDashboard(c.Request.Context(), doctorID)
	if err != nil {
		h.LogError(c, err, "Failed to get doctor dashboard")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to get doctor dashboard",
		})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetPatientDashboard returns the authenticated patient's upcoming and past visits
// @Summary Patient dashboard
// @Tags dashboard
// @Success 200 {object} services.PatientDashboardResponse
// @Router /patients/me/appointments [get]
func (h *DashboardHandler) GetPatientDashboard(c *gin.Context) {
	patientID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Getting patient dashboard", "patient_id", patientID)

	dashboard, err := h.dashboardService.GetPatientDashboard(c.Request.Context(), patientID)
	if err != nil {
		h.LogError(c, err, "Failed to get patient dashboard")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to get patient dashboard",
		})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
