package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/services"
	"github.com/medicore-health/hospital-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
	}
}

// ExportAppointments streams an XLSX export of appointments (admin only)
// @Summary Export appointments report
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Filter by status"
// @Param doctor_id query string false "Filter by doctor"
// @Success 200 {file} binary
// @Router /reports/appointments [get]
func (h *ReportHandler) ExportAppointments(c *gin.Context) {
	h.LogRequest(c, "Exporting appointments report")

	filters := repositories.AppointmentFilters{
		SortBy:    "date_time",
		SortOrder: "asc",
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.AppointmentStatus(statusStr)
		filters.Status = &status
	}
	if doctorID := c.Query("doctor_id"); doctorID != "" {
		filters.DoctorID = &doctorID
	}

	file, err := h.reportService.ExportAppointments(c.Request.Context(), filters)
	if err != nil {
		h.LogError(c, err, "Failed to build appointments report")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to build report",
		})
		return
	}

	filename := fmt.Sprintf("appointments-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Content-Type", xlsxContentType)

	if err := file.Write(c.Writer); err != nil {
		h.LogError(c, err, "Failed to stream report")
	}
}
