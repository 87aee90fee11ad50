package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicore-health/hospital-service/internal/services"
	"github.com/medicore-health/hospital-service/internal/utils"
)

type DepartmentHandler struct {
	BaseHandler
	departmentService services.DepartmentService
}

func NewDepartmentHandler(departmentService services.DepartmentService, logger utils.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		departmentService: departmentService,
	}
}

// CreateDepartment adds a department to the catalog (admin only)
// @Summary Create department
// @Tags departments
// @Accept json
// @Produce json
// @Param department body services.CreateDepartmentRequest true "Department data"
// @Success 201 {object} models.Department
// @Failure 409 {object} ErrorResponse
// @Router /departments [post]
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	h.LogRequest(c, "Creating department")

	var req services.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	department, err := h.departmentService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, department)
}

// ListDepartments returns the department catalog (all roles)
// @Summary List departments
// @Tags departments
// @Success 200 {object} map[string]interface{}
// @Router /departments [get]
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	h.LogRequest(c, "Listing departments")

	departments, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

func (h *DepartmentHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrDepartmentExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Department already exists",
		})
	default:
		h.LogError(c, err, "Unhandled department service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
