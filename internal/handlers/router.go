package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/medicore-health/hospital-service/internal/config"
	"github.com/medicore-health/hospital-service/internal/models"
	"github.com/medicore-health/hospital-service/internal/repositories"
	"github.com/medicore-health/hospital-service/internal/services"
	"github.com/medicore-health/hospital-service/internal/utils"
)

type HandlerManager struct {
	userHandler         *UserHandler
	departmentHandler   *DepartmentHandler
	availabilityHandler *AvailabilityHandler
	appointmentHandler  *AppointmentHandler
	dashboardHandler    *DashboardHandler
	reportHandler       *ReportHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		departmentHandler:   NewDepartmentHandler(serviceManager.Department(), logger),
		availabilityHandler: NewAvailabilityHandler(serviceManager.Availability(), logger),
		appointmentHandler:  NewAppointmentHandler(serviceManager.Appointment(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		reportHandler:       NewReportHandler(serviceManager.Report(), logger),
		authMiddleware:      authMiddleware,
	}
}

// AuthMiddleware exposes the configured Casdoor middleware
func (hm *HandlerManager) AuthMiddleware() *CasdoorAuthMiddleware {
	return hm.authMiddleware
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Public routes: health check and patient self-registration
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "hospital-service",
		})
	})
	router.POST("/api/v1/auth/register", hm.userHandler.RegisterPatient)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// User management
		users := v1.Group("/users")
		{
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/search", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser) // admin or self, checked in handler
			users.POST("/doctors", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.CreateDoctor)
			users.PUT("/:id/activate", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ActivateUser)
			users.PUT("/:id/deactivate", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.DeactivateUser)
		}

		// Doctor browsing and department catalog - all authenticated roles
		v1.GET("/doctors", hm.userHandler.ListDoctors)
		v1.GET("/departments", hm.departmentHandler.ListDepartments)
		v1.POST("/departments", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.departmentHandler.CreateDepartment)

		// Availability management
		availability := v1.Group("/availability")
		{
			availability.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleDoctor), hm.availabilityHandler.AddSlot)
			availability.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleDoctor), hm.availabilityHandler.RemoveSlot)
			availability.GET("/doctors/:doctor_id", hm.availabilityHandler.GetDoctorSchedule)
		}

		// Appointment lifecycle
		appointments := v1.Group("/appointments")
		{
			appointments.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RolePatient), hm.appointmentHandler.BookAppointment)
			appointments.PUT("/:id/reschedule", hm.authMiddleware.RequireRoleMiddleware(models.RolePatient), hm.appointmentHandler.RescheduleAppointment)
			appointments.POST("/:id/cancel", hm.authMiddleware.RequireRoleMiddleware(models.RolePatient), hm.appointmentHandler.CancelAppointment)
			appointments.POST("/:id/complete", hm.authMiddleware.RequireRoleMiddleware(models.RoleDoctor), hm.appointmentHandler.CompleteAppointment)
			appointments.GET("", hm.appointmentHandler.ListAppointments)
			appointments.GET("/:id", hm.appointmentHandler.GetAppointment)
			appointments.GET("/:id/treatment", hm.appointmentHandler.GetTreatment)
		}

		// Role dashboards
		v1.GET("/dashboard/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.dashboardHandler.GetDashboardStats)
		v1.GET("/doctors/me/appointments", hm.authMiddleware.RequireRoleMiddleware(models.RoleDoctor), hm.dashboardHandler.GetDoctorDashboard)
		v1.GET("/patients/me/appointments", hm.authMiddleware.RequireRoleMiddleware(models.RolePatient), hm.dashboardHandler.GetPatientDashboard)

		// Reports - admin only
		v1.GET("/reports/appointments", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.reportHandler.ExportAppointments)
	}
}
