package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

// HealthChecker reports whether the backing stores are reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HandlerManager struct {
	userHandler    *UserHandler
	courseHandler  *CourseHandler
	eventHandler   *EventHandler
	messageHandler *MessageHandler
	authMiddleware *AuthMiddleware
	health         HealthChecker
	logger         utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	verifier TokenVerifier,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		userHandler:    NewUserHandler(serviceManager.User(), serviceManager.RoleRequest(), logger),
		courseHandler:  NewCourseHandler(serviceManager.Course(), serviceManager.Membership(), logger),
		eventHandler:   NewEventHandler(serviceManager.CourseEvent(), logger),
		messageHandler: NewMessageHandler(serviceManager.Message(), logger),
		authMiddleware: NewAuthMiddleware(verifier, NewBaseHandler(logger)),
		health:         serviceManager,
		logger:         logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	auth := hm.authMiddleware.RequireAuth()
	requireRole := hm.authMiddleware.RequireRole

	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", hm.userHandler.Register)
			users.POST("/verify-email", hm.userHandler.VerifyEmail)
			users.POST("/login", hm.userHandler.Login)
			users.POST("/create-admin", hm.userHandler.CreateAdmin)

			users.GET("/me", auth, hm.userHandler.Me)
			users.GET("/users", auth, hm.userHandler.ListUsers)
			users.PUT("/request-role", auth, hm.userHandler.RequestRole)
			// the service re-checks admin so the rule holds outside HTTP too
			users.PATCH("/:id/role", auth, hm.userHandler.ChangeRole)

			// Admin only
			users.GET("/pending-requests", auth, requireRole(models.RoleAdmin), hm.userHandler.PendingRequests)
			users.PATCH("/approve-request/:id", auth, requireRole(models.RoleAdmin), hm.userHandler.ApproveRequest)
			users.PATCH("/reject-request/:id", auth, requireRole(models.RoleAdmin), hm.userHandler.RejectRequest)
			users.DELETE("/:id", auth, requireRole(models.RoleAdmin), hm.userHandler.DeleteUser)
		}

		courses := v1.Group("/courses")
		{
			// Public reads
			courses.GET("/courses", hm.courseHandler.ListCourses)
			courses.GET("/courses/:id", hm.courseHandler.GetCourse)
			courses.POST("/:courseId/sections", hm.courseHandler.AddSection)

			courses.GET("/user-courses", auth, hm.courseHandler.UserCourses)
			courses.GET("/InstructorCoursesAsStudent", auth, hm.courseHandler.CoursesAsStudent)
			courses.POST("/enroll/:courseId", auth, hm.courseHandler.Enroll)
			courses.DELETE("/remove-user/:courseId", auth, hm.courseHandler.LeaveCourse)
			courses.PATCH("/assignCatedratico/:catedraticoId", auth, hm.courseHandler.AssignCatedratico)

			// Teaching staff
			courses.POST("/create", auth, requireRole(models.RoleInstructor, models.RoleCatedratico), hm.courseHandler.CreateCourse)
			courses.DELETE("/delete/:courseId", auth, requireRole(models.RoleInstructor, models.RoleCatedratico), hm.courseHandler.DeleteCourse)
			courses.GET("/courses/:id/roster/export", auth, requireRole(models.RoleInstructor, models.RoleCatedratico), hm.courseHandler.ExportRoster)

			// Catedráticos manage the staff of a course
			courses.POST("/assignToInstructor", auth, requireRole(models.RoleCatedratico), hm.courseHandler.AssignInstructor)
			courses.PATCH("/assign-instructor/:instructorId", auth, requireRole(models.RoleCatedratico), hm.courseHandler.AssignInstructor)
			courses.DELETE("/:courseId/users/:userId", auth, requireRole(models.RoleCatedratico), hm.courseHandler.RemoveUser)
		}

		events := v1.Group("/events")
		{
			events.GET("/events/course/:courseId", hm.eventHandler.ListCourseEvents)

			events.GET("/events", auth, hm.eventHandler.ListEvents)
			events.GET("/events/user", auth, hm.eventHandler.ListUserEvents)
			events.DELETE("/events/:eventId", auth, hm.eventHandler.DeleteEvent)

			events.POST("/events", auth, requireRole(models.RoleInstructor, models.RoleCatedratico), hm.eventHandler.CreateEvent)
			events.PUT("/events/:eventId", auth, requireRole(models.RoleInstructor, models.RoleCatedratico), hm.eventHandler.UpdateEvent)
		}

		messages := v1.Group("/messages", auth)
		{
			messages.POST("", hm.messageHandler.SendMessage)
			messages.GET("/stream", hm.messageHandler.Stream)
			messages.GET("/:userId/:contactId", hm.messageHandler.Conversation)
		}
	}

	router.GET("/health", hm.healthCheck)
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := hm.health.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "course-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "course-service",
	})
}
