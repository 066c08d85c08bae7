package router

import (
	"github.com/gin-gonic/gin"
	"github.com/dimasprakoso/penagihan-app/controllers"
	"github.com/dimasprakoso/penagihan-app/middlewares"
	"github.com/dimasprakoso/penagihan-app/models"
	"github.com/dimasprakoso/penagihan-app/services"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Service bersama
	priorityService := services.NewPriorityService(db)
	notifSync := services.NewNotificationSync(db)
	statsCache := services.NewCardStatsCache(db)

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db)
	projectCtrl := controllers.NewProjectController(db, priorityService, statsCache)
	notifCtrl := controllers.NewNotificationController(db, notifSync)
	adminCtrl := controllers.NewAdminController(db, statsCache)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// WebSocket dashboard (auth via query param token)
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(), controllers.DashboardWSHandler)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	authed := r.Group("/")
	authed.Use(middlewares.AuthMiddleware())
	{
		authed.POST("/logout", userCtrl.Logout)

		// Semua role boleh membaca
		authed.GET("/projects", projectCtrl.GetAllProjects)
		authed.GET("/projects/:project_id", projectCtrl.GetProjectByID)
		authed.GET("/dashboard/stats", adminCtrl.GetDashboardStats)

		// Notifikasi milik user yang sedang login
		authed.GET("/notifications", notifCtrl.GetMyNotifications)
		authed.PATCH("/notifications/:notif_id/read", notifCtrl.MarkAsRead)
		authed.PATCH("/notifications/read-all", notifCtrl.MarkAllRead)
		authed.DELETE("/notifications/:notif_id", notifCtrl.DeleteNotification)

		// Mutasi data hanya untuk pengelola
		admin := authed.Group("/")
		admin.Use(middlewares.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/projects", projectCtrl.CreateProject)
			admin.PUT("/projects/:project_id", projectCtrl.UpdateProject)
			admin.PATCH("/projects/:project_id/priority", projectCtrl.SetManualPriority)
			admin.DELETE("/projects/:project_id/priority", projectCtrl.ClearPriority)
			admin.POST("/projects/priority/recalculate", projectCtrl.RecalculatePriorities)
		}

		// Khusus super_admin
		superAdmin := authed.Group("/")
		superAdmin.Use(middlewares.RequireRoles(models.RoleSuperAdmin))
		{
			superAdmin.DELETE("/projects/:project_id", projectCtrl.DeleteProject)
			superAdmin.GET("/activity-logs", adminCtrl.GetActivityLogs)
		}
	}

	return r
}
