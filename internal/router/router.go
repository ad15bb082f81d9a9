package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/crewcall-dev/crewcall/internal/handlers"
	"github.com/crewcall-dev/crewcall/internal/middleware"
	"github.com/crewcall-dev/crewcall/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:job_id", middleware.AuthMiddleware(), handlers.WebSocket)
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		jobs := api.Group("/jobs", middleware.AuthMiddleware())
		{
			jobs.POST("", handlers.CreateJob)
			jobs.GET("", handlers.ListJobs)
			jobs.GET("/:job_id", handlers.GetJob)
			jobs.PATCH("/:job_id", handlers.UpdateJob)
			jobs.POST("/:job_id/complete", handlers.CompleteJob)
			jobs.POST("/:job_id/cancel", handlers.CancelJob)

			// Role endpoints
			jobs.POST("/:job_id/roles", handlers.CreateRole)
			jobs.PATCH("/:job_id/roles/:role_id", handlers.UpdateRole)
			jobs.DELETE("/:job_id/roles/:role_id", handlers.DeleteRole)
			jobs.POST("/:job_id/roles/:role_id/paid", handlers.MarkRolePaid)
			jobs.POST("/:job_id/roles/:role_id/applications", handlers.ApplyToRole)
			jobs.GET("/:job_id/applications", handlers.ListJobApplications)

			// Budget endpoints
			jobs.POST("/:job_id/expenses", handlers.CreateExpense)
			jobs.GET("/:job_id/expenses", handlers.ListExpenses)
			jobs.GET("/:job_id/budget", handlers.GetBudgetSummary)

			// Task board endpoints
			jobs.POST("/:job_id/tasks", handlers.CreateTask)
			jobs.GET("/:job_id/tasks", handlers.ListTasks)
			jobs.PATCH("/:job_id/tasks/:task_id", handlers.UpdateTask)
			jobs.PATCH("/:job_id/tasks/:task_id/status", handlers.UpdateTaskStatus)
			jobs.DELETE("/:job_id/tasks/:task_id", handlers.DeleteTask)

			// Message threads
			jobs.POST("/:job_id/messages", handlers.PostMessage)
			jobs.GET("/:job_id/messages", handlers.GetThread)
		}

		applications := api.Group("/applications", middleware.AuthMiddleware())
		{
			applications.GET("", handlers.ListMyApplications)
			applications.POST("/:application_id/accept", handlers.AcceptApplication)
			applications.POST("/:application_id/reject", handlers.RejectApplication)
			applications.POST("/:application_id/withdraw", handlers.WithdrawApplication)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", handlers.ListNotifications)
			notifications.GET("/unread_count", handlers.GetUnreadCount)
			notifications.POST("/:notification_id/read", handlers.MarkNotificationRead)
			notifications.POST("/read_all", handlers.MarkAllNotificationsRead)
		}
	}

	return r
}
