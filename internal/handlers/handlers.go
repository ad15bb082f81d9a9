package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/services"
)

// Package-level service instances, wired once at startup. The engine
// itself owns no globals; only this HTTP adapter layer does.
var (
	log           *logger.Logger
	jobs          *services.JobService
	applications  *services.ApplicationService
	budget        *services.BudgetService
	tasks         *services.TaskService
	messages      *services.MessageService
	notifications *services.NotificationService
)

func Init(
	baseLog *logger.Logger,
	jobSvc *services.JobService,
	applicationSvc *services.ApplicationService,
	budgetSvc *services.BudgetService,
	taskSvc *services.TaskService,
	messageSvc *services.MessageService,
	notificationSvc *services.NotificationService,
) {
	log = baseLog.With("component", "handlers")
	jobs = jobSvc
	applications = applicationSvc
	budget = budgetSvc
	tasks = taskSvc
	messages = messageSvc
	notifications = notificationSvc
}

// respondError maps the engine's error taxonomy onto HTTP statuses.
// Anything untyped is a 500 with a generic body.
func respondError(ctx *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsPermission(err):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case services.IsNotFound(err):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case services.IsConflict(err):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error("internal error", "path", ctx.FullPath(), "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
