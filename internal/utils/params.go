package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func paramID(ctx *gin.Context, name string, label string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(label + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + label)
	}

	return uint(id), nil
}

func GetJobID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "job_id", "Job ID")
}

func GetRoleID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "role_id", "Role ID")
}

func GetApplicationID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "application_id", "Application ID")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "task_id", "Task ID")
}

func GetNotificationID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "notification_id", "Notification ID")
}
