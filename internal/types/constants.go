package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

// Job statuses. Draft and open are chosen by the organiser at creation;
// open, in_progress and filled are re-derived from role fill counts after
// every acceptance or withdrawal; completed and cancelled are terminal.
const (
	JobStatusDraft      = "draft"
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusFilled     = "filled"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// ThreadGeneral is the job-wide message thread; role threads use the
// decimal role id as their thread name.
const ThreadGeneral = "general"

const (
	NotificationApplicationReceived  = "application_received"
	NotificationApplicationAccepted  = "application_accepted"
	NotificationApplicationRejected  = "application_rejected"
	NotificationApplicationWithdrawn = "application_withdrawn"
	NotificationRoleFilled           = "role_filled"
	NotificationJobCancelled         = "job_cancelled"
	NotificationJobCompleted         = "job_completed"
	NotificationTaskAssigned         = "task_assigned"
	NotificationMessagePosted        = "message_posted"
	NotificationBudgetExceeded       = "budget_exceeded"
)

func JobStatusTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusCancelled
}

func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

func ValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	AllowedOrigins = initAllowedOrigins()
)

func initAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
