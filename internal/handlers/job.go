package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/services"
	"github.com/crewcall-dev/crewcall/internal/utils"
)

type CreateJobRequest struct {
	Title               string    `json:"title" binding:"required"`
	Description         string    `json:"description"`
	Location            string    `json:"location"`
	EventType           string    `json:"event_type" binding:"required"`
	Status              string    `json:"status"`
	StartsAt            time.Time `json:"starts_at" binding:"required"`
	EndsAt              time.Time `json:"ends_at" binding:"required"`
	ApplicationDeadline time.Time `json:"application_deadline"`
	TotalBudget         int64     `json:"total_budget"`
}

type UpdateJobRequest struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Location            *string    `json:"location"`
	EventType           *string    `json:"event_type"`
	Status              *string    `json:"status"`
	StartsAt            *time.Time `json:"starts_at"`
	EndsAt              *time.Time `json:"ends_at"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	TotalBudget         *int64     `json:"total_budget"`
}

type CompleteJobRequest struct {
	Force bool `json:"force"`
}

type CreateRoleRequest struct {
	RoleType    string `json:"role_type" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Budget      int64  `json:"budget"`
	Quantity    int    `json:"quantity" binding:"required"`
}

type UpdateRoleRequest struct {
	RoleType    *string `json:"role_type"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Budget      *int64  `json:"budget"`
	Quantity    *int    `json:"quantity"`
}

type RoleResponse struct {
	ID          uint   `json:"id"`
	JobID       uint   `json:"job_id"`
	RoleType    string `json:"role_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      int64  `json:"budget"`
	Quantity    int    `json:"quantity"`
	FilledCount int    `json:"filled_count"`
	Paid        bool   `json:"paid"`
}

type JobResponse struct {
	ID                  uint           `json:"id"`
	OrganizerID         uint           `json:"organizer_id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Location            string         `json:"location"`
	EventType           string         `json:"event_type"`
	Status              string         `json:"status"`
	StartsAt            time.Time      `json:"starts_at"`
	EndsAt              time.Time      `json:"ends_at"`
	ApplicationDeadline time.Time      `json:"application_deadline"`
	TotalBudget         int64          `json:"total_budget"`
	Roles               []RoleResponse `json:"roles"`
}

func toRoleResponse(role models.Role) RoleResponse {
	return RoleResponse{
		ID:          role.ID,
		JobID:       role.JobID,
		RoleType:    role.RoleType,
		Title:       role.Title,
		Description: role.Description,
		Budget:      role.Budget,
		Quantity:    role.Quantity,
		FilledCount: role.FilledCount,
		Paid:        role.Paid,
	}
}

func toJobResponse(job models.Job) JobResponse {
	roles := make([]RoleResponse, 0, len(job.Roles))

	for _, role := range job.Roles {
		roles = append(roles, toRoleResponse(role))
	}

	return JobResponse{
		ID:                  job.ID,
		OrganizerID:         job.OrganizerID,
		Title:               job.Title,
		Description:         job.Description,
		Location:            job.Location,
		EventType:           job.EventType,
		Status:              job.Status,
		StartsAt:            job.StartsAt,
		EndsAt:              job.EndsAt,
		ApplicationDeadline: job.ApplicationDeadline,
		TotalBudget:         job.TotalBudget,
		Roles:               roles,
	}
}

func CreateJob(ctx *gin.Context) {
	var req CreateJobRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	job, err := jobs.CreateJob(userID, services.CreateJobInput{
		Title:               req.Title,
		Description:         req.Description,
		Location:            req.Location,
		EventType:           req.EventType,
		Status:              req.Status,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
		ApplicationDeadline: req.ApplicationDeadline,
		TotalBudget:         req.TotalBudget,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toJobResponse(*job))
}

func GetJob(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := jobs.GetJob(jobID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toJobResponse(*job))
}

// ListJobs returns the caller's own postings with ?mine=true, otherwise
// the marketplace view of jobs still accepting applications.
func ListJobs(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var jobList []models.Job

	if ctx.Query("mine") == "true" {
		jobList, err = jobs.ListJobsByOrganizer(userID)
	} else {
		jobList, err = jobs.ListOpenJobs()
	}

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]JobResponse, 0, len(jobList))

	for _, job := range jobList {
		response = append(response, toJobResponse(job))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateJob(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateJobRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := jobs.UpdateJob(userID, jobID, services.UpdateJobInput{
		Title:               req.Title,
		Description:         req.Description,
		Location:            req.Location,
		EventType:           req.EventType,
		Status:              req.Status,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
		ApplicationDeadline: req.ApplicationDeadline,
		TotalBudget:         req.TotalBudget,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toJobResponse(*job))
}

func CompleteJob(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CompleteJobRequest

	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	job, err := jobs.CompleteJob(userID, jobID, req.Force)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toJobResponse(*job))
}

func CancelJob(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	job, err := jobs.CancelJob(userID, jobID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toJobResponse(*job))
}

func CreateRole(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateRoleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := jobs.AddRole(userID, jobID, services.RoleInput{
		RoleType:    req.RoleType,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Quantity:    req.Quantity,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toRoleResponse(*role))
}

func UpdateRole(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roleID, err := utils.GetRoleID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateRoleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := jobs.UpdateRole(userID, jobID, roleID, services.UpdateRoleInput{
		RoleType:    req.RoleType,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Quantity:    req.Quantity,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toRoleResponse(*role))
}

func DeleteRole(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roleID, err := utils.GetRoleID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := jobs.DeleteRole(userID, jobID, roleID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func MarkRolePaid(ctx *gin.Context) {
	jobID, err := utils.GetJobID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roleID, err := utils.GetRoleID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	role, err := jobs.MarkRolePaid(userID, jobID, roleID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toRoleResponse(*role))
}
