package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/utils"
)

type ApplicationResponse struct {
	ID          uint      `json:"id"`
	JobID       uint      `json:"job_id"`
	RoleID      uint      `json:"role_id"`
	ApplicantID uint      `json:"applicant_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	RoleTitle   string    `json:"role_title,omitempty"`
	Applicant   string    `json:"applicant,omitempty"`
}

func toApplicationResponse(application models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          application.ID,
		JobID:       application.JobID,
		RoleID:      application.RoleID,
		ApplicantID: application.ApplicantID,
		Status:      application.Status,
		SubmittedAt: application.SubmittedAt,
		RoleTitle:   application.Role.Title,
		Applicant:   application.Applicant.Name,
	}
}

func ApplyToRole(ctx *gin.Context) {
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

	application, err := applications.ApplyToRole(userID, roleID, time.Now())

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toApplicationResponse(*application))
}

func AcceptApplication(ctx *gin.Context) {
	applicationID, err := utils.GetApplicationID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	application, err := applications.AcceptApplication(userID, applicationID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toApplicationResponse(*application))
}

func RejectApplication(ctx *gin.Context) {
	applicationID, err := utils.GetApplicationID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	application, err := applications.RejectApplication(userID, applicationID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toApplicationResponse(*application))
}

func WithdrawApplication(ctx *gin.Context) {
	applicationID, err := utils.GetApplicationID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	application, err := applications.WithdrawApplication(userID, applicationID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toApplicationResponse(*application))
}

func ListJobApplications(ctx *gin.Context) {
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

	applicationList, err := applications.ListJobApplications(userID, jobID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]ApplicationResponse, 0, len(applicationList))

	for _, application := range applicationList {
		response = append(response, toApplicationResponse(application))
	}

	ctx.JSON(http.StatusOK, response)
}

func ListMyApplications(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	applicationList, err := applications.ListMyApplications(userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]ApplicationResponse, 0, len(applicationList))

	for _, application := range applicationList {
		response = append(response, toApplicationResponse(application))
	}

	ctx.JSON(http.StatusOK, response)
}
