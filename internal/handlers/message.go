package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
	"github.com/crewcall-dev/crewcall/internal/utils"
)

type PostMessageRequest struct {
	Thread string `json:"thread"`
	Body   string `json:"body" binding:"required"`
}

type MessageResponse struct {
	ID        uint      `json:"id"`
	JobID     uint      `json:"job_id"`
	Thread    string    `json:"thread"`
	SenderID  uint      `json:"sender_id"`
	Sender    string    `json:"sender,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:        message.ID,
		JobID:     message.JobID,
		Thread:    message.Thread,
		SenderID:  message.SenderID,
		Sender:    message.Sender.Name,
		Body:      message.Body,
		CreatedAt: message.CreatedAt,
	}
}

func PostMessage(ctx *gin.Context) {
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

	var req PostMessageRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Thread == "" {
		req.Thread = types.ThreadGeneral
	}

	message, err := messages.PostMessage(userID, jobID, req.Thread, req.Body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toMessageResponse(*message))
}

func GetThread(ctx *gin.Context) {
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

	thread := ctx.Query("thread")

	if thread == "" {
		thread = types.ThreadGeneral
	}

	messageList, err := messages.GetThread(userID, jobID, thread)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]MessageResponse, 0, len(messageList))

	for _, message := range messageList {
		response = append(response, toMessageResponse(message))
	}

	ctx.JSON(http.StatusOK, response)
}
