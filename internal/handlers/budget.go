package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/utils"
)

type CreateExpenseRequest struct {
	RoleID      *uint  `json:"role_id"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type ExpenseResponse struct {
	ID          uint      `json:"id"`
	JobID       uint      `json:"job_id"`
	RoleID      *uint     `json:"role_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	LoggedBy    uint      `json:"logged_by"`
	LoggedAt    time.Time `json:"logged_at"`
}

func toExpenseResponse(expense models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          expense.ID,
		JobID:       expense.JobID,
		RoleID:      expense.RoleID,
		Amount:      expense.Amount,
		Description: expense.Description,
		LoggedBy:    expense.LoggedBy,
		LoggedAt:    expense.LoggedAt,
	}
}

func CreateExpense(ctx *gin.Context) {
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

	var req CreateExpenseRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := budget.AddExpense(userID, jobID, req.RoleID, req.Amount, req.Description)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toExpenseResponse(*expense))
}

func ListExpenses(ctx *gin.Context) {
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

	expenses, err := budget.ListExpenses(userID, jobID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]ExpenseResponse, 0, len(expenses))

	for _, expense := range expenses {
		response = append(response, toExpenseResponse(expense))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetBudgetSummary(ctx *gin.Context) {
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

	summary, err := budget.BudgetSummary(userID, jobID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, summary)
}
