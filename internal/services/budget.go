package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

type BudgetService struct {
	db     *gorm.DB
	log    *logger.Logger
	notify *NotificationService
}

func NewBudgetService(db *gorm.DB, baseLog *logger.Logger, notify *NotificationService) *BudgetService {
	return &BudgetService{
		db:     db,
		log:    baseLog.With("service", "budget"),
		notify: notify,
	}
}

type RoleBudget struct {
	RoleID     uint   `json:"role_id"`
	Title      string `json:"title"`
	Budgeted   int64  `json:"budgeted"`
	Spent      int64  `json:"spent"`
	Remaining  int64  `json:"remaining"`
	OverBudget bool   `json:"over_budget"`
}

type BudgetSummary struct {
	JobID           uint         `json:"job_id"`
	Roles           []RoleBudget `json:"roles"`
	UnassignedSpent int64        `json:"unassigned_spent"`
	TotalBudgeted   int64        `json:"total_budgeted"`
	TotalSpent      int64        `json:"total_spent"`
	TotalRemaining  int64        `json:"total_remaining"`
	OverBudget      bool         `json:"over_budget"`
}

// AddExpense appends to the expense log. Overspending a role is allowed;
// it surfaces as over_budget in the summary (and a one-time notification
// when the expense crosses the line), never as a rejection.
func (s *BudgetService) AddExpense(userID uint, jobID uint, roleID *uint, amount int64, description string) (*models.Expense, error) {
	if amount <= 0 {
		return nil, NewValidation("expense amount must be positive")
	}

	var expense models.Expense
	var job models.Job
	var crossedRole *models.Role

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockJob(tx, jobID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and no longer accepts expenses")
		}

		if job.OrganizerID != userID {
			member, err := isTeamMember(tx, jobID, userID)

			if err != nil {
				return err
			}

			if !member {
				return NewPermission("only the organiser or a team member can log expenses")
			}
		}

		var role models.Role

		if roleID != nil {
			if err := tx.Where("id = ? AND job_id = ?", *roleID, jobID).First(&role).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewNotFound("role not found")
				}
				return err
			}
		}

		var spentBefore int64

		if roleID != nil {
			if err := sumExpenses(tx, jobID, roleID, &spentBefore); err != nil {
				return err
			}
		}

		expense = models.Expense{
			JobID:       jobID,
			RoleID:      roleID,
			Amount:      amount,
			Description: description,
			LoggedBy:    userID,
			LoggedAt:    time.Now(),
		}

		if err := tx.Create(&expense).Error; err != nil {
			return err
		}

		// Notify only on the crossing itself, not on every over-budget
		// expense that follows.
		if roleID != nil && spentBefore <= role.Budget && spentBefore+amount > role.Budget {
			crossedRole = &role
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if crossedRole != nil {
		s.notify.Push(job.ID, types.NotificationBudgetExceeded, []uint{job.OrganizerID}, map[string]any{
			"job_id":   job.ID,
			"role_id":  crossedRole.ID,
			"budgeted": crossedRole.Budget,
		})
	}

	return &expense, nil
}

func (s *BudgetService) ListExpenses(userID uint, jobID uint) ([]models.Expense, error) {
	if err := s.requireOrganizerOrMember(jobID, userID); err != nil {
		return nil, err
	}

	var expenses []models.Expense

	err := s.db.Where("job_id = ?", jobID).Order("logged_at ASC").Find(&expenses).Error

	if err != nil {
		return nil, err
	}

	return expenses, nil
}

// BudgetSummary is a pure derivation over the expense log: nothing here is
// cached or stored, so two calls without an intervening write always agree.
func (s *BudgetService) BudgetSummary(userID uint, jobID uint) (*BudgetSummary, error) {
	if err := s.requireOrganizerOrMember(jobID, userID); err != nil {
		return nil, err
	}

	var roles []models.Role

	if err := s.db.Where("job_id = ?", jobID).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}

	type spentRow struct {
		RoleID *uint
		Spent  int64
	}

	var rows []spentRow

	err := s.db.Model(&models.Expense{}).
		Select("role_id, COALESCE(SUM(amount), 0) AS spent").
		Where("job_id = ?", jobID).
		Group("role_id").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	spentByRole := make(map[uint]int64, len(rows))
	var unassigned int64

	for _, row := range rows {
		if row.RoleID == nil {
			unassigned = row.Spent
			continue
		}
		spentByRole[*row.RoleID] = row.Spent
	}

	summary := BudgetSummary{
		JobID:           jobID,
		Roles:           make([]RoleBudget, 0, len(roles)),
		UnassignedSpent: unassigned,
	}

	for _, role := range roles {
		spent := spentByRole[role.ID]

		summary.Roles = append(summary.Roles, RoleBudget{
			RoleID:     role.ID,
			Title:      role.Title,
			Budgeted:   role.Budget,
			Spent:      spent,
			Remaining:  role.Budget - spent,
			OverBudget: spent > role.Budget,
		})

		summary.TotalBudgeted += role.Budget
		summary.TotalSpent += spent
	}

	summary.TotalSpent += unassigned
	summary.TotalRemaining = summary.TotalBudgeted - summary.TotalSpent
	summary.OverBudget = summary.TotalSpent > summary.TotalBudgeted

	return &summary, nil
}

func (s *BudgetService) requireOrganizerOrMember(jobID uint, userID uint) error {
	var job models.Job

	if err := s.db.First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("job not found")
		}
		return err
	}

	if job.OrganizerID == userID {
		return nil
	}

	member, err := isTeamMember(s.db, jobID, userID)

	if err != nil {
		return err
	}

	if !member {
		return NewPermission("only the organiser or a team member can view the budget")
	}

	return nil
}

func sumExpenses(tx *gorm.DB, jobID uint, roleID *uint, out *int64) error {
	query := tx.Model(&models.Expense{}).Where("job_id = ?", jobID)

	if roleID != nil {
		query = query.Where("role_id = ?", *roleID)
	} else {
		query = query.Where("role_id IS NULL")
	}

	return query.Select("COALESCE(SUM(amount), 0)").Scan(out).Error
}
