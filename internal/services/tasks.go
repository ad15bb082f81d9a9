package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

type TaskService struct {
	db     *gorm.DB
	log    *logger.Logger
	notify *NotificationService
}

func NewTaskService(db *gorm.DB, baseLog *logger.Logger, notify *NotificationService) *TaskService {
	return &TaskService{
		db:     db,
		log:    baseLog.With("service", "tasks"),
		notify: notify,
	}
}

type TaskInput struct {
	Title       string
	Description string
	Priority    string
	AssignedTo  *uint
	DueDate     *time.Time
}

type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Priority      *string
	AssignedTo    *uint
	ClearAssignee bool
	DueDate       *time.Time
}

func (s *TaskService) CreateTask(organizerID uint, jobID uint, input TaskInput) (*models.Task, error) {
	priority := input.Priority

	if priority == "" {
		priority = types.TaskPriorityMedium
	}

	if !types.ValidTaskPriority(priority) {
		return nil, NewValidation("unknown task priority")
	}

	var task models.Task
	var job models.Job

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockJob(tx, jobID, &job); err != nil {
			return err
		}

		if job.OrganizerID != organizerID {
			return NewPermission("only the organiser can create tasks")
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		if err := validateAssignee(tx, jobID, input.AssignedTo); err != nil {
			return err
		}

		task = models.Task{
			JobID:       jobID,
			Title:       input.Title,
			Description: input.Description,
			Priority:    priority,
			Status:      types.TaskStatusPending,
			AssignedTo:  input.AssignedTo,
			DueDate:     input.DueDate,
		}

		return tx.Create(&task).Error
	})

	if err != nil {
		return nil, err
	}

	if task.AssignedTo != nil {
		s.notifyAssigned(&job, &task)
	}

	return &task, nil
}

func (s *TaskService) UpdateTask(organizerID uint, jobID uint, taskID uint, input UpdateTaskInput) (*models.Task, error) {
	var task models.Task
	var job models.Job
	var newlyAssigned bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockJob(tx, jobID, &job); err != nil {
			return err
		}

		if job.OrganizerID != organizerID {
			return NewPermission("only the organiser can edit tasks")
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		if err := loadTask(tx, jobID, taskID, &task); err != nil {
			return err
		}

		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Priority != nil {
			if !types.ValidTaskPriority(*input.Priority) {
				return NewValidation("unknown task priority")
			}
			task.Priority = *input.Priority
		}
		if input.DueDate != nil {
			task.DueDate = input.DueDate
		}

		if input.ClearAssignee {
			task.AssignedTo = nil
		} else if input.AssignedTo != nil {
			if err := validateAssignee(tx, jobID, input.AssignedTo); err != nil {
				return err
			}

			previous := task.AssignedTo
			task.AssignedTo = input.AssignedTo
			newlyAssigned = previous == nil || *previous != *input.AssignedTo
		}

		return tx.Save(&task).Error
	})

	if err != nil {
		return nil, err
	}

	if newlyAssigned {
		s.notifyAssigned(&job, &task)
	}

	return &task, nil
}

// UpdateTaskStatus moves a task between its four states in any direction;
// no workflow ordering is enforced. The organiser and the current assignee
// may move it.
func (s *TaskService) UpdateTaskStatus(userID uint, jobID uint, taskID uint, status string) (*models.Task, error) {
	if !types.ValidTaskStatus(status) {
		return nil, NewValidation("unknown task status")
	}

	var task models.Task

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job

		if err := lockJob(tx, jobID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		if err := loadTask(tx, jobID, taskID, &task); err != nil {
			return err
		}

		assignee := task.AssignedTo != nil && *task.AssignedTo == userID

		if job.OrganizerID != userID && !assignee {
			return NewPermission("only the organiser or the assignee can move this task")
		}

		task.Status = status

		return tx.Save(&task).Error
	})

	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *TaskService) DeleteTask(organizerID uint, jobID uint, taskID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job

		if err := lockJob(tx, jobID, &job); err != nil {
			return err
		}

		if job.OrganizerID != organizerID {
			return NewPermission("only the organiser can delete tasks")
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		var task models.Task

		if err := loadTask(tx, jobID, taskID, &task); err != nil {
			return err
		}

		return tx.Delete(&task).Error
	})
}

func (s *TaskService) ListTasks(userID uint, jobID uint) ([]models.Task, error) {
	var job models.Job

	if err := s.db.First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("job not found")
		}
		return nil, err
	}

	if job.OrganizerID != userID {
		member, err := isTeamMember(s.db, jobID, userID)

		if err != nil {
			return nil, err
		}

		if !member {
			return nil, NewPermission("only the organiser or a team member can view tasks")
		}
	}

	var tasks []models.Task

	err := s.db.Preload("Assignee").Where("job_id = ?", jobID).Order("created_at ASC").Find(&tasks).Error

	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (s *TaskService) notifyAssigned(job *models.Job, task *models.Task) {
	s.notify.Push(job.ID, types.NotificationTaskAssigned, []uint{*task.AssignedTo}, map[string]any{
		"job_id":  job.ID,
		"task_id": task.ID,
		"title":   task.Title,
	})
}

// validateAssignee enforces the one task-board invariant: an assignee must
// hold a current team membership on the job.
func validateAssignee(tx *gorm.DB, jobID uint, assignedTo *uint) error {
	if assignedTo == nil {
		return nil
	}

	member, err := isTeamMember(tx, jobID, *assignedTo)

	if err != nil {
		return err
	}

	if !member {
		return NewValidation("assignee is not a member of this job's team")
	}

	return nil
}

func loadTask(tx *gorm.DB, jobID uint, taskID uint, task *models.Task) error {
	err := tx.Where("id = ? AND job_id = ?", taskID, jobID).First(task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("task not found")
		}
		return err
	}

	return nil
}
