package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

type JobService struct {
	db     *gorm.DB
	log    *logger.Logger
	notify *NotificationService
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, notify *NotificationService) *JobService {
	return &JobService{
		db:     db,
		log:    baseLog.With("service", "jobs"),
		notify: notify,
	}
}

type CreateJobInput struct {
	Title               string
	Description         string
	Location            string
	EventType           string
	Status              string
	StartsAt            time.Time
	EndsAt              time.Time
	ApplicationDeadline time.Time
	TotalBudget         int64
}

type UpdateJobInput struct {
	Title               *string
	Description         *string
	Location            *string
	EventType           *string
	Status              *string
	StartsAt            *time.Time
	EndsAt              *time.Time
	ApplicationDeadline *time.Time
	TotalBudget         *int64
}

type RoleInput struct {
	RoleType    string
	Title       string
	Description string
	Budget      int64
	Quantity    int
}

type UpdateRoleInput struct {
	RoleType    *string
	Title       *string
	Description *string
	Budget      *int64
	Quantity    *int
}

func (s *JobService) CreateJob(organizerID uint, input CreateJobInput) (*models.Job, error) {
	status := input.Status

	if status == "" {
		status = types.JobStatusDraft
	}

	if status != types.JobStatusDraft && status != types.JobStatusOpen {
		return nil, NewValidation("a job must be created as draft or open")
	}

	if input.TotalBudget < 0 {
		return nil, NewValidation("total budget must not be negative")
	}

	if !input.EndsAt.IsZero() && input.EndsAt.Before(input.StartsAt) {
		return nil, NewValidation("job end must not be before its start")
	}

	job := models.Job{
		OrganizerID:         organizerID,
		Title:               input.Title,
		Description:         input.Description,
		Location:            input.Location,
		EventType:           input.EventType,
		Status:              status,
		StartsAt:            input.StartsAt,
		EndsAt:              input.EndsAt,
		ApplicationDeadline: input.ApplicationDeadline,
		TotalBudget:         input.TotalBudget,
	}

	if err := s.db.Create(&job).Error; err != nil {
		return nil, err
	}

	s.log.Info("job created", "job_id", job.ID, "organizer_id", organizerID, "status", job.Status)

	return &job, nil
}

// GetJob is readable by any authenticated user: jobs are marketplace
// postings, and historical reads stay available after terminal states.
func (s *JobService) GetJob(jobID uint) (*models.Job, error) {
	var job models.Job

	err := s.db.Preload("Roles").First(&job, jobID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("job not found")
		}
		return nil, err
	}

	return &job, nil
}

func (s *JobService) ListJobsByOrganizer(organizerID uint) ([]models.Job, error) {
	var jobs []models.Job

	err := s.db.Preload("Roles").
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&jobs).Error

	if err != nil {
		return nil, err
	}

	return jobs, nil
}

func (s *JobService) ListOpenJobs() ([]models.Job, error) {
	var jobs []models.Job

	err := s.db.Preload("Roles").
		Where("status IN ?", []string{types.JobStatusOpen, types.JobStatusInProgress}).
		Order("created_at DESC").
		Find(&jobs).Error

	if err != nil {
		return nil, err
	}

	return jobs, nil
}

func (s *JobService) UpdateJob(organizerID uint, jobID uint, input UpdateJobInput) (*models.Job, error) {
	var job models.Job

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lockOwnedJob(tx, jobID, organizerID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		if input.Status != nil && *input.Status != job.Status {
			// The only explicit status edit here is publishing a draft;
			// everything else goes through Complete/Cancel or is derived.
			if job.Status != types.JobStatusDraft || *input.Status != types.JobStatusOpen {
				return NewValidation("job status cannot be set directly")
			}
			job.Status = types.JobStatusOpen
		}

		if input.Title != nil {
			job.Title = *input.Title
		}
		if input.Description != nil {
			job.Description = *input.Description
		}
		if input.Location != nil {
			job.Location = *input.Location
		}
		if input.EventType != nil {
			job.EventType = *input.EventType
		}
		if input.StartsAt != nil {
			job.StartsAt = *input.StartsAt
		}
		if input.EndsAt != nil {
			job.EndsAt = *input.EndsAt
		}
		if input.ApplicationDeadline != nil {
			job.ApplicationDeadline = *input.ApplicationDeadline
		}
		if input.TotalBudget != nil {
			if *input.TotalBudget < 0 {
				return NewValidation("total budget must not be negative")
			}
			job.TotalBudget = *input.TotalBudget
		}

		return tx.Save(&job).Error
	})

	if err != nil {
		return nil, err
	}

	return &job, nil
}

// CompleteJob closes out a job. Allowed from filled, or from in_progress
// when the organiser chooses to close early; the event must have ended
// unless force is set.
func (s *JobService) CompleteJob(organizerID uint, jobID uint, force bool) (*models.Job, error) {
	var job models.Job

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lockOwnedJob(tx, jobID, organizerID, &job); err != nil {
			return err
		}

		if job.Status != types.JobStatusFilled && job.Status != types.JobStatusInProgress {
			return NewValidation("only a filled or in-progress job can be completed")
		}

		if !force && time.Now().Before(job.EndsAt) {
			return NewValidation("job has not ended yet")
		}

		job.Status = types.JobStatusCompleted

		return tx.Save(&job).Error
	})

	if err != nil {
		return nil, err
	}

	members, memberErr := jobMemberIDs(s.db, job.ID)

	if memberErr != nil {
		s.log.Error("failed to load members for completion notice", "job_id", job.ID, "error", memberErr)
	} else {
		s.notify.Push(job.ID, types.NotificationJobCompleted, members, map[string]any{
			"job_id": job.ID,
			"status": job.Status,
		})
	}

	s.log.Info("job completed", "job_id", job.ID)

	return &job, nil
}

// CancelJob terminates a job from any non-terminal state. All pending
// applications are withdrawn; logged expenses are left untouched, the
// financial record is immutable.
func (s *JobService) CancelJob(organizerID uint, jobID uint) (*models.Job, error) {
	var job models.Job
	var pendingApplicants []uint
	var members []uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lockOwnedJob(tx, jobID, organizerID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is already " + job.Status)
		}

		var err error

		if members, err = jobMemberIDs(tx, job.ID); err != nil {
			return err
		}

		if err = tx.Model(&models.Application{}).
			Where("job_id = ? AND status = ?", job.ID, types.ApplicationStatusPending).
			Distinct("applicant_id").
			Pluck("applicant_id", &pendingApplicants).Error; err != nil {
			return err
		}

		if err = tx.Model(&models.Application{}).
			Where("job_id = ? AND status = ?", job.ID, types.ApplicationStatusPending).
			Update("status", types.ApplicationStatusWithdrawn).Error; err != nil {
			return err
		}

		job.Status = types.JobStatusCancelled

		return tx.Save(&job).Error
	})

	if err != nil {
		return nil, err
	}

	recipients := append(append([]uint{}, members...), pendingApplicants...)

	s.notify.Push(job.ID, types.NotificationJobCancelled, recipients, map[string]any{
		"job_id": job.ID,
		"title":  job.Title,
	})

	s.log.Info("job cancelled", "job_id", job.ID, "withdrawn_pending", len(pendingApplicants))

	return &job, nil
}

func (s *JobService) AddRole(organizerID uint, jobID uint, input RoleInput) (*models.Role, error) {
	if input.Quantity < 1 {
		return nil, NewValidation("role quantity must be at least 1")
	}

	if input.Budget < 0 {
		return nil, NewValidation("role budget must not be negative")
	}

	var role models.Role

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job

		if err := s.lockOwnedJob(tx, jobID, organizerID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		role = models.Role{
			JobID:       job.ID,
			RoleType:    input.RoleType,
			Title:       input.Title,
			Description: input.Description,
			Budget:      input.Budget,
			Quantity:    input.Quantity,
		}

		if err := tx.Create(&role).Error; err != nil {
			return err
		}

		// A new unfilled role can reopen a filled job.
		return recomputeJobStatus(tx, &job)
	})

	if err != nil {
		return nil, err
	}

	return &role, nil
}

func (s *JobService) UpdateRole(organizerID uint, jobID uint, roleID uint, input UpdateRoleInput) (*models.Role, error) {
	var role models.Role

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job

		if err := s.lockOwnedJob(tx, jobID, organizerID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		if err := tx.Where("id = ? AND job_id = ?", roleID, jobID).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("role not found")
			}
			return err
		}

		if input.Quantity != nil {
			if *input.Quantity < 1 {
				return NewValidation("role quantity must be at least 1")
			}
			if *input.Quantity < role.FilledCount {
				return NewValidation("role quantity cannot be reduced below its filled count")
			}
			role.Quantity = *input.Quantity
		}

		if input.Budget != nil {
			if *input.Budget < 0 {
				return NewValidation("role budget must not be negative")
			}
			role.Budget = *input.Budget
		}

		if input.RoleType != nil {
			role.RoleType = *input.RoleType
		}
		if input.Title != nil {
			role.Title = *input.Title
		}
		if input.Description != nil {
			role.Description = *input.Description
		}

		if err := tx.Save(&role).Error; err != nil {
			return err
		}

		// Raising quantity can take a filled job back to in_progress.
		return recomputeJobStatus(tx, &job)
	})

	if err != nil {
		return nil, err
	}

	return &role, nil
}

func (s *JobService) DeleteRole(organizerID uint, jobID uint, roleID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job

		if err := s.lockOwnedJob(tx, jobID, organizerID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be edited")
		}

		var role models.Role

		if err := tx.Where("id = ? AND job_id = ?", roleID, jobID).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("role not found")
			}
			return err
		}

		if role.FilledCount > 0 {
			return NewConflict("role has accepted applicants and cannot be deleted")
		}

		if err := tx.Delete(&role).Error; err != nil {
			return err
		}

		return recomputeJobStatus(tx, &job)
	})
}

// MarkRolePaid flags a role's payout as settled. Gated on the organiser's
// payment onboarding being complete; everything else about settlement
// lives with the payment provider.
func (s *JobService) MarkRolePaid(organizerID uint, jobID uint, roleID uint) (*models.Role, error) {
	var role models.Role

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job

		if err := s.lockOwnedJob(tx, jobID, organizerID, &job); err != nil {
			return err
		}

		var organizer models.User

		if err := tx.First(&organizer, organizerID).Error; err != nil {
			return err
		}

		if !organizer.PayoutsEnabled {
			return NewValidation("payouts are not enabled for this account")
		}

		if err := tx.Where("id = ? AND job_id = ?", roleID, jobID).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("role not found")
			}
			return err
		}

		role.Paid = true

		return tx.Save(&role).Error
	})

	if err != nil {
		return nil, err
	}

	return &role, nil
}

// IsOrganizerOrMember reports whether userID may join the job's realtime
// channel: the organiser and current team members only.
func (s *JobService) IsOrganizerOrMember(userID uint, jobID uint) (bool, error) {
	var job models.Job

	if err := s.db.First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, NewNotFound("job not found")
		}
		return false, err
	}

	if job.OrganizerID == userID {
		return true, nil
	}

	return isTeamMember(s.db, jobID, userID)
}

// lockOwnedJob loads the job row for update inside tx and enforces that
// userID is its organiser. A job that exists but belongs to someone else
// comes back as a permission failure, not a not-found.
func (s *JobService) lockOwnedJob(tx *gorm.DB, jobID uint, userID uint, job *models.Job) error {
	if err := lockJob(tx, jobID, job); err != nil {
		return err
	}

	if job.OrganizerID != userID {
		return NewPermission("only the organiser can do this")
	}

	return nil
}
