package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

type ApplicationService struct {
	db     *gorm.DB
	log    *logger.Logger
	notify *NotificationService
}

func NewApplicationService(db *gorm.DB, baseLog *logger.Logger, notify *NotificationService) *ApplicationService {
	return &ApplicationService{
		db:     db,
		log:    baseLog.With("service", "applications"),
		notify: notify,
	}
}

// ApplyToRole submits a pending application. The fill-count check here is
// a fast-fail against an obviously full role; the authoritative check is
// the guarded increment in AcceptApplication.
func (s *ApplicationService) ApplyToRole(applicantID uint, roleID uint, submittedAt time.Time) (*models.Application, error) {
	var application models.Application
	var job models.Job

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var role models.Role

		if err := tx.First(&role, roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("role not found")
			}
			return err
		}

		if err := lockJob(tx, role.JobID, &job); err != nil {
			return err
		}

		if job.Status != types.JobStatusOpen && job.Status != types.JobStatusInProgress {
			return NewValidation("job is not accepting applications")
		}

		if job.OrganizerID == applicantID {
			return NewValidation("organisers cannot apply to their own job")
		}

		if !job.ApplicationDeadline.IsZero() && submittedAt.After(job.ApplicationDeadline) {
			return NewValidation("application deadline has passed")
		}

		var active int64

		err := tx.Model(&models.Application{}).
			Where("role_id = ? AND applicant_id = ? AND status IN ?",
				roleID, applicantID,
				[]string{types.ApplicationStatusPending, types.ApplicationStatusAccepted}).
			Count(&active).Error

		if err != nil {
			return err
		}

		if active > 0 {
			return NewConflict("an active application for this role already exists")
		}

		if role.FilledCount >= role.Quantity {
			return ErrRoleFilled
		}

		application = models.Application{
			RoleID:      role.ID,
			JobID:       job.ID,
			ApplicantID: applicantID,
			Status:      types.ApplicationStatusPending,
			SubmittedAt: submittedAt,
		}

		return tx.Create(&application).Error
	})

	if err != nil {
		return nil, err
	}

	s.notify.Push(job.ID, types.NotificationApplicationReceived, []uint{job.OrganizerID}, map[string]any{
		"job_id":         job.ID,
		"role_id":        application.RoleID,
		"application_id": application.ID,
		"applicant_id":   applicantID,
	})

	return &application, nil
}

// AcceptApplication is the slot-race critical section. The fill count is
// advanced with a single guarded UPDATE (filled_count < quantity) and the
// application leaves pending through an equally guarded UPDATE, both in
// one transaction. Losing the slot race rolls everything back and returns
// ErrRoleFilled; the application stays pending and the caller is expected
// to surface "role already filled" verbatim.
func (s *ApplicationService) AcceptApplication(organizerID uint, applicationID uint) (*models.Application, error) {
	var application models.Application
	var job models.Job
	var role models.Role
	var roleJustFilled bool
	var losingApplicants []uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := withRowLock(tx).First(&application, applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("application not found")
			}
			return err
		}

		if err := lockJob(tx, application.JobID, &job); err != nil {
			return err
		}

		if job.OrganizerID != organizerID {
			return NewPermission("only the organiser can accept applications")
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and can no longer be staffed")
		}

		if application.Status != types.ApplicationStatusPending {
			return NewConflict("application is not pending")
		}

		filled := tx.Model(&models.Role{}).
			Where("id = ? AND filled_count < quantity", application.RoleID).
			UpdateColumn("filled_count", gorm.Expr("filled_count + 1"))

		if filled.Error != nil {
			return filled.Error
		}

		if filled.RowsAffected == 0 {
			return ErrRoleFilled
		}

		accepted := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", application.ID, types.ApplicationStatusPending).
			Update("status", types.ApplicationStatusAccepted)

		if accepted.Error != nil {
			return accepted.Error
		}

		if accepted.RowsAffected == 0 {
			// A concurrent withdraw got there first; the increment above
			// rolls back with the transaction.
			return NewConflict("application is not pending")
		}

		application.Status = types.ApplicationStatusAccepted

		if err := tx.First(&role, application.RoleID).Error; err != nil {
			return err
		}

		roleJustFilled = role.FilledCount >= role.Quantity

		if roleJustFilled {
			var err error

			if losingApplicants, err = pendingApplicantIDs(tx, role.ID, application.ApplicantID); err != nil {
				return err
			}
		}

		return recomputeJobStatus(tx, &job)
	})

	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"job_id":         job.ID,
		"role_id":        role.ID,
		"application_id": application.ID,
		"applicant_id":   application.ApplicantID,
	}

	s.notify.Push(job.ID, types.NotificationApplicationAccepted, []uint{application.ApplicantID, job.OrganizerID}, payload)

	if roleJustFilled && len(losingApplicants) > 0 {
		s.notify.Push(job.ID, types.NotificationRoleFilled, losingApplicants, map[string]any{
			"job_id":  job.ID,
			"role_id": role.ID,
		})
	}

	s.log.Info("application accepted",
		"application_id", application.ID,
		"role_id", role.ID,
		"filled_count", role.FilledCount,
		"quantity", role.Quantity,
		"job_status", job.Status)

	return &application, nil
}

func (s *ApplicationService) RejectApplication(organizerID uint, applicationID uint) (*models.Application, error) {
	var application models.Application
	var job models.Job

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := withRowLock(tx).First(&application, applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("application not found")
			}
			return err
		}

		if err := lockJob(tx, application.JobID, &job); err != nil {
			return err
		}

		if job.OrganizerID != organizerID {
			return NewPermission("only the organiser can reject applications")
		}

		if application.Status != types.ApplicationStatusPending {
			return NewConflict("application is not pending")
		}

		application.Status = types.ApplicationStatusRejected

		return tx.Save(&application).Error
	})

	if err != nil {
		return nil, err
	}

	s.notify.Push(job.ID, types.NotificationApplicationRejected, []uint{application.ApplicantID}, map[string]any{
		"job_id":         job.ID,
		"role_id":        application.RoleID,
		"application_id": application.ID,
	})

	return &application, nil
}

// WithdrawApplication is the applicant's side of the critical section. A
// pending withdrawal is a plain status change; withdrawing an accepted
// application gives the slot back, revokes the derived team membership and
// can reopen a filled job. It runs through the same guarded updates as
// AcceptApplication, so a withdraw racing an accept of the same
// application serialises instead of double-counting.
func (s *ApplicationService) WithdrawApplication(applicantID uint, applicationID uint) (*models.Application, error) {
	var application models.Application
	var job models.Job

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := withRowLock(tx).First(&application, applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("application not found")
			}
			return err
		}

		if application.ApplicantID != applicantID {
			return NewPermission("only the applicant can withdraw an application")
		}

		if err := lockJob(tx, application.JobID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and applications can no longer change")
		}

		switch application.Status {
		case types.ApplicationStatusPending:
			withdrawn := tx.Model(&models.Application{}).
				Where("id = ? AND status = ?", application.ID, types.ApplicationStatusPending).
				Update("status", types.ApplicationStatusWithdrawn)

			if withdrawn.Error != nil {
				return withdrawn.Error
			}

			if withdrawn.RowsAffected == 0 {
				return NewConflict("application is not active")
			}

		case types.ApplicationStatusAccepted:
			withdrawn := tx.Model(&models.Application{}).
				Where("id = ? AND status = ?", application.ID, types.ApplicationStatusAccepted).
				Update("status", types.ApplicationStatusWithdrawn)

			if withdrawn.Error != nil {
				return withdrawn.Error
			}

			if withdrawn.RowsAffected == 0 {
				return NewConflict("application is not active")
			}

			freed := tx.Model(&models.Role{}).
				Where("id = ? AND filled_count > 0", application.RoleID).
				UpdateColumn("filled_count", gorm.Expr("filled_count - 1"))

			if freed.Error != nil {
				return freed.Error
			}

			if err := recomputeJobStatus(tx, &job); err != nil {
				return err
			}

		default:
			return NewConflict("application is not active")
		}

		application.Status = types.ApplicationStatusWithdrawn

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.notify.Push(job.ID, types.NotificationApplicationWithdrawn, []uint{job.OrganizerID}, map[string]any{
		"job_id":         job.ID,
		"role_id":        application.RoleID,
		"application_id": application.ID,
		"applicant_id":   applicantID,
	})

	return &application, nil
}

func (s *ApplicationService) ListJobApplications(organizerID uint, jobID uint) ([]models.Application, error) {
	var job models.Job

	if err := s.db.First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("job not found")
		}
		return nil, err
	}

	if job.OrganizerID != organizerID {
		return nil, NewPermission("only the organiser can list a job's applications")
	}

	var applications []models.Application

	err := s.db.Preload("Role").Preload("Applicant").
		Where("job_id = ?", jobID).
		Order("submitted_at ASC").
		Find(&applications).Error

	if err != nil {
		return nil, err
	}

	return applications, nil
}

func (s *ApplicationService) ListMyApplications(applicantID uint) ([]models.Application, error) {
	var applications []models.Application

	err := s.db.Preload("Role").Preload("Job").
		Where("applicant_id = ?", applicantID).
		Order("submitted_at DESC").
		Find(&applications).Error

	if err != nil {
		return nil, err
	}

	return applications, nil
}
