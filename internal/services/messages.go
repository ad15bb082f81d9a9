package services

import (
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

type MessageService struct {
	db     *gorm.DB
	log    *logger.Logger
	notify *NotificationService
}

func NewMessageService(db *gorm.DB, baseLog *logger.Logger, notify *NotificationService) *MessageService {
	return &MessageService{
		db:     db,
		log:    baseLog.With("service", "messages"),
		notify: notify,
	}
}

// PostMessage appends to a job thread. Posting is limited to the organiser
// and current team members; pending applicants cannot post anywhere.
// Messages are never edited or deleted.
func (s *MessageService) PostMessage(senderID uint, jobID uint, thread string, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)

	if body == "" {
		return nil, NewValidation("message body must not be empty")
	}

	var message models.Message
	var job models.Job
	var roleID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockJob(tx, jobID, &job); err != nil {
			return err
		}

		if types.JobStatusTerminal(job.Status) {
			return NewValidation("job is " + job.Status + " and its threads are read-only")
		}

		if job.OrganizerID != senderID {
			member, err := isTeamMember(tx, jobID, senderID)

			if err != nil {
				return err
			}

			if !member {
				return NewPermission("only the organiser or a team member can post here")
			}
		}

		var err error

		if roleID, err = resolveThread(tx, jobID, thread); err != nil {
			return err
		}

		message = models.Message{
			JobID:    jobID,
			Thread:   thread,
			SenderID: senderID,
			Body:     body,
		}

		return tx.Create(&message).Error
	})

	if err != nil {
		return nil, err
	}

	recipients, recErr := s.threadRecipients(&job, roleID, senderID)

	if recErr != nil {
		s.log.Error("failed to resolve message recipients", "job_id", jobID, "thread", thread, "error", recErr)
	} else {
		s.notify.Push(job.ID, types.NotificationMessagePosted, recipients, map[string]any{
			"job_id":     job.ID,
			"thread":     thread,
			"message_id": message.ID,
			"sender_id":  senderID,
		})
	}

	return &message, nil
}

// GetThread returns a thread oldest-first. Reads stay available after the
// job reaches a terminal state.
func (s *MessageService) GetThread(userID uint, jobID uint, thread string) ([]models.Message, error) {
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
			return nil, NewPermission("only the organiser or a team member can read this thread")
		}
	}

	if _, err := resolveThread(s.db, jobID, thread); err != nil {
		return nil, err
	}

	var messages []models.Message

	err := s.db.Preload("Sender").
		Where("job_id = ? AND thread = ?", jobID, thread).
		Order("created_at ASC").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	return messages, nil
}

// resolveThread validates a thread name and, for role threads, returns the
// role id it refers to (0 for the general thread).
func resolveThread(tx *gorm.DB, jobID uint, thread string) (uint, error) {
	if thread == types.ThreadGeneral {
		return 0, nil
	}

	roleID, err := strconv.ParseUint(thread, 10, 32)

	if err != nil {
		return 0, NewValidation("thread must be \"general\" or a role id")
	}

	var count int64

	if err := tx.Model(&models.Role{}).Where("id = ? AND job_id = ?", roleID, jobID).Count(&count).Error; err != nil {
		return 0, err
	}

	if count == 0 {
		return 0, NewNotFound("role thread not found")
	}

	return uint(roleID), nil
}

func (s *MessageService) threadRecipients(job *models.Job, roleID uint, senderID uint) ([]uint, error) {
	var members []uint
	var err error

	if roleID != 0 {
		members, err = roleMemberIDs(s.db, roleID)
	} else {
		members, err = jobMemberIDs(s.db, job.ID)
	}

	if err != nil {
		return nil, err
	}

	recipients := make([]uint, 0, len(members)+1)

	if job.OrganizerID != senderID {
		recipients = append(recipients, job.OrganizerID)
	}

	for _, member := range members {
		if member != senderID {
			recipients = append(recipients, member)
		}
	}

	return recipients, nil
}
