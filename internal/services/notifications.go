package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crewcall-dev/crewcall/internal/fanout"
	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/models"
)

// Publisher is the realtime transport seam. The engine only ever calls
// Publish; delivery guarantees beyond at-least-once are the transport's
// problem.
type Publisher interface {
	Publish(event fanout.Event)
}

type NotificationService struct {
	db        *gorm.DB
	log       *logger.Logger
	publisher Publisher
}

func NewNotificationService(db *gorm.DB, baseLog *logger.Logger, publisher Publisher) *NotificationService {
	return &NotificationService{
		db:        db,
		log:       baseLog.With("service", "notifications"),
		publisher: publisher,
	}
}

// Push records one notification per recipient and publishes the event to
// the realtime transport. It is called by the other services after their
// state change has committed, so it never returns an error: a failed write
// or publish is logged and the mutation stands. All rows for one event
// share an EventID so at-least-once consumers can dedupe.
func (s *NotificationService) Push(jobID uint, notificationType string, recipients []uint, payload map[string]any) {
	if len(recipients) == 0 {
		return
	}

	eventID := uuid.NewString()

	raw, err := json.Marshal(payload)

	if err != nil {
		s.log.Error("failed to marshal notification payload", "type", notificationType, "error", err)
		return
	}

	seen := make(map[uint]bool, len(recipients))
	rows := make([]models.Notification, 0, len(recipients))

	for _, recipient := range recipients {
		if recipient == 0 || seen[recipient] {
			continue
		}
		seen[recipient] = true

		rows = append(rows, models.Notification{
			RecipientID: recipient,
			Type:        notificationType,
			EventID:     eventID,
			Payload:     raw,
		})
	}

	if len(rows) == 0 {
		return
	}

	if err := s.db.Create(&rows).Error; err != nil {
		s.log.Error("failed to create notifications", "type", notificationType, "error", err)
		return
	}

	if s.publisher != nil {
		s.publisher.Publish(fanout.Event{
			ID:         eventID,
			Type:       notificationType,
			JobID:      jobID,
			Recipients: recipients,
			Payload:    payload,
		})
	}
}

func (s *NotificationService) ListNotifications(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var notifications []models.Notification

	err := s.db.
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error

	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (s *NotificationService) MarkRead(userID uint, notificationID uint) error {
	var notification models.Notification

	err := s.db.Where("id = ? AND recipient_id = ?", notificationID, userID).First(&notification).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("notification not found")
		}
		return err
	}

	if notification.IsRead {
		return nil
	}

	now := time.Now()
	notification.IsRead = true
	notification.ReadAt = &now

	return s.db.Save(&notification).Error
}

func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()}).Error
}

// UnreadCount is recomputed from the notification rows on every call;
// nothing caches it.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64

	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error

	if err != nil {
		return 0, err
	}

	return count, nil
}
