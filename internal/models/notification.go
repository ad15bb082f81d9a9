package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification rows are produced only as side effects of state changes in
// the other entities, never directly by a client. Delivery is at-least-once;
// EventID is the uuid consumers dedupe on when the same event is re-emitted.
type Notification struct {
	gorm.Model

	RecipientID uint           `gorm:"not null;index"`
	Type        string         `gorm:"not null"` // "application_received", "application_accepted", etc.
	EventID     string         `gorm:"not null;index"`
	Payload     datatypes.JSON `gorm:"type:jsonb"` // {"job_id": ..., "role_id": ..., "application_id": ...}
	IsRead      bool           `gorm:"default:false;index"`
	ReadAt      *time.Time

	// Relationships
	Recipient User `gorm:"foreignKey:RecipientID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
