package models

import "gorm.io/gorm"

// Message is append-only. Thread is either "general" or the decimal id of a
// Role belonging to the same Job.
type Message struct {
	gorm.Model

	JobID    uint   `gorm:"not null;index:idx_job_thread"`
	Thread   string `gorm:"not null;index:idx_job_thread"`
	SenderID uint   `gorm:"not null"`
	Body     string `gorm:"not null"`

	// Relationships
	Job    Job  `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Sender User `gorm:"foreignKey:SenderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
