package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	JobID       uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Priority    string `gorm:"not null"` // "low", "medium", "high", "urgent"
	Status      string `gorm:"not null"`
	AssignedTo  *uint  `gorm:"index"` // must hold a current team membership when set
	DueDate     *time.Time

	// Relationships
	Job      Job   `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User `gorm:"foreignKey:AssignedTo;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
