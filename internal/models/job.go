package models

import (
	"time"

	"gorm.io/gorm"
)

type Job struct {
	gorm.Model

	OrganizerID         uint   `gorm:"not null;index"`
	Title               string `gorm:"not null"`
	Description         string
	Location            string
	EventType           string `gorm:"not null"` // "wedding", "concert", "corporate", etc.
	Status              string `gorm:"not null;index"`
	StartsAt            time.Time
	EndsAt              time.Time
	ApplicationDeadline time.Time
	TotalBudget         int64 `gorm:"not null"` // cents

	// Relationships
	Organizer    User          `gorm:"foreignKey:OrganizerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Roles        []Role        `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Applications []Application `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Expenses     []Expense     `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks        []Task        `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Messages     []Message     `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
