package models

import (
	"time"

	"gorm.io/gorm"
)

type Application struct {
	gorm.Model

	RoleID      uint      `gorm:"not null;index"`
	JobID       uint      `gorm:"not null;index"` // denormalized from Role for membership queries
	ApplicantID uint      `gorm:"not null;index:idx_role_applicant"`
	Status      string    `gorm:"not null;index"`
	SubmittedAt time.Time `gorm:"not null"`

	// Relationships
	Role      Role `gorm:"foreignKey:RoleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Job       Job  `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Applicant User `gorm:"foreignKey:ApplicantID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
