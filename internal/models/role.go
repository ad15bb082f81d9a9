package models

import "gorm.io/gorm"

type Role struct {
	gorm.Model

	JobID       uint   `gorm:"not null;index"`
	RoleType    string `gorm:"not null"` // "photographer", "sound_engineer", "caterer", etc.
	Title       string `gorm:"not null"`
	Description string
	Budget      int64 `gorm:"not null"` // cents
	Quantity    int   `gorm:"not null"`
	FilledCount int   `gorm:"not null;default:0"` // 0 <= FilledCount <= Quantity, guarded increment only
	Paid        bool  `gorm:"default:false"`

	// Relationships
	Job          Job           `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Applications []Application `gorm:"foreignKey:RoleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
