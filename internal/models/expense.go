package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense rows are append-only: once logged they are never updated or
// deleted, even when the parent Job is cancelled. Budget summaries are
// recomputed from this log on every read. Amount is in cents and always
// positive; a nil RoleID puts the expense in the job's unassigned category.
type Expense struct {
	gorm.Model

	JobID       uint  `gorm:"not null;index"`
	RoleID      *uint `gorm:"index"`
	Amount      int64 `gorm:"not null"`
	Description string
	LoggedBy    uint      `gorm:"not null"`
	LoggedAt    time.Time `gorm:"not null"`

	// Relationships
	Job    Job   `gorm:"foreignKey:JobID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Role   *Role `gorm:"foreignKey:RoleID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Logger User  `gorm:"foreignKey:LoggedBy;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
