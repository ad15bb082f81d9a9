package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

// withRowLock adds SELECT ... FOR UPDATE on dialects that support it.
// SQLite (used by the tests) has no row locks and serializes writers
// itself, so the clause is skipped there rather than producing a syntax
// error.
func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}

	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func lockJob(tx *gorm.DB, jobID uint, job *models.Job) error {
	err := withRowLock(tx).First(job, jobID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("job not found")
		}
		return err
	}

	return nil
}

// recomputeJobStatus re-derives the open / in_progress / filled leg of the
// job state machine from the current role fill counts. draft, completed
// and cancelled are organiser-driven and never touched here. Must run
// inside the same transaction as the fill-count change it follows.
func recomputeJobStatus(tx *gorm.DB, job *models.Job) error {
	switch job.Status {
	case types.JobStatusOpen, types.JobStatusInProgress, types.JobStatusFilled:
	default:
		return nil
	}

	var agg struct {
		TotalRoles int
		FullRoles  int
		FilledSum  int
	}

	err := tx.Model(&models.Role{}).
		Select("COUNT(*) AS total_roles, COALESCE(SUM(CASE WHEN filled_count >= quantity THEN 1 ELSE 0 END), 0) AS full_roles, COALESCE(SUM(filled_count), 0) AS filled_sum").
		Where("job_id = ?", job.ID).
		Scan(&agg).Error

	if err != nil {
		return err
	}

	next := types.JobStatusOpen

	switch {
	case agg.TotalRoles > 0 && agg.FullRoles == agg.TotalRoles:
		next = types.JobStatusFilled
	case agg.FilledSum > 0:
		next = types.JobStatusInProgress
	}

	if next == job.Status {
		return nil
	}

	job.Status = next

	return tx.Model(job).UpdateColumn("status", next).Error
}
