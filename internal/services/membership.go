package services

import (
	"gorm.io/gorm"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

// Team membership is derived, never stored: a user is on a job's team
// exactly while they hold an accepted application for one of its roles.
// Revoking happens implicitly when that application leaves accepted.

func isTeamMember(tx *gorm.DB, jobID uint, userID uint) (bool, error) {
	var count int64

	err := tx.Model(&models.Application{}).
		Where("job_id = ? AND applicant_id = ? AND status = ?", jobID, userID, types.ApplicationStatusAccepted).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func jobMemberIDs(tx *gorm.DB, jobID uint) ([]uint, error) {
	var ids []uint

	err := tx.Model(&models.Application{}).
		Distinct("applicant_id").
		Where("job_id = ? AND status = ?", jobID, types.ApplicationStatusAccepted).
		Pluck("applicant_id", &ids).Error

	if err != nil {
		return nil, err
	}

	return ids, nil
}

func roleMemberIDs(tx *gorm.DB, roleID uint) ([]uint, error) {
	var ids []uint

	err := tx.Model(&models.Application{}).
		Distinct("applicant_id").
		Where("role_id = ? AND status = ?", roleID, types.ApplicationStatusAccepted).
		Pluck("applicant_id", &ids).Error

	if err != nil {
		return nil, err
	}

	return ids, nil
}

func pendingApplicantIDs(tx *gorm.DB, roleID uint, exclude uint) ([]uint, error) {
	var ids []uint

	err := tx.Model(&models.Application{}).
		Distinct("applicant_id").
		Where("role_id = ? AND status = ? AND applicant_id <> ?", roleID, types.ApplicationStatusPending, exclude).
		Pluck("applicant_id", &ids).Error

	if err != nil {
		return nil, err
	}

	return ids, nil
}
