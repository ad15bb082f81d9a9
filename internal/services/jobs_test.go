package services

import (
	"testing"
	"time"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

func TestCreateJob_OnlyDraftOrOpen(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")

	_, err := env.jobs.CreateJob(organizer.ID, CreateJobInput{
		Title:     "Bad Status",
		EventType: "concert",
		Status:    types.JobStatusFilled,
	})

	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	job, err := env.jobs.CreateJob(organizer.ID, CreateJobInput{
		Title:     "Defaults To Draft",
		EventType: "concert",
	})

	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	if job.Status != types.JobStatusDraft {
		t.Fatalf("expected draft by default, got %s", job.Status)
	}
}

func TestUpdateJob_PublishesDraft(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")

	job, err := env.jobs.CreateJob(organizer.ID, CreateJobInput{
		Title:     "Warehouse Party",
		EventType: "concert",
	})

	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	open := types.JobStatusOpen

	updated, err := env.jobs.UpdateJob(organizer.ID, job.ID, UpdateJobInput{Status: &open})

	if err != nil {
		t.Fatalf("publish draft: %v", err)
	}

	if updated.Status != types.JobStatusOpen {
		t.Fatalf("expected open, got %s", updated.Status)
	}

	completed := types.JobStatusCompleted

	if _, err := env.jobs.UpdateJob(organizer.ID, job.ID, UpdateJobInput{Status: &completed}); !IsValidation(err) {
		t.Fatalf("expected validation error setting status directly, got %v", err)
	}
}

func TestUpdateJob_OnlyOrganizer(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	outsider := env.createUser(t, "outsider")
	job := env.createOpenJob(t, organizer.ID)

	title := "Hijacked"

	_, err := env.jobs.UpdateJob(outsider.ID, job.ID, UpdateJobInput{Title: &title})

	if !IsPermission(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestUpdateRole_QuantityCannotDropBelowFilled(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Stagehand", 20000, 3)

	env.accept(t, organizer.ID, env.apply(t, alice.ID, role.ID).ID)
	env.accept(t, organizer.ID, env.apply(t, bob.ID, role.ID).ID)

	one := 1

	_, err := env.jobs.UpdateRole(organizer.ID, job.ID, role.ID, UpdateRoleInput{Quantity: &one})

	if !IsValidation(err) {
		t.Fatalf("expected validation error reducing quantity below filled count, got %v", err)
	}

	two := 2

	if _, err := env.jobs.UpdateRole(organizer.ID, job.ID, role.ID, UpdateRoleInput{Quantity: &two}); err != nil {
		t.Fatalf("reducing quantity to the filled count should succeed, got %v", err)
	}

	if got := env.jobStatus(t, job.ID); got != types.JobStatusFilled {
		t.Fatalf("reducing quantity to filled count should mark the job filled, got %s", got)
	}
}

func TestUpdateRole_RaisingQuantityReopensFilledJob(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	alice := env.createUser(t, "alice")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Sound Engineer", 50000, 1)

	env.accept(t, organizer.ID, env.apply(t, alice.ID, role.ID).ID)

	if got := env.jobStatus(t, job.ID); got != types.JobStatusFilled {
		t.Fatalf("expected filled, got %s", got)
	}

	three := 3

	if _, err := env.jobs.UpdateRole(organizer.ID, job.ID, role.ID, UpdateRoleInput{Quantity: &three}); err != nil {
		t.Fatalf("raise quantity: %v", err)
	}

	if got := env.jobStatus(t, job.ID); got != types.JobStatusInProgress {
		t.Fatalf("expected in_progress after reopening capacity, got %s", got)
	}
}

func TestDeleteRole_RejectedOnceStaffed(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	alice := env.createUser(t, "alice")
	job := env.createOpenJob(t, organizer.ID)
	staffed := env.addRole(t, organizer.ID, job.ID, "Sound Engineer", 50000, 1)
	empty := env.addRole(t, organizer.ID, job.ID, "Runner", 5000, 1)

	env.accept(t, organizer.ID, env.apply(t, alice.ID, staffed.ID).ID)

	if err := env.jobs.DeleteRole(organizer.ID, job.ID, staffed.ID); !IsConflict(err) {
		t.Fatalf("expected conflict deleting a staffed role, got %v", err)
	}

	if err := env.jobs.DeleteRole(organizer.ID, job.ID, empty.ID); err != nil {
		t.Fatalf("delete empty role: %v", err)
	}

	// With the unfilled role gone, the staffed role fills the job.
	if got := env.jobStatus(t, job.ID); got != types.JobStatusFilled {
		t.Fatalf("expected filled after deleting the open role, got %s", got)
	}
}

func TestCancelJob_WithdrawsPendingKeepsExpenses(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Stagehand", 20000, 2)

	accepted := env.apply(t, alice.ID, role.ID)
	env.accept(t, organizer.ID, accepted.ID)
	pending := env.apply(t, bob.ID, role.ID)

	roleID := role.ID

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 7500, "cabling"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	if _, err := env.jobs.CancelJob(organizer.ID, job.ID); err != nil {
		t.Fatalf("cancel job: %v", err)
	}

	if got := env.jobStatus(t, job.ID); got != types.JobStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}

	var reloaded models.Application

	if err := env.db.First(&reloaded, pending.ID).Error; err != nil {
		t.Fatalf("reload pending application: %v", err)
	}

	if reloaded.Status != types.ApplicationStatusWithdrawn {
		t.Fatalf("pending application should be withdrawn on cancel, got %s", reloaded.Status)
	}

	var expenses int64

	env.db.Model(&models.Expense{}).Where("job_id = ?", job.ID).Count(&expenses)

	if expenses != 1 {
		t.Fatalf("cancel must not touch the expense log, found %d rows", expenses)
	}

	if _, err := env.jobs.CancelJob(organizer.ID, job.ID); !IsValidation(err) {
		t.Fatalf("expected validation error cancelling twice, got %v", err)
	}
}

func TestCompleteJob_Rules(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	alice := env.createUser(t, "alice")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Sound Engineer", 50000, 1)

	// Nothing accepted yet: the job is open, not completable.
	if _, err := env.jobs.CompleteJob(organizer.ID, job.ID, true); !IsValidation(err) {
		t.Fatalf("expected validation error completing an open job, got %v", err)
	}

	env.accept(t, organizer.ID, env.apply(t, alice.ID, role.ID).ID)

	// Filled, but the event has not ended and force is off.
	if _, err := env.jobs.CompleteJob(organizer.ID, job.ID, false); !IsValidation(err) {
		t.Fatalf("expected validation error before the end date, got %v", err)
	}

	completed, err := env.jobs.CompleteJob(organizer.ID, job.ID, true)

	if err != nil {
		t.Fatalf("force complete: %v", err)
	}

	if completed.Status != types.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
}

func TestMarkRolePaid_RequiresPayoutsEnabled(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Caterer", 10000, 1)

	if _, err := env.jobs.MarkRolePaid(organizer.ID, job.ID, role.ID); !IsValidation(err) {
		t.Fatalf("expected validation error without payouts enabled, got %v", err)
	}

	if err := env.db.Model(&models.User{}).Where("id = ?", organizer.ID).Update("payouts_enabled", true).Error; err != nil {
		t.Fatalf("enable payouts: %v", err)
	}

	paid, err := env.jobs.MarkRolePaid(organizer.ID, job.ID, role.ID)

	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	if !paid.Paid {
		t.Fatal("expected role to be flagged paid")
	}
}

func TestAddRole_ReopensFilledJob(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	alice := env.createUser(t, "alice")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Sound Engineer", 50000, 1)

	env.accept(t, organizer.ID, env.apply(t, alice.ID, role.ID).ID)

	if got := env.jobStatus(t, job.ID); got != types.JobStatusFilled {
		t.Fatalf("expected filled, got %s", got)
	}

	env.addRole(t, organizer.ID, job.ID, "Runner", 5000, 1)

	if got := env.jobStatus(t, job.ID); got != types.JobStatusInProgress {
		t.Fatalf("expected in_progress after adding an open role, got %s", got)
	}
}

func TestTerminalJob_RejectsRoleEdits(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Caterer", 10000, 1)

	if _, err := env.jobs.CancelJob(organizer.ID, job.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	five := 5

	if _, err := env.jobs.UpdateRole(organizer.ID, job.ID, role.ID, UpdateRoleInput{Quantity: &five}); !IsValidation(err) {
		t.Fatalf("expected validation error editing a role on a cancelled job, got %v", err)
	}

	if _, err := env.jobs.AddRole(organizer.ID, job.ID, RoleInput{RoleType: "crew", Title: "Late", Quantity: 1}); !IsValidation(err) {
		t.Fatalf("expected validation error adding a role to a cancelled job, got %v", err)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.jobs.GetJob(99999)

	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestListOpenJobs_ExcludesDraftAndTerminal(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")

	open := env.createOpenJob(t, organizer.ID)

	if _, err := env.jobs.CreateJob(organizer.ID, CreateJobInput{
		Title:     "Unpublished",
		EventType: "concert",
		StartsAt:  time.Now().Add(24 * time.Hour),
		EndsAt:    time.Now().Add(48 * time.Hour),
	}); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	cancelled := env.createOpenJob(t, organizer.ID)

	if _, err := env.jobs.CancelJob(organizer.ID, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	listed, err := env.jobs.ListOpenJobs()

	if err != nil {
		t.Fatalf("list open jobs: %v", err)
	}

	if len(listed) != 1 || listed[0].ID != open.ID {
		t.Fatalf("expected only the open job %d, got %+v", open.ID, listed)
	}
}
