package services

import (
	"testing"

	"github.com/crewcall-dev/crewcall/internal/types"
)

func TestBudgetSummary_DerivesFromExpenseLog(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Sound Engineer", 50000, 1)

	roleID := role.ID

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 20000, "mixer rental"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	summary, err := env.budget.BudgetSummary(organizer.ID, job.ID)

	if err != nil {
		t.Fatalf("budget summary: %v", err)
	}

	if len(summary.Roles) != 1 {
		t.Fatalf("expected one role line, got %d", len(summary.Roles))
	}

	line := summary.Roles[0]

	if line.Budgeted != 50000 || line.Spent != 20000 || line.Remaining != 30000 || line.OverBudget {
		t.Fatalf("unexpected role line after first expense: %+v", line)
	}

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 40000, "overtime"); err != nil {
		t.Fatalf("add second expense: %v", err)
	}

	summary, err = env.budget.BudgetSummary(organizer.ID, job.ID)

	if err != nil {
		t.Fatalf("budget summary: %v", err)
	}

	line = summary.Roles[0]

	if line.Spent != 60000 || line.Remaining != -10000 || !line.OverBudget {
		t.Fatalf("unexpected role line after overspend: %+v", line)
	}

	if summary.TotalSpent != 60000 || !summary.OverBudget {
		t.Fatalf("unexpected totals after overspend: %+v", summary)
	}
}

func TestBudgetSummary_RepeatedCallsAgree(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Caterer", 10000, 2)

	roleID := role.ID

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 2500, "tasting"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, nil, 1500, "parking"); err != nil {
		t.Fatalf("add unassigned expense: %v", err)
	}

	first, err := env.budget.BudgetSummary(organizer.ID, job.ID)

	if err != nil {
		t.Fatalf("first summary: %v", err)
	}

	second, err := env.budget.BudgetSummary(organizer.ID, job.ID)

	if err != nil {
		t.Fatalf("second summary: %v", err)
	}

	if first.TotalSpent != second.TotalSpent || first.UnassignedSpent != second.UnassignedSpent {
		t.Fatalf("summaries diverged without a write: %+v vs %+v", first, second)
	}

	if second.UnassignedSpent != 1500 || second.TotalSpent != 4000 {
		t.Fatalf("unexpected totals: %+v", second)
	}
}

func TestAddExpense_Validation(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	outsider := env.createUser(t, "outsider")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Runner", 5000, 1)

	roleID := role.ID

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 0, "zero"); !IsValidation(err) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, -100, "negative"); !IsValidation(err) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}

	if _, err := env.budget.AddExpense(outsider.ID, job.ID, &roleID, 100, "sneaky"); !IsPermission(err) {
		t.Fatalf("expected permission error for non-member, got %v", err)
	}

	other := env.createOpenJob(t, organizer.ID)
	otherRole := env.addRole(t, organizer.ID, other.ID, "Runner", 5000, 1)
	otherRoleID := otherRole.ID

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &otherRoleID, 100, "wrong job"); !IsNotFound(err) {
		t.Fatalf("expected not-found for a role on another job, got %v", err)
	}

	if _, err := env.jobs.CancelJob(organizer.ID, job.ID); err != nil {
		t.Fatalf("cancel job: %v", err)
	}

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 100, "late"); !IsValidation(err) {
		t.Fatalf("expected validation error on a cancelled job, got %v", err)
	}
}

func TestAddExpense_MemberCanLog(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	alice := env.createUser(t, "alice")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Stagehand", 20000, 1)

	env.accept(t, organizer.ID, env.apply(t, alice.ID, role.ID).ID)

	roleID := role.ID

	expense, err := env.budget.AddExpense(alice.ID, job.ID, &roleID, 3000, "gaffer tape")

	if err != nil {
		t.Fatalf("member expense: %v", err)
	}

	if expense.LoggedBy != alice.ID {
		t.Fatalf("expected expense attributed to %d, got %d", alice.ID, expense.LoggedBy)
	}
}

func TestAddExpense_NotifiesOnceOnBudgetCrossing(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	job := env.createOpenJob(t, organizer.ID)
	role := env.addRole(t, organizer.ID, job.ID, "Sound Engineer", 50000, 1)

	roleID := role.ID

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 30000, "desk"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	if got := env.recorder.byType(types.NotificationBudgetExceeded); len(got) != 0 {
		t.Fatalf("no crossing yet, got %d events", len(got))
	}

	// 30000 -> 55000 crosses the 50000 line.
	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 25000, "monitors"); err != nil {
		t.Fatalf("add crossing expense: %v", err)
	}

	events := env.recorder.byType(types.NotificationBudgetExceeded)

	if len(events) != 1 {
		t.Fatalf("expected exactly one crossing event, got %d", len(events))
	}

	if len(events[0].Recipients) != 1 || events[0].Recipients[0] != organizer.ID {
		t.Fatalf("crossing should notify the organiser, got %v", events[0].Recipients)
	}

	// Already over budget: further expenses stay quiet.
	if _, err := env.budget.AddExpense(organizer.ID, job.ID, &roleID, 10000, "more overtime"); err != nil {
		t.Fatalf("add further expense: %v", err)
	}

	if got := env.recorder.byType(types.NotificationBudgetExceeded); len(got) != 1 {
		t.Fatalf("crossing event should fire once, got %d", len(got))
	}
}

func TestListExpenses_OrderedAndGated(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.createUser(t, "organizer")
	outsider := env.createUser(t, "outsider")
	job := env.createOpenJob(t, organizer.ID)

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, nil, 100, "first"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	if _, err := env.budget.AddExpense(organizer.ID, job.ID, nil, 200, "second"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	expenses, err := env.budget.ListExpenses(organizer.ID, job.ID)

	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}

	if len(expenses) != 2 || expenses[0].Description != "first" || expenses[1].Description != "second" {
		t.Fatalf("expected log order, got %+v", expenses)
	}

	if _, err := env.budget.ListExpenses(outsider.ID, job.ID); !IsPermission(err) {
		t.Fatalf("expected permission error for non-member, got %v", err)
	}
}
