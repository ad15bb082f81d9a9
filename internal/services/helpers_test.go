package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/crewcall-dev/crewcall/internal/fanout"
	"github.com/crewcall-dev/crewcall/internal/logger"
	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

// newTestDB opens a throwaway sqlite database. A file in t.TempDir (rather
// than :memory:) so every pooled connection sees the same data, with
// _txlock=immediate so concurrent transactions in the race tests serialize
// instead of deadlocking on lock upgrades.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "crewcall.db") + "?_busy_timeout=10000&_txlock=immediate"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})

	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.Role{},
		&models.Application{},
		&models.Expense{},
		&models.Task{},
		&models.Message{},
		&models.Notification{},
	)

	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// eventRecorder captures published fan-out events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []fanout.Event
}

func (r *eventRecorder) Publish(event fanout.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *eventRecorder) byType(eventType string) []fanout.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []fanout.Event

	for _, event := range r.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}

	return matched
}

type testEnv struct {
	db            *gorm.DB
	recorder      *eventRecorder
	jobs          *JobService
	applications  *ApplicationService
	budget        *BudgetService
	tasks         *TaskService
	messages      *MessageService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	log := logger.NewNop()
	recorder := &eventRecorder{}
	notifications := NewNotificationService(db, log, recorder)

	return &testEnv{
		db:            db,
		recorder:      recorder,
		jobs:          NewJobService(db, log, notifications),
		applications:  NewApplicationService(db, log, notifications),
		budget:        NewBudgetService(db, log, notifications),
		tasks:         NewTaskService(db, log, notifications),
		messages:      NewMessageService(db, log, notifications),
		notifications: notifications,
	}
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
	}

	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}

	return &user
}

func (e *testEnv) createOpenJob(t *testing.T, organizerID uint) *models.Job {
	t.Helper()

	job, err := e.jobs.CreateJob(organizerID, CreateJobInput{
		Title:               "Summer Festival",
		EventType:           "festival",
		Status:              types.JobStatusOpen,
		StartsAt:            time.Now().Add(24 * time.Hour),
		EndsAt:              time.Now().Add(48 * time.Hour),
		ApplicationDeadline: time.Now().Add(12 * time.Hour),
		TotalBudget:         100000,
	})

	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	return job
}

func (e *testEnv) addRole(t *testing.T, organizerID uint, jobID uint, title string, budget int64, quantity int) *models.Role {
	t.Helper()

	role, err := e.jobs.AddRole(organizerID, jobID, RoleInput{
		RoleType: "crew",
		Title:    title,
		Budget:   budget,
		Quantity: quantity,
	})

	if err != nil {
		t.Fatalf("add role %s: %v", title, err)
	}

	return role
}

func (e *testEnv) apply(t *testing.T, applicantID uint, roleID uint) *models.Application {
	t.Helper()

	application, err := e.applications.ApplyToRole(applicantID, roleID, time.Now())

	if err != nil {
		t.Fatalf("apply to role %d: %v", roleID, err)
	}

	return application
}

func (e *testEnv) accept(t *testing.T, organizerID uint, applicationID uint) *models.Application {
	t.Helper()

	application, err := e.applications.AcceptApplication(organizerID, applicationID)

	if err != nil {
		t.Fatalf("accept application %d: %v", applicationID, err)
	}

	return application
}

func (e *testEnv) jobStatus(t *testing.T, jobID uint) string {
	t.Helper()

	var job models.Job

	if err := e.db.First(&job, jobID).Error; err != nil {
		t.Fatalf("reload job %d: %v", jobID, err)
	}

	return job.Status
}

func (e *testEnv) filledCount(t *testing.T, roleID uint) int {
	t.Helper()

	var role models.Role

	if err := e.db.First(&role, roleID).Error; err != nil {
		t.Fatalf("reload role %d: %v", roleID, err)
	}

	return role.FilledCount
}
