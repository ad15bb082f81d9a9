package services

import (
	"testing"

	"github.com/crewcall-dev/crewcall/internal/models"
	"github.com/crewcall-dev/crewcall/internal/types"
)

func TestPush_WritesRowsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	env.notifications.Push(1, types.NotificationRoleFilled, []uint{alice.ID, bob.ID, alice.ID}, map[string]any{
		"job_id": 1,
	})

	var rows []models.Notification

	if err := env.db.Order("recipient_id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}

	// Duplicate recipients collapse to one row each.
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].EventID == "" || rows[0].EventID != rows[1].EventID {
		t.Fatalf("rows for one event must share an event id, got %q and %q", rows[0].EventID, rows[1].EventID)
	}

	events := env.recorder.byType(types.NotificationRoleFilled)

	if len(events) != 1 || events[0].ID != rows[0].EventID {
		t.Fatalf("expected one published event carrying the shared id, got %+v", events)
	}
}

func TestPush_NoRecipientsIsNoop(t *testing.T) {
	env := newTestEnv(t)

	env.notifications.Push(1, types.NotificationRoleFilled, nil, map[string]any{})
	env.notifications.Push(1, types.NotificationRoleFilled, []uint{0}, map[string]any{})

	var count int64

	env.db.Model(&models.Notification{}).Count(&count)

	if count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}

	if len(env.recorder.byType(types.NotificationRoleFilled)) != 0 {
		t.Fatal("expected no published events")
	}
}

func TestUnreadCount_RecomputedPerCall(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	env.notifications.Push(1, types.NotificationApplicationAccepted, []uint{alice.ID}, map[string]any{})
	env.notifications.Push(1, types.NotificationMessagePosted, []uint{alice.ID}, map[string]any{})

	count, err := env.notifications.UnreadCount(alice.ID)

	if err != nil {
		t.Fatalf("unread count: %v", err)
	}

	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}

	listed, err := env.notifications.ListNotifications(alice.ID, 0)

	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}

	if len(listed) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(listed))
	}

	if err := env.notifications.MarkRead(alice.ID, listed[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	count, err = env.notifications.UnreadCount(alice.ID)

	if err != nil {
		t.Fatalf("unread count: %v", err)
	}

	if count != 1 {
		t.Fatalf("expected 1 unread after marking one, got %d", count)
	}

	// Marking the same row again is idempotent.
	if err := env.notifications.MarkRead(alice.ID, listed[0].ID); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}

	if count, _ = env.notifications.UnreadCount(alice.ID); count != 1 {
		t.Fatalf("expected count unchanged, got %d", count)
	}
}

func TestMarkRead_OnlyOwnNotifications(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	env.notifications.Push(1, types.NotificationTaskAssigned, []uint{alice.ID}, map[string]any{})

	listed, err := env.notifications.ListNotifications(alice.ID, 0)

	if err != nil || len(listed) != 1 {
		t.Fatalf("list notifications: %v (%d rows)", err, len(listed))
	}

	if err := env.notifications.MarkRead(bob.ID, listed[0].ID); !IsNotFound(err) {
		t.Fatalf("expected not-found marking another user's notification, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	env.notifications.Push(1, types.NotificationMessagePosted, []uint{alice.ID, bob.ID}, map[string]any{})
	env.notifications.Push(1, types.NotificationMessagePosted, []uint{alice.ID}, map[string]any{})

	if err := env.notifications.MarkAllRead(alice.ID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}

	count, err := env.notifications.UnreadCount(alice.ID)

	if err != nil {
		t.Fatalf("unread count: %v", err)
	}

	if count != 0 {
		t.Fatalf("expected 0 unread for alice, got %d", count)
	}

	if count, _ = env.notifications.UnreadCount(bob.ID); count != 1 {
		t.Fatalf("bob's notifications must be untouched, got %d unread", count)
	}
}
