package repo

import (
	"context"
	"errors"
	"time"

	"github.com/accountflow/reminder-service/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional status update finds the row
// no longer pending. Another dispatch attempt won the race.
var ErrConflict = errors.New("status conflict")

// DispatchClaim is a staged pending -> sent transition. The backing row
// stays locked until Commit or Rollback, so a concurrent claim on the
// same reminder either waits or gets ErrConflict.
type DispatchClaim interface {
	// Commit makes the sent transition durable.
	Commit() error
	// Rollback releases the row, leaving it pending.
	Rollback() error
}

type ReminderRepository interface {
	Create(ctx context.Context, r model.Reminder) error
	// GetByID loads one reminder scoped to its owning accountant.
	// An empty accountantID skips the ownership filter (system paths only).
	GetByID(ctx context.Context, id, accountantID string) (model.Reminder, error)
	// ListPendingDue returns pending reminders with due_at <= now, oldest
	// first. An empty accountantID selects across all accountants.
	ListPendingDue(ctx context.Context, now time.Time, accountantID string) ([]model.Reminder, error)
	// ClaimForSend stages the pending -> sent transition for a reminder.
	// Returns ErrConflict if the reminder is no longer pending.
	ClaimForSend(ctx context.Context, id string, sentAt time.Time) (DispatchClaim, error)
	// MarkFailed transitions pending -> failed, recording the reason.
	// Returns ErrConflict if the reminder is no longer pending.
	MarkFailed(ctx context.Context, id string, reason string) error
	// HasPendingFor reports whether a pending reminder already exists for
	// the client at the given due date. Keeps planning idempotent.
	HasPendingFor(ctx context.Context, clientID string, dueAt time.Time) (bool, error)
	ListSent(ctx context.Context, limit, offset int) ([]model.Reminder, error)
}

type SettingsRepository interface {
	// GetOrCreateDefault returns the accountant's settings, inserting the
	// documented defaults on first access.
	GetOrCreateDefault(ctx context.Context, accountantID string) (model.ReminderSettings, error)
	Update(ctx context.Context, s model.ReminderSettings) error
}

// ClientDirectory resolves the contact info the dispatcher needs to
// address a notification.
type ClientDirectory interface {
	GetContactInfo(ctx context.Context, clientID string) (model.ClientContact, error)
	// ListSchedulable returns active clients that have a known next
	// invoice date, for the planner's sweep.
	ListSchedulable(ctx context.Context) ([]model.Client, error)
}

type EmailLogRepository interface {
	Insert(ctx context.Context, l EmailLog) error
	ListRecent(ctx context.Context, limit, offset int) ([]EmailLog, error)
}

// EmailLog records one outbound send attempt, successful or not.
type EmailLog struct {
	ID        string
	To        string
	Subject   string
	Body      string
	Kind      string
	Status    string
	RemoteID  *string
	Error     *string
	CreatedAt time.Time
}
