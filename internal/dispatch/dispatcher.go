// Package dispatch selects due pending reminders, renders their
// notification bodies and drives them through the external sender,
// recording exactly one status transition per reminder.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/accountflow/reminder-service/internal/model"
	"github.com/accountflow/reminder-service/internal/render"
	"github.com/accountflow/reminder-service/internal/repo"
)

var (
	// ErrNotFound covers both a missing reminder and a reminder owned by
	// a different accountant.
	ErrNotFound = errors.New("reminder not found")

	// ErrMissingContact means the client has no usable address for the
	// reminder's channel. Terminal: the reminder is marked failed.
	ErrMissingContact = errors.New("client has no contact information for this channel")

	// ErrUnsupportedType means no sender exists for the reminder's channel.
	// Terminal: the reminder is marked failed.
	ErrUnsupportedType = errors.New("reminder type is not supported")
)

// SenderError wraps a failure reported by the notification sender.
type SenderError struct {
	Reason string
}

func (e *SenderError) Error() string {
	return "sender failed: " + e.Reason
}

// Sender is the outbound notification collaborator.
type Sender interface {
	Send(ctx context.Context, channel, to, subject, body string) (remoteID string, err error)
}

// Outcome is handed to hooks after a dispatch attempt settled.
type Outcome struct {
	Reminder model.Reminder
	To       string
	Body     string
	RemoteID string
	Reason   string
}

// Result reports one reminder's dispatch attempt.
type Result struct {
	ReminderID string `json:"reminderId"`
	Status     string `json:"status"` // sent | skipped | failed
	RemoteID   string `json:"remoteId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchResult summarizes one DispatchDue invocation.
type BatchResult struct {
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Items     []Result `json:"items"`
}

type Dispatcher struct {
	reminders repo.ReminderRepository
	clients   repo.ClientDirectory
	sender    Sender

	now func() time.Time

	onSent   func(ctx context.Context, o Outcome) error
	onFailed func(ctx context.Context, o Outcome) error
}

func NewDispatcher(reminders repo.ReminderRepository, clients repo.ClientDirectory, sender Sender) *Dispatcher {
	return &Dispatcher{
		reminders: reminders,
		clients:   clients,
		sender:    sender,
		now:       time.Now,
	}
}

// WithHooks registers callbacks fired after an attempt settled; hook
// errors are logged and never affect the dispatch outcome.
func (d *Dispatcher) WithHooks(
	onSent func(ctx context.Context, o Outcome) error,
	onFailed func(ctx context.Context, o Outcome) error,
) *Dispatcher {
	d.onSent = onSent
	d.onFailed = onFailed
	return d
}

// WithClock overrides the dispatcher's time source.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// DispatchOne loads and dispatches a single reminder, scoped to the
// calling accountant. Terminal reminders are a no-op success. Errors are
// surfaced to the caller after the status transition is recorded.
func (d *Dispatcher) DispatchOne(ctx context.Context, reminderID, accountantID string) (Result, error) {
	rem, err := d.reminders.GetByID(ctx, reminderID, accountantID)
	if errors.Is(err, repo.ErrNotFound) {
		return Result{ReminderID: reminderID, Status: "failed", Error: ErrNotFound.Error()}, ErrNotFound
	}
	if err != nil {
		return Result{ReminderID: reminderID, Status: "failed", Error: err.Error()}, err
	}

	return d.process(ctx, rem)
}

// DispatchDue dispatches every pending reminder with due_at <= now,
// sequentially. An empty accountantID sweeps across all accountants.
// One reminder's failure never aborts the rest of the batch.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time, accountantID string) (BatchResult, error) {
	due, err := d.reminders.ListPendingDue(ctx, now, accountantID)
	if err != nil {
		return BatchResult{}, fmt.Errorf("listing due reminders: %w", err)
	}

	batch := BatchResult{Items: make([]Result, 0, len(due))}
	for _, rem := range due {
		res, err := d.process(ctx, rem)
		if err != nil {
			slog.Error("reminder dispatch failed",
				"reminder_id", rem.ID,
				"client_id", rem.ClientID,
				"err", err,
			)
		}

		batch.Processed++
		if res.Status == "failed" {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
		batch.Items = append(batch.Items, res)
	}

	return batch, nil
}

func (d *Dispatcher) process(ctx context.Context, rem model.Reminder) (Result, error) {
	if rem.Status.Terminal() {
		// Already sent or failed; re-dispatching is a no-op so the same
		// notification is never applied twice.
		return Result{ReminderID: rem.ID, Status: "skipped"}, nil
	}

	contact, err := d.clients.GetContactInfo(ctx, rem.ClientID)
	if errors.Is(err, repo.ErrNotFound) {
		// Client record missing: reported, but the reminder is left
		// pending rather than burned.
		return Result{ReminderID: rem.ID, Status: "failed", Error: ErrNotFound.Error()}, ErrNotFound
	}
	if err != nil {
		return Result{ReminderID: rem.ID, Status: "failed", Error: err.Error()}, err
	}

	to, err := d.recipient(rem.Type, contact)
	if err != nil {
		d.fail(ctx, rem, to, "", err.Error())
		return Result{ReminderID: rem.ID, Status: "failed", Error: err.Error()}, err
	}

	body := render.ReminderBody(render.ReminderEmail{
		ClientName:      contact.Name,
		ReminderTitle:   rem.Title,
		ReminderMessage: rem.Message,
		AccountantName:  contact.AccountantName,
		DueDate:         rem.DueAt,
	})

	// Claim the pending -> sent transition before invoking the sender.
	// The claim holds the row, so a concurrent attempt cannot send the
	// same reminder; it is only committed once the sender accepted.
	claim, err := d.reminders.ClaimForSend(ctx, rem.ID, d.now())
	if errors.Is(err, repo.ErrConflict) {
		return Result{ReminderID: rem.ID, Status: "skipped"}, nil
	}
	if err != nil {
		return Result{ReminderID: rem.ID, Status: "failed", Error: err.Error()}, err
	}

	remoteID, err := d.sender.Send(ctx, string(rem.Type), to, rem.Title, body)
	if err != nil {
		_ = claim.Rollback()
		sendErr := &SenderError{Reason: err.Error()}
		d.fail(ctx, rem, to, body, err.Error())
		return Result{ReminderID: rem.ID, Status: "failed", Error: sendErr.Error()}, sendErr
	}

	if err := claim.Commit(); err != nil {
		// The notification went out but the transition did not stick;
		// the reminder stays pending and may be attempted again.
		slog.Error("committing sent transition failed", "reminder_id", rem.ID, "err", err)
		return Result{ReminderID: rem.ID, Status: "failed", Error: err.Error()}, err
	}

	if d.onSent != nil {
		if err := d.onSent(ctx, Outcome{Reminder: rem, To: to, Body: body, RemoteID: remoteID}); err != nil {
			slog.Error("onSent hook failed", "reminder_id", rem.ID, "err", err)
		}
	}

	return Result{ReminderID: rem.ID, Status: "sent", RemoteID: remoteID}, nil
}

func (d *Dispatcher) recipient(t model.ReminderType, contact model.ClientContact) (string, error) {
	switch t {
	case model.TypeEmail:
		if contact.Email == nil || *contact.Email == "" {
			return "", ErrMissingContact
		}
		return *contact.Email, nil
	case model.TypeSMS:
		if contact.Phone == nil || *contact.Phone == "" {
			return "", ErrMissingContact
		}
		// No SMS sender is wired yet; fail instead of faking a send.
		return *contact.Phone, ErrUnsupportedType
	default:
		return "", ErrUnsupportedType
	}
}

// fail records the terminal failed transition and fires the hook. A
// conflict here means another attempt already settled the reminder.
func (d *Dispatcher) fail(ctx context.Context, rem model.Reminder, to, body, reason string) {
	if err := d.reminders.MarkFailed(ctx, rem.ID, reason); err != nil && !errors.Is(err, repo.ErrConflict) {
		slog.Error("marking reminder failed", "reminder_id", rem.ID, "err", err)
	}

	if d.onFailed != nil {
		if err := d.onFailed(ctx, Outcome{Reminder: rem, To: to, Body: body, Reason: reason}); err != nil {
			slog.Error("onFailed hook failed", "reminder_id", rem.ID, "err", err)
		}
	}
}
