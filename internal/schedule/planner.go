package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/accountflow/reminder-service/internal/model"
	"github.com/accountflow/reminder-service/internal/repo"
)

// Planner walks clients with a known next invoice date and makes sure a
// pending reminder exists for each upcoming cycle. Safe to re-run: an
// existing pending reminder for the same client and due date is left
// alone.
type Planner struct {
	reminders repo.ReminderRepository
	settings  repo.SettingsRepository
	clients   repo.ClientDirectory
}

func NewPlanner(reminders repo.ReminderRepository, settings repo.SettingsRepository, clients repo.ClientDirectory) *Planner {
	return &Planner{
		reminders: reminders,
		settings:  settings,
		clients:   clients,
	}
}

// EnsureScheduled creates missing reminders for cycles whose due date has
// been reached relative to now. Accountants with reminders disabled are
// skipped entirely. Returns how many reminders were created.
func (p *Planner) EnsureScheduled(ctx context.Context, now time.Time) (int, error) {
	clients, err := p.clients.ListSchedulable(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing schedulable clients: %w", err)
	}

	// Settings are per accountant; fetch each at most once per sweep.
	settingsByAccountant := make(map[string]model.ReminderSettings)

	created := 0
	for _, c := range clients {
		if c.NextInvoiceDate == nil {
			continue
		}

		s, ok := settingsByAccountant[c.AccountantID]
		if !ok {
			s, err = p.settings.GetOrCreateDefault(ctx, c.AccountantID)
			if err != nil {
				slog.Error("loading reminder settings", "accountant_id", c.AccountantID, "err", err)
				continue
			}
			settingsByAccountant[c.AccountantID] = s
		}
		if !s.IsEnabled {
			continue
		}

		dueAt, err := DueDate(*c.NextInvoiceDate, c.InvoicingFrequency, s)
		if err != nil {
			slog.Error("computing reminder due date", "client_id", c.ID, "err", err)
			continue
		}
		if dueAt.After(now) {
			continue
		}

		exists, err := p.reminders.HasPendingFor(ctx, c.ID, dueAt)
		if err != nil {
			slog.Error("checking existing reminder", "client_id", c.ID, "err", err)
			continue
		}
		if exists {
			continue
		}

		rem := model.Reminder{
			ID:           uuid.NewString(),
			ClientID:     c.ID,
			AccountantID: c.AccountantID,
			Title:        fmt.Sprintf("Upcoming %s invoicing deadline", c.InvoicingFrequency),
			Message: fmt.Sprintf(
				"Your %s invoicing period ends on %s. Please upload any outstanding documents before then.",
				c.InvoicingFrequency, c.NextInvoiceDate.Format("2006-01-02"),
			),
			Type:   model.TypeEmail,
			DueAt:  dueAt,
			Status: model.Pending,
		}
		if err := p.reminders.Create(ctx, rem); err != nil {
			slog.Error("creating planned reminder", "client_id", c.ID, "err", err)
			continue
		}
		created++
	}

	if created > 0 {
		slog.Info("planned reminders created", "count", created)
	}
	return created, nil
}
