// Package schedule turns invoicing-cycle boundaries into concrete
// reminder due dates and plans pending reminders for upcoming cycles.
package schedule

import (
	"fmt"
	"time"

	"github.com/accountflow/reminder-service/internal/model"
)

// DueDate computes when a reminder should fire for a cycle ending at
// cycleEnd: the configured lead time for the frequency, counted back in
// whole days. Pure computation, no side effects.
func DueDate(cycleEnd time.Time, freq model.InvoicingFrequency, settings model.ReminderSettings) (time.Time, error) {
	lead, err := settings.LeadDays(freq)
	if err != nil {
		return time.Time{}, fmt.Errorf("computing due date: %w", err)
	}
	return cycleEnd.AddDate(0, 0, -lead), nil
}
