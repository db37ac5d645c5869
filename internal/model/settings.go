package model

import (
	"fmt"
	"time"
)

type InvoicingFrequency string

const (
	Monthly   InvoicingFrequency = "monthly"
	Quarterly InvoicingFrequency = "quarterly"
	Yearly    InvoicingFrequency = "yearly"
)

// ReminderSettings holds one accountant's lead times, in days before the
// end of a client's invoicing cycle.
type ReminderSettings struct {
	AccountantID        string
	IsEnabled           bool
	MonthlyDaysBefore   int
	QuarterlyDaysBefore int
	YearlyDaysBefore    int
}

func DefaultSettings(accountantID string) ReminderSettings {
	return ReminderSettings{
		AccountantID:        accountantID,
		IsEnabled:           true,
		MonthlyDaysBefore:   3,
		QuarterlyDaysBefore: 14,
		YearlyDaysBefore:    30,
	}
}

// Validate checks the per-frequency lead time ranges.
func (s ReminderSettings) Validate() error {
	if s.MonthlyDaysBefore < 1 || s.MonthlyDaysBefore > 15 {
		return fmt.Errorf("monthly_days_before must be between 1 and 15, got %d", s.MonthlyDaysBefore)
	}
	if s.QuarterlyDaysBefore < 1 || s.QuarterlyDaysBefore > 30 {
		return fmt.Errorf("quarterly_days_before must be between 1 and 30, got %d", s.QuarterlyDaysBefore)
	}
	if s.YearlyDaysBefore < 1 || s.YearlyDaysBefore > 60 {
		return fmt.Errorf("yearly_days_before must be between 1 and 60, got %d", s.YearlyDaysBefore)
	}
	return nil
}

// LeadDays selects the lead time for a frequency.
func (s ReminderSettings) LeadDays(freq InvoicingFrequency) (int, error) {
	switch freq {
	case Monthly:
		return s.MonthlyDaysBefore, nil
	case Quarterly:
		return s.QuarterlyDaysBefore, nil
	case Yearly:
		return s.YearlyDaysBefore, nil
	default:
		return 0, fmt.Errorf("unknown invoicing frequency %q", freq)
	}
}

// Client is the subset of a client record the planner reads when deciding
// whether an upcoming invoicing boundary needs a reminder.
type Client struct {
	ID                 string
	AccountantID       string
	Name               string
	InvoicingFrequency InvoicingFrequency
	NextInvoiceDate    *time.Time
}
