package render

import (
	"strings"
	"testing"
	"time"
)

func TestReminderBody_ContainsAllFields(t *testing.T) {
	t.Parallel()

	body := ReminderBody(ReminderEmail{
		ClientName:      "Acme Kft",
		ReminderTitle:   "Q1 VAT return",
		ReminderMessage: "Please upload your invoices.",
		AccountantName:  "Anna Books",
		DueDate:         time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"Reminder: Q1 VAT return",
		"Hello Acme Kft,",
		"Please upload your invoices.",
		"<strong>Due Date:</strong> 2024-01-28",
		"Anna Books",
		"client portal",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got:\n%s", want, body)
		}
	}
}

func TestReminderBody_OmitsZeroDueDate(t *testing.T) {
	t.Parallel()

	body := ReminderBody(ReminderEmail{
		ClientName:     "Acme Kft",
		ReminderTitle:  "t",
		AccountantName: "Anna Books",
	})

	if strings.Contains(body, "Due Date") {
		t.Fatalf("expected no due date section for zero time, got:\n%s", body)
	}
}

func TestReminderBody_IsDeterministic(t *testing.T) {
	t.Parallel()

	e := ReminderEmail{
		ClientName:      "Acme Kft",
		ReminderTitle:   "t",
		ReminderMessage: "m",
		AccountantName:  "Anna Books",
		DueDate:         time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC),
	}

	first := ReminderBody(e)
	for i := 0; i < 5; i++ {
		if got := ReminderBody(e); got != first {
			t.Fatalf("expected identical output on repeat render")
		}
	}
}

func TestDocumentCompletionBody(t *testing.T) {
	t.Parallel()

	body := DocumentCompletionBody(DocumentCompletionEmail{
		ClientName:     "Acme Kft",
		AccountantName: "Anna Books",
		DocumentType:   "Bank statements",
		Month:          "03",
		Year:           "2024",
	})

	for _, want := range []string{
		"Document Upload Completed",
		"Hello Anna Books,",
		"<strong>Acme Kft</strong>",
		"<strong>Document Type:</strong> Bank statements",
		"<strong>Period:</strong> 03/2024",
		"AccountFlow",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got:\n%s", want, body)
		}
	}
}
