// Package render builds notification bodies. Pure string assembly, no I/O,
// so the same inputs always produce the same body.
package render

import (
	"fmt"
	"strings"
	"time"
)

type ReminderEmail struct {
	ClientName      string
	ReminderTitle   string
	ReminderMessage string
	AccountantName  string
	DueDate         time.Time
}

func ReminderBody(e ReminderEmail) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">`)
	fmt.Fprintf(&b, `<h2 style="color: #333;">Reminder: %s</h2>`, e.ReminderTitle)
	fmt.Fprintf(&b, `<p>Hello %s,</p>`, e.ClientName)
	fmt.Fprintf(&b, `<p>%s</p>`, e.ReminderMessage)
	if !e.DueDate.IsZero() {
		fmt.Fprintf(&b, `<p><strong>Due Date:</strong> %s</p>`, e.DueDate.Format("2006-01-02"))
	}
	b.WriteString(`<p>Please log in to your client portal to take action.</p>`)
	fmt.Fprintf(&b, `<p>Best regards,<br>%s</p>`, e.AccountantName)
	b.WriteString(`</div>`)

	return b.String()
}

type DocumentCompletionEmail struct {
	ClientName     string
	AccountantName string
	DocumentType   string
	Month          string
	Year           string
}

func DocumentCompletionBody(e DocumentCompletionEmail) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">`)
	b.WriteString(`<h2 style="color: #333;">Document Upload Completed</h2>`)
	fmt.Fprintf(&b, `<p>Hello %s,</p>`, e.AccountantName)
	fmt.Fprintf(&b, `<p>Your client <strong>%s</strong> has marked the following document type as completed:</p>`, e.ClientName)
	b.WriteString(`<ul>`)
	fmt.Fprintf(&b, `<li><strong>Document Type:</strong> %s</li>`, e.DocumentType)
	fmt.Fprintf(&b, `<li><strong>Period:</strong> %s/%s</li>`, e.Month, e.Year)
	b.WriteString(`</ul>`)
	b.WriteString(`<p>You can review the uploaded documents in your accountant dashboard.</p>`)
	b.WriteString(`<p>Best regards,<br>AccountFlow</p>`)
	b.WriteString(`</div>`)

	return b.String()
}
