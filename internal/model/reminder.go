package model

import "time"

type Status string

const (
	Pending Status = "pending"
	Sent    Status = "sent"
	Failed  Status = "failed"
)

// Terminal reports whether a reminder in this status may still transition.
// Only pending reminders are dispatchable; sent and failed are final.
func (s Status) Terminal() bool {
	return s == Sent || s == Failed
}

type ReminderType string

const (
	TypeEmail ReminderType = "email"
	TypeSMS   ReminderType = "sms"
	TypeInApp ReminderType = "in-app"
)

type Reminder struct {
	ID           string
	ClientID     string
	AccountantID string
	Title        string
	Message      string
	Type         ReminderType
	DueAt        time.Time
	Status       Status
	SentAt       *time.Time
	ErrorReason  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClientContact is the slice of a client record the dispatcher needs:
// a display name plus whatever addresses the client has on file.
type ClientContact struct {
	ID             string
	AccountantID   string
	Name           string
	Email          *string
	Phone          *string
	AccountantName string
}
