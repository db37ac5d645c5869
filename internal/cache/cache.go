package cache

import (
	"context"
	"time"
)

// ReceiptCache keeps a short-lived record of dispatched reminders so the
// dashboard can show delivery receipts without hitting Postgres.
type ReceiptCache interface {
	StoreReceipt(ctx context.Context, reminderID, remoteID string, sentAt time.Time) error
	GetReceipt(ctx context.Context, reminderID string) (Receipt, bool, error)
}

type Receipt struct {
	RemoteID string    `json:"remoteId"`
	SentAt   time.Time `json:"sentAt"`
}
