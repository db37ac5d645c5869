// Package events subscribes to document-completion events and notifies
// the owning accountant through the same sender the dispatcher uses.
// Keeping this out of the upload flow means the upload path never blocks
// on email delivery.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/accountflow/reminder-service/internal/dispatch"
	"github.com/accountflow/reminder-service/internal/render"
	"github.com/accountflow/reminder-service/internal/repo"
)

// DocumentCompletionEvent is published by the portal when a client marks
// a document type as fully uploaded for a period.
type DocumentCompletionEvent struct {
	ClientName      string `json:"clientName"`
	AccountantName  string `json:"accountantName"`
	AccountantEmail string `json:"accountantEmail"`
	DocumentType    string `json:"documentType"`
	Month           string `json:"month"`
	Year            string `json:"year"`
}

type Consumer struct {
	conn     *amqp.Connection
	queue    string
	sender   dispatch.Sender
	emailLog repo.EmailLogRepository
}

func NewConsumer(conn *amqp.Connection, queue string, sender dispatch.Sender, emailLog repo.EmailLogRepository) *Consumer {
	return &Consumer{
		conn:     conn,
		queue:    queue,
		sender:   sender,
		emailLog: emailLog,
	}
}

// Run declares the queue and consumes until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	slog.Info("document event consumer started", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			slog.Info("document event consumer stopping")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var ev DocumentCompletionEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		slog.Error("dropping malformed document event", "err", err)
		_ = d.Nack(false, false)
		return
	}

	if ev.AccountantEmail == "" {
		slog.Error("dropping document event without accountant email",
			"client", ev.ClientName, "document_type", ev.DocumentType)
		_ = d.Nack(false, false)
		return
	}

	subject := "Document upload completed: " + ev.DocumentType
	body := render.DocumentCompletionBody(render.DocumentCompletionEmail{
		ClientName:     ev.ClientName,
		AccountantName: ev.AccountantName,
		DocumentType:   ev.DocumentType,
		Month:          ev.Month,
		Year:           ev.Year,
	})

	remoteID, err := c.sender.Send(ctx, "email", ev.AccountantEmail, subject, body)
	if err != nil {
		slog.Error("sending document completion email failed",
			"to", ev.AccountantEmail, "err", err)
		c.log(ctx, ev, subject, body, "", err.Error())
		// Requeue once; the broker redelivers until it gives up.
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	c.log(ctx, ev, subject, body, remoteID, "")
	_ = d.Ack(false)
}

func (c *Consumer) log(ctx context.Context, ev DocumentCompletionEvent, subject, body, remoteID, sendErr string) {
	if c.emailLog == nil {
		return
	}

	l := repo.EmailLog{
		ID:      uuid.NewString(),
		To:      ev.AccountantEmail,
		Subject: subject,
		Body:    body,
		Kind:    "document_completion",
		Status:  "sent",
	}
	if remoteID != "" {
		l.RemoteID = &remoteID
	}
	if sendErr != "" {
		l.Status = "failed"
		l.Error = &sendErr
	}

	if err := c.emailLog.Insert(ctx, l); err != nil {
		slog.Error("recording document completion email failed", "err", err)
	}
}
