package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/accountflow/reminder-service/internal/model"
)

type PostgresReminderRepo struct {
	db *sql.DB
}

func NewPostgresReminderRepo(db *sql.DB) *PostgresReminderRepo {
	return &PostgresReminderRepo{db: db}
}

const reminderColumns = `
	id, client_id, accountant_id, title, message, reminder_type,
	due_at, status, sent_at, error_reason, created_at, updated_at
`

func (r *PostgresReminderRepo) Create(ctx context.Context, rem model.Reminder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders
			(id, client_id, accountant_id, title, message, reminder_type, due_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', now(), now())
	`, rem.ID, rem.ClientID, rem.AccountantID, rem.Title, rem.Message, string(rem.Type), rem.DueAt.UTC())
	return err
}

func (r *PostgresReminderRepo) GetByID(ctx context.Context, id, accountantID string) (model.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`
	args := []any{id}
	if accountantID != "" {
		query += ` AND accountant_id = $2`
		args = append(args, accountantID)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reminder{}, ErrNotFound
	}
	return rem, err
}

func (r *PostgresReminderRepo) ListPendingDue(ctx context.Context, now time.Time, accountantID string) ([]model.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE status = 'pending' AND due_at <= $1
	`
	args := []any{now.UTC()}
	if accountantID != "" {
		query += ` AND accountant_id = $2`
		args = append(args, accountantID)
	}
	query += ` ORDER BY due_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (r *PostgresReminderRepo) ClaimForSend(ctx context.Context, id string, sentAt time.Time) (DispatchClaim, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}

	// Conditional update: only a still-pending reminder may become sent.
	// The row lock is held until Commit/Rollback, so a racing attempt
	// waits here and then matches zero rows.
	res, err := tx.ExecContext(ctx, `
		UPDATE reminders
		SET status = 'sent',
		    sent_at = $2,
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, sentAt.UTC())
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := oneRowOrConflict(res); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	return &pgDispatchClaim{tx: tx}, nil
}

type pgDispatchClaim struct {
	tx *sql.Tx
}

func (c *pgDispatchClaim) Commit() error   { return c.tx.Commit() }
func (c *pgDispatchClaim) Rollback() error { return c.tx.Rollback() }

func (r *PostgresReminderRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders
		SET status = 'failed',
		    error_reason = $2,
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, reason)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

func (r *PostgresReminderRepo) HasPendingFor(ctx context.Context, clientID string, dueAt time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE client_id = $1 AND status = 'pending' AND due_at = $2
		)
	`, clientID, dueAt.UTC()).Scan(&exists)
	return exists, err
}

func (r *PostgresReminderRepo) ListSent(ctx context.Context, limit, offset int) ([]model.Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE status = 'sent'
		ORDER BY sent_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func oneRowOrConflict(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (model.Reminder, error) {
	var rem model.Reminder
	var rtype, status string
	var sentAt sql.NullTime
	var errorReason sql.NullString

	if err := row.Scan(
		&rem.ID,
		&rem.ClientID,
		&rem.AccountantID,
		&rem.Title,
		&rem.Message,
		&rtype,
		&rem.DueAt,
		&status,
		&sentAt,
		&errorReason,
		&rem.CreatedAt,
		&rem.UpdatedAt,
	); err != nil {
		return model.Reminder{}, err
	}

	rem.Type = model.ReminderType(rtype)
	rem.Status = model.Status(status)

	if sentAt.Valid {
		t := sentAt.Time
		rem.SentAt = &t
	}
	if errorReason.Valid {
		s := errorReason.String
		rem.ErrorReason = &s
	}
	return rem, nil
}

func scanReminders(rows *sql.Rows) ([]model.Reminder, error) {
	var out []model.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}
