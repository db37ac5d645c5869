package repo

import (
	"context"
	"database/sql"
)

type PostgresEmailLogRepo struct {
	db *sql.DB
}

func NewPostgresEmailLogRepo(db *sql.DB) *PostgresEmailLogRepo {
	return &PostgresEmailLogRepo{db: db}
}

func (r *PostgresEmailLogRepo) Insert(ctx context.Context, l EmailLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_logs
			(id, to_email, subject, body, kind, status, remote_id, error_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	`, l.ID, l.To, l.Subject, l.Body, l.Kind, l.Status, l.RemoteID, l.Error)
	return err
}

func (r *PostgresEmailLogRepo) ListRecent(ctx context.Context, limit, offset int) ([]EmailLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, to_email, subject, body, kind, status, remote_id, error_reason, created_at
		FROM email_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmailLog
	for rows.Next() {
		var l EmailLog
		var remoteID, errReason sql.NullString
		if err := rows.Scan(&l.ID, &l.To, &l.Subject, &l.Body, &l.Kind, &l.Status, &remoteID, &errReason, &l.CreatedAt); err != nil {
			return nil, err
		}
		if remoteID.Valid {
			s := remoteID.String
			l.RemoteID = &s
		}
		if errReason.Valid {
			s := errReason.String
			l.Error = &s
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
