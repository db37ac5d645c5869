package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/accountflow/reminder-service/internal/model"
)

type PostgresClientDirectory struct {
	db *sql.DB
}

func NewPostgresClientDirectory(db *sql.DB) *PostgresClientDirectory {
	return &PostgresClientDirectory{db: db}
}

func (r *PostgresClientDirectory) GetContactInfo(ctx context.Context, clientID string) (model.ClientContact, error) {
	var c model.ClientContact
	var email, phone, accountantName sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.accountant_id, c.name, c.email, c.phone, a.full_name
		FROM clients c
		JOIN accountants a ON a.id = c.accountant_id
		WHERE c.id = $1
	`, clientID).Scan(&c.ID, &c.AccountantID, &c.Name, &email, &phone, &accountantName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ClientContact{}, ErrNotFound
	}
	if err != nil {
		return model.ClientContact{}, err
	}

	if email.Valid {
		s := email.String
		c.Email = &s
	}
	if phone.Valid {
		s := phone.String
		c.Phone = &s
	}
	c.AccountantName = accountantName.String
	if c.AccountantName == "" {
		c.AccountantName = "Your Accountant"
	}
	return c, nil
}

func (r *PostgresClientDirectory) ListSchedulable(ctx context.Context) ([]model.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, accountant_id, name, invoicing_frequency, next_invoice_date
		FROM clients
		WHERE status = 'active' AND next_invoice_date IS NOT NULL
		ORDER BY next_invoice_date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		var freq string
		var next sql.NullTime
		if err := rows.Scan(&c.ID, &c.AccountantID, &c.Name, &freq, &next); err != nil {
			return nil, err
		}
		c.InvoicingFrequency = model.InvoicingFrequency(freq)
		if next.Valid {
			t := next.Time
			c.NextInvoiceDate = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
