package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/accountflow/reminder-service/internal/model"
)

type PostgresSettingsRepo struct {
	db *sql.DB
}

func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

func (r *PostgresSettingsRepo) GetOrCreateDefault(ctx context.Context, accountantID string) (model.ReminderSettings, error) {
	s, err := r.get(ctx, accountantID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.ReminderSettings{}, err
	}

	// First access: persist the defaults. ON CONFLICT keeps this safe
	// against a concurrent first access for the same accountant.
	def := model.DefaultSettings(accountantID)
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO accountant_reminder_settings
			(accountant_id, is_enabled, monthly_days_before, quarterly_days_before, yearly_days_before, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (accountant_id) DO NOTHING
	`, def.AccountantID, def.IsEnabled, def.MonthlyDaysBefore, def.QuarterlyDaysBefore, def.YearlyDaysBefore); err != nil {
		return model.ReminderSettings{}, err
	}

	return r.get(ctx, accountantID)
}

func (r *PostgresSettingsRepo) Update(ctx context.Context, s model.ReminderSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE accountant_reminder_settings
		SET is_enabled = $2,
		    monthly_days_before = $3,
		    quarterly_days_before = $4,
		    yearly_days_before = $5,
		    updated_at = now()
		WHERE accountant_id = $1
	`, s.AccountantID, s.IsEnabled, s.MonthlyDaysBefore, s.QuarterlyDaysBefore, s.YearlyDaysBefore)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSettingsRepo) get(ctx context.Context, accountantID string) (model.ReminderSettings, error) {
	var s model.ReminderSettings
	err := r.db.QueryRowContext(ctx, `
		SELECT accountant_id, is_enabled, monthly_days_before, quarterly_days_before, yearly_days_before
		FROM accountant_reminder_settings
		WHERE accountant_id = $1
	`, accountantID).Scan(
		&s.AccountantID,
		&s.IsEnabled,
		&s.MonthlyDaysBefore,
		&s.QuarterlyDaysBefore,
		&s.YearlyDaysBefore,
	)
	return s, err
}
