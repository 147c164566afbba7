package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		specialty TEXT NOT NULL DEFAULT '',
		price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		experience INTEGER NOT NULL DEFAULT 0,
		gender TEXT NOT NULL DEFAULT '',
		certification TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT '',
		blood_group TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id UUID PRIMARY KEY,
		doctor_id UUID NOT NULL REFERENCES doctors(id),
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		booked BOOLEAN NOT NULL DEFAULT FALSE,
		patient_id UUID REFERENCES patients(id),
		status TEXT NOT NULL CHECK (status IN ('available', 'pending', 'completed', 'cancelled')),
		prescription JSONB,
		report TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_doctor_id ON slots (doctor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_patient_id ON slots (patient_id)`,
}

// Migrate creates the tables used by the repositories in one transaction.
// Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	base := NewBaseRepository(db)
	err := base.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Int("statements", len(schema)).Msg("postgres schema applied")
	return nil
}
