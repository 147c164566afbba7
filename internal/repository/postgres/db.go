package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/slotbook-api/internal/config"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

func NewDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

type store struct {
	db       *sqlx.DB
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	slots    repository.SlotRepository
}

// NewStore wraps an open connection pool. Close releases it.
func NewStore(db *sqlx.DB) repository.Store {
	base := NewBaseRepository(db)
	return &store{
		db:       db,
		doctors:  NewDoctorRepository(base),
		patients: NewPatientRepository(base),
		slots:    NewSlotRepository(base),
	}
}

func (s *store) Doctors() repository.DoctorRepository   { return s.doctors }
func (s *store) Patients() repository.PatientRepository { return s.patients }
func (s *store) Slots() repository.SlotRepository       { return s.slots }

func (s *store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *store) Close(_ context.Context) error {
	return s.db.Close()
}
