package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState is returned by conditional writes when the stored status
	// no longer matches the expected one.
	ErrStaleState = errors.New("record changed concurrently")
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
	}

	SlotRepository interface {
		Create(ctx context.Context, slot *model.Slot) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error)
		// UpdateIfStatus writes slot only if the stored status still equals expected.
		UpdateIfStatus(ctx context.Context, slot *model.Slot, expected model.SlotStatus) error
		// DeleteIfStatus removes the slot only if the stored status still equals expected.
		DeleteIfStatus(ctx context.Context, id uuid.UUID, expected model.SlotStatus) error
	}
)

// Store bundles the repositories of one storage backend together with its lifecycle.
type Store interface {
	Doctors() DoctorRepository
	Patients() PatientRepository
	Slots() SlotRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
