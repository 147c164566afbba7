// Package memory is a process-local Store for development and tests.
// Every write holds the store lock, which gives the same single-record
// atomicity as the database backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	doctors  map[uuid.UUID]model.Doctor
	patients map[uuid.UUID]model.Patient
	slots    map[uuid.UUID]model.Slot
}

func NewStore() *Store {
	return &Store{
		doctors:  make(map[uuid.UUID]model.Doctor),
		patients: make(map[uuid.UUID]model.Patient),
		slots:    make(map[uuid.UUID]model.Slot),
	}
}

func (s *Store) Doctors() repository.DoctorRepository   { return doctorRepository{s} }
func (s *Store) Patients() repository.PatientRepository { return patientRepository{s} }
func (s *Store) Slots() repository.SlotRepository       { return slotRepository{s} }

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

func stamp(b *model.Base) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
}

type doctorRepository struct{ s *Store }

func (r doctorRepository) Create(_ context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.doctors {
		if d.Email == doctor.Email {
			return fmt.Errorf("create doctor: %w", repository.ErrDuplicate)
		}
	}
	stamp(&doctor.Base)
	r.s.doctors[doctor.ID] = *doctor
	return nil
}

func (r doctorRepository) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, fmt.Errorf("get doctor: %w", repository.ErrNotFound)
	}
	return &d, nil
}

func (r doctorRepository) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.doctors {
		if d.Email == email {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("get doctor by email: %w", repository.ErrNotFound)
}

func (r doctorRepository) Update(_ context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[doctor.ID]; !ok {
		return fmt.Errorf("update doctor: %w", repository.ErrNotFound)
	}
	doctor.UpdatedAt = time.Now().UTC()
	r.s.doctors[doctor.ID] = *doctor
	return nil
}

func (r doctorRepository) List(_ context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doctors := make([]*model.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		if filters != nil && filters.Specialty != "" && !strings.EqualFold(d.Specialty, filters.Specialty) {
			continue
		}
		d := d
		doctors = append(doctors, &d)
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors, nil
}

type patientRepository struct{ s *Store }

func (r patientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.patients {
		if p.Email == patient.Email {
			return fmt.Errorf("create patient: %w", repository.ErrDuplicate)
		}
	}
	stamp(&patient.Base)
	r.s.patients[patient.ID] = *patient
	return nil
}

func (r patientRepository) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok {
		return nil, fmt.Errorf("get patient: %w", repository.ErrNotFound)
	}
	return &p, nil
}

func (r patientRepository) GetByEmail(_ context.Context, email string) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.patients {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("get patient by email: %w", repository.ErrNotFound)
}

func (r patientRepository) Update(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.patients[patient.ID]; !ok {
		return fmt.Errorf("update patient: %w", repository.ErrNotFound)
	}
	patient.UpdatedAt = time.Now().UTC()
	r.s.patients[patient.ID] = *patient
	return nil
}

type slotRepository struct{ s *Store }

// clone detaches the stored copy from pointers held by callers.
func clone(slot model.Slot) *model.Slot {
	if slot.PatientID != nil {
		pid := *slot.PatientID
		slot.PatientID = &pid
	}
	if slot.Prescription != nil {
		p := *slot.Prescription
		p.Medicines = append([]model.Medicine(nil), p.Medicines...)
		slot.Prescription = &p
	}
	return &slot
}

func (r slotRepository) Create(_ context.Context, slot *model.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stamp(&slot.Base)
	r.s.slots[slot.ID] = *clone(*slot)
	return nil
}

func (r slotRepository) Get(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return nil, fmt.Errorf("get slot: %w", repository.ErrNotFound)
	}
	return clone(slot), nil
}

func (r slotRepository) List(_ context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slots := make([]*model.Slot, 0)
	for _, slot := range r.s.slots {
		if filters != nil && !matches(slot, filters) {
			continue
		}
		slots = append(slots, clone(slot))
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Time < slots[j].Time
	})
	return slots, nil
}

func matches(slot model.Slot, f *model.SlotFilters) bool {
	if f.DoctorID != nil && slot.DoctorID != *f.DoctorID {
		return false
	}
	if f.PatientID != nil && (slot.PatientID == nil || *slot.PatientID != *f.PatientID) {
		return false
	}
	if f.Booked != nil && slot.Booked != *f.Booked {
		return false
	}
	if f.OnlyAvailable && (slot.Booked || slot.Status != model.SlotStatusAvailable) {
		return false
	}
	return true
}

func (r slotRepository) UpdateIfStatus(_ context.Context, slot *model.Slot, expected model.SlotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.slots[slot.ID]
	if !ok {
		return fmt.Errorf("update slot: %w", repository.ErrNotFound)
	}
	if stored.Status != expected {
		return fmt.Errorf("update slot: %w", repository.ErrStaleState)
	}

	slot.CreatedAt = stored.CreatedAt
	slot.DoctorID = stored.DoctorID
	slot.UpdatedAt = time.Now().UTC()
	r.s.slots[slot.ID] = *clone(*slot)
	return nil
}

func (r slotRepository) DeleteIfStatus(_ context.Context, id uuid.UUID, expected model.SlotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.slots[id]
	if !ok {
		return fmt.Errorf("delete slot: %w", repository.ErrNotFound)
	}
	if stored.Status != expected {
		return fmt.Errorf("delete slot: %w", repository.ErrStaleState)
	}
	delete(r.s.slots, id)
	return nil
}
