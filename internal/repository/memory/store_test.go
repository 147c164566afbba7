package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

func TestSlotConditionalWrites(t *testing.T) {
	ctx := context.Background()
	slots := NewStore().Slots()

	slot := &model.Slot{DoctorID: uuid.New(), Date: "2024-05-01", Time: "09:00", Status: model.SlotStatusAvailable}
	require.NoError(t, slots.Create(ctx, slot))
	require.NotEqual(t, uuid.Nil, slot.ID)

	slot.Status = model.SlotStatusPending
	require.NoError(t, slots.UpdateIfStatus(ctx, slot, model.SlotStatusAvailable))

	// A second writer that still believes the slot is available loses.
	err := slots.UpdateIfStatus(ctx, slot, model.SlotStatusAvailable)
	assert.ErrorIs(t, err, repository.ErrStaleState)

	err = slots.DeleteIfStatus(ctx, slot.ID, model.SlotStatusAvailable)
	assert.ErrorIs(t, err, repository.ErrStaleState)

	err = slots.DeleteIfStatus(ctx, uuid.New(), model.SlotStatusAvailable)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := slots.Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusPending, stored.Status)
}

func TestSlotListFilters(t *testing.T) {
	ctx := context.Background()
	slots := NewStore().Slots()
	doctorID, patientID := uuid.New(), uuid.New()

	open := &model.Slot{DoctorID: doctorID, Date: "2024-05-02", Time: "10:00", Status: model.SlotStatusAvailable}
	taken := &model.Slot{DoctorID: doctorID, Date: "2024-05-01", Time: "10:00", Booked: true, PatientID: &patientID, Status: model.SlotStatusPending}
	elsewhere := &model.Slot{DoctorID: uuid.New(), Date: "2024-05-01", Time: "08:00", Status: model.SlotStatusAvailable}
	for _, s := range []*model.Slot{open, taken, elsewhere} {
		require.NoError(t, slots.Create(ctx, s))
	}

	all, err := slots.List(ctx, &model.SlotFilters{DoctorID: &doctorID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, taken.ID, all[0].ID, "ordered by date then time")

	available, err := slots.List(ctx, &model.SlotFilters{DoctorID: &doctorID, OnlyAvailable: true})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, open.ID, available[0].ID)

	booked := true
	mine, err := slots.List(ctx, &model.SlotFilters{PatientID: &patientID, Booked: &booked})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, taken.ID, mine[0].ID)
}

func TestReturnedSlotsAreCopies(t *testing.T) {
	ctx := context.Background()
	slots := NewStore().Slots()
	patientID := uuid.New()

	slot := &model.Slot{DoctorID: uuid.New(), Date: "d", Time: "t", Booked: true, PatientID: &patientID, Status: model.SlotStatusPending}
	require.NoError(t, slots.Create(ctx, slot))

	got, err := slots.Get(ctx, slot.ID)
	require.NoError(t, err)
	got.Status = model.SlotStatusCompleted
	*got.PatientID = uuid.New()

	again, err := slots.Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusPending, again.Status)
	assert.Equal(t, patientID, *again.PatientID)
}

func TestIdentityUniqueEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Doctors().Create(ctx, &model.Doctor{Email: "a@example.com", Name: "A"}))
	err := store.Doctors().Create(ctx, &model.Doctor{Email: "a@example.com", Name: "B"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// Doctors and patients are separate collections.
	require.NoError(t, store.Patients().Create(ctx, &model.Patient{Email: "a@example.com", Name: "P"}))

	_, err = store.Patients().GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDoctorListBySpecialty(t *testing.T) {
	ctx := context.Background()
	doctors := NewStore().Doctors()

	require.NoError(t, doctors.Create(ctx, &model.Doctor{Email: "b@example.com", Name: "Bea", Specialty: "Cardiology"}))
	require.NoError(t, doctors.Create(ctx, &model.Doctor{Email: "a@example.com", Name: "Al", Specialty: "cardiology"}))
	require.NoError(t, doctors.Create(ctx, &model.Doctor{Email: "c@example.com", Name: "Cy", Specialty: "Dermatology"}))

	found, err := doctors.List(ctx, &model.DoctorFilters{Specialty: "CARDIOLOGY"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Al", found[0].Name)
	assert.Equal(t, "Bea", found[1].Name)
}
