package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

func TestListSlotsQuery(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()
	booked := true

	tests := []struct {
		name     string
		filters  *model.SlotFilters
		contains []string
		args     []interface{}
	}{
		{"no filters", nil, nil, nil},
		{
			"doctor and available",
			&model.SlotFilters{DoctorID: &doctorID, OnlyAvailable: true},
			[]string{"doctor_id = $1", "booked = FALSE AND status = $2"},
			[]interface{}{doctorID, model.SlotStatusAvailable},
		},
		{
			"patient and booked",
			&model.SlotFilters{PatientID: &patientID, Booked: &booked},
			[]string{"patient_id = $1", "booked = $2"},
			[]interface{}{patientID, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := listSlotsQuery(tt.filters)
			for _, fragment := range tt.contains {
				assert.Contains(t, query, fragment)
			}
			assert.Equal(t, tt.args, args)
			assert.Contains(t, query, "ORDER BY date ASC, time ASC")
		})
	}
}

// openTestDB connects to SLOTBOOK_TEST_POSTGRES_DSN and applies the schema.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("SLOTBOOK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SLOTBOOK_TEST_POSTGRES_DSN not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestSlotConditionalWrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewStore(db)

	doctor := &model.Doctor{Email: uuid.NewString() + "@clinic.test", Name: "Dr. Grey", PasswordHash: "x"}
	require.NoError(t, store.Doctors().Create(ctx, doctor))

	dup := &model.Doctor{Email: doctor.Email, Name: "Dr. Copy", PasswordHash: "x"}
	assert.ErrorIs(t, store.Doctors().Create(ctx, dup), repository.ErrDuplicate)

	slot := &model.Slot{DoctorID: doctor.ID, Date: "2024-06-02", Time: "10:00", Status: model.SlotStatusAvailable}
	require.NoError(t, store.Slots().Create(ctx, slot))

	t.Run("update", func(t *testing.T) {
		slot.Status = model.SlotStatusCancelled
		err := store.Slots().UpdateIfStatus(ctx, slot, model.SlotStatusPending)
		assert.ErrorIs(t, err, repository.ErrStaleState)

		missing := *slot
		missing.ID = uuid.New()
		err = store.Slots().UpdateIfStatus(ctx, &missing, model.SlotStatusAvailable)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		require.NoError(t, store.Slots().UpdateIfStatus(ctx, slot, model.SlotStatusAvailable))
		stored, err := store.Slots().Get(ctx, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusCancelled, stored.Status)
		assert.Nil(t, stored.Prescription)
	})

	t.Run("delete", func(t *testing.T) {
		err := store.Slots().DeleteIfStatus(ctx, slot.ID, model.SlotStatusAvailable)
		assert.ErrorIs(t, err, repository.ErrStaleState)

		err = store.Slots().DeleteIfStatus(ctx, uuid.New(), model.SlotStatusAvailable)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		require.NoError(t, store.Slots().DeleteIfStatus(ctx, slot.ID, model.SlotStatusCancelled))
		_, err = store.Slots().Get(ctx, slot.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
