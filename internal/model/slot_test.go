package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to SlotStatus
		allowed  bool
	}{
		{SlotStatusPending, SlotStatusCompleted, true},
		{SlotStatusPending, SlotStatusCancelled, true},
		{SlotStatusCancelled, SlotStatusAvailable, true},
		{SlotStatusAvailable, SlotStatusPending, false},
		{SlotStatusAvailable, SlotStatusCompleted, false},
		{SlotStatusCompleted, SlotStatusCancelled, false},
		{SlotStatusCompleted, SlotStatusAvailable, false},
		{SlotStatusCancelled, SlotStatusPending, false},
		{SlotStatusPending, SlotStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseSlotStatus(t *testing.T) {
	status, err := ParseSlotStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, SlotStatusCancelled, status)

	_, err = ParseSlotStatus("booked")
	assert.Error(t, err)

	_, err = ParseSlotStatus("")
	assert.Error(t, err)
}

func TestSlotOccupancy(t *testing.T) {
	doctorID, patientID := uuid.New(), uuid.New()
	slot := &Slot{DoctorID: doctorID, Booked: true, PatientID: &patientID, Status: SlotStatusPending}

	assert.True(t, slot.OwnedBy(doctorID))
	assert.False(t, slot.OwnedBy(patientID))
	assert.True(t, slot.OccupiedBy(patientID))
	assert.False(t, slot.OccupiedBy(uuid.New()))

	slot.Release()
	assert.False(t, slot.Booked)
	assert.Nil(t, slot.PatientID)
	assert.False(t, slot.OccupiedBy(patientID))
}

func TestPrescriptionScan(t *testing.T) {
	original := Prescription{
		Medicines: []Medicine{
			{Name: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily", Duration: "7 days"},
		},
		Diagnosis:    "Sinusitis",
		PrescribedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		PrescribedBy: "Dr. Grey",
	}

	value, err := original.Value()
	require.NoError(t, err)
	require.IsType(t, "", value)

	var scanned Prescription
	require.NoError(t, scanned.Scan([]byte(value.(string))))
	assert.Equal(t, original, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestHasPrescription(t *testing.T) {
	slot := &Slot{}
	assert.False(t, slot.HasPrescription())

	slot.Prescription = &Prescription{Diagnosis: "x"}
	assert.False(t, slot.HasPrescription())

	slot.Prescription.Medicines = []Medicine{{Name: "a"}}
	assert.True(t, slot.HasPrescription())
}
