package slot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository/memory"
	"github.com/jwalitptl/slotbook-api/pkg/cache"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/metrics"
	"github.com/jwalitptl/slotbook-api/pkg/validator"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	svc      *Service
	metrics  *metrics.Metrics
	doctor   *model.Principal
	other    *model.Principal
	patient  *model.Principal
	patient2 *model.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	doctor := &model.Doctor{Email: "grey@example.com", Name: "Dr. Grey", Specialty: "Surgery", Price: 120, Experience: 9}
	require.NoError(t, store.Doctors().Create(ctx, doctor))
	otherDoctor := &model.Doctor{Email: "house@example.com", Name: "Dr. House"}
	require.NoError(t, store.Doctors().Create(ctx, otherDoctor))
	patient := &model.Patient{Email: "pat@example.com", Name: "Pat", City: "Pune", BloodGroup: "O+"}
	require.NoError(t, store.Patients().Create(ctx, patient))
	patient2 := &model.Patient{Email: "sam@example.com", Name: "Sam"}
	require.NoError(t, store.Patients().Create(ctx, patient2))

	m := metrics.NewMetrics("test")
	svc := NewService(store.Slots(), store.Doctors(), store.Patients(),
		cache.New[*model.DoctorSummary](time.Minute, time.Minute),
		cache.New[*model.PatientSummary](time.Minute, time.Minute),
		validator.New(), m)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{
		ctx:      ctx,
		svc:      svc,
		metrics:  m,
		doctor:   &model.Principal{ID: doctor.ID, Name: doctor.Name, Role: model.RoleDoctor},
		other:    &model.Principal{ID: otherDoctor.ID, Name: otherDoctor.Name, Role: model.RoleDoctor},
		patient:  &model.Principal{ID: patient.ID, Name: patient.Name, Role: model.RolePatient},
		patient2: &model.Principal{ID: patient2.ID, Name: patient2.Name, Role: model.RolePatient},
	}
}

func (f *fixture) createSlot(t *testing.T) *model.Slot {
	t.Helper()
	slot, err := f.svc.CreateSlot(f.ctx, f.doctor, &model.CreateSlotRequest{Date: "2024-06-10", Time: "10:00"})
	require.NoError(t, err)
	return slot
}

func (f *fixture) bookedSlot(t *testing.T) *model.Slot {
	t.Helper()
	slot := f.createSlot(t)
	booked, err := f.svc.BookSlot(f.ctx, f.patient, slot.ID)
	require.NoError(t, err)
	return booked
}

func validPrescription() *model.PrescriptionRequest {
	return &model.PrescriptionRequest{
		Medicines: []model.Medicine{
			{Name: "Paracetamol", Dosage: "500mg", Frequency: "3x daily", Duration: "5 days"},
		},
		Diagnosis:   "Fever",
		DoctorNotes: "Rest",
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.CodeOf(err), "unexpected error: %v", err)
}

func TestCreateSlot(t *testing.T) {
	f := newFixture(t)

	slot := f.createSlot(t)
	assert.Equal(t, model.SlotStatusAvailable, slot.Status)
	assert.False(t, slot.Booked)
	assert.Nil(t, slot.PatientID)
	assert.Equal(t, f.doctor.ID, slot.DoctorID)

	_, err := f.svc.CreateSlot(f.ctx, f.doctor, &model.CreateSlotRequest{Date: "2024-06-10"})
	assertCode(t, err, apperrors.ErrValidation)

	_, err = f.svc.CreateSlot(f.ctx, f.patient, &model.CreateSlotRequest{Date: "2024-06-10", Time: "10:00"})
	assertCode(t, err, apperrors.ErrUnauthorized)
}

func TestListSlotsForDoctor(t *testing.T) {
	f := newFixture(t)
	f.createSlot(t)
	f.bookedSlot(t)

	all, err := f.svc.ListSlotsForDoctor(f.ctx, f.doctor.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := f.svc.ListSlotsForDoctor(f.ctx, f.doctor.ID, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, model.SlotStatusAvailable, open[0].Status)

	none, err := f.svc.ListSlotsForDoctor(f.ctx, f.other.ID, false)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.createSlot(t)

	booked, err := f.svc.BookSlot(f.ctx, f.patient, slot.ID)
	require.NoError(t, err)
	assert.True(t, booked.Booked)
	require.NotNil(t, booked.PatientID)
	assert.Equal(t, f.patient.ID, *booked.PatientID)
	assert.Equal(t, model.SlotStatusPending, booked.Status)

	stored, err := f.svc.GetSlot(f.ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusPending, stored.Status)

	_, err = f.svc.BookSlot(f.ctx, f.patient2, slot.ID)
	assertCode(t, err, apperrors.ErrInvalidState)

	_, err = f.svc.BookSlot(f.ctx, f.patient, uuid.New())
	assertCode(t, err, apperrors.ErrNotFound)

	_, err = f.svc.BookSlot(f.ctx, f.doctor, slot.ID)
	assertCode(t, err, apperrors.ErrUnauthorized)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SlotTransitions.WithLabelValues("available", "pending")))
}

func TestBookSlotConcurrentlyHasOneWinner(t *testing.T) {
	f := newFixture(t)
	slot := f.createSlot(t)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &model.Principal{ID: uuid.New(), Role: model.RolePatient}
			_, err := f.svc.BookSlot(f.ctx, p, slot.ID)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if apperrors.Is(err, apperrors.ErrInvalidState) {
				losers++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, attempts-1, losers)
}

func TestCancelSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.bookedSlot(t)

	_, err := f.svc.CancelSlot(f.ctx, f.patient2, slot.ID)
	assertCode(t, err, apperrors.ErrUnauthorized)

	cancelled, err := f.svc.CancelSlot(f.ctx, f.patient, slot.ID)
	require.NoError(t, err)
	assert.False(t, cancelled.Booked)
	assert.Nil(t, cancelled.PatientID)
	assert.Equal(t, model.SlotStatusCancelled, cancelled.Status)

	// The patient no longer occupies the slot.
	_, err = f.svc.CancelSlot(f.ctx, f.patient, slot.ID)
	assertCode(t, err, apperrors.ErrUnauthorized)
}

func TestCancelCompletedSlotFails(t *testing.T) {
	f := newFixture(t)
	slot := f.bookedSlot(t)

	_, err := f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, validPrescription())
	require.NoError(t, err)

	_, err = f.svc.CancelSlot(f.ctx, f.patient, slot.ID)
	assertCode(t, err, apperrors.ErrInvalidState)

	stored, err := f.svc.GetSlot(f.ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCompleted, stored.Status)
	assert.True(t, stored.Booked)
}

func TestDeleteSlot(t *testing.T) {
	f := newFixture(t)

	t.Run("not available", func(t *testing.T) {
		slot := f.bookedSlot(t)
		err := f.svc.DeleteSlot(f.ctx, f.doctor, slot.ID)
		assertCode(t, err, apperrors.ErrInvalidState)
	})

	t.Run("not owner", func(t *testing.T) {
		slot := f.createSlot(t)
		err := f.svc.DeleteSlot(f.ctx, f.other, slot.ID)
		assertCode(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("available", func(t *testing.T) {
		slot := f.createSlot(t)
		require.NoError(t, f.svc.DeleteSlot(f.ctx, f.doctor, slot.ID))

		_, err := f.svc.GetSlot(f.ctx, slot.ID)
		assertCode(t, err, apperrors.ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		err := f.svc.DeleteSlot(f.ctx, f.doctor, uuid.New())
		assertCode(t, err, apperrors.ErrNotFound)
	})
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)

	t.Run("unknown status", func(t *testing.T) {
		slot := f.createSlot(t)
		_, err := f.svc.UpdateStatus(f.ctx, f.doctor, slot.ID, "archived")
		assertCode(t, err, apperrors.ErrValidation)
	})

	t.Run("illegal transition", func(t *testing.T) {
		slot := f.createSlot(t)
		_, err := f.svc.UpdateStatus(f.ctx, f.doctor, slot.ID, "completed")
		assertCode(t, err, apperrors.ErrInvalidState)
	})

	t.Run("not owner", func(t *testing.T) {
		slot := f.bookedSlot(t)
		_, err := f.svc.UpdateStatus(f.ctx, f.other, slot.ID, "completed")
		assertCode(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("pending to completed keeps patient", func(t *testing.T) {
		slot := f.bookedSlot(t)
		updated, err := f.svc.UpdateStatus(f.ctx, f.doctor, slot.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusCompleted, updated.Status)
		assert.True(t, updated.Booked)
		assert.True(t, updated.OccupiedBy(f.patient.ID))

		_, err = f.svc.UpdateStatus(f.ctx, f.doctor, slot.ID, "cancelled")
		assertCode(t, err, apperrors.ErrInvalidState)
	})

	t.Run("pending to cancelled releases patient", func(t *testing.T) {
		slot := f.bookedSlot(t)
		updated, err := f.svc.UpdateStatus(f.ctx, f.doctor, slot.ID, "cancelled")
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusCancelled, updated.Status)
		assert.False(t, updated.Booked)
		assert.Nil(t, updated.PatientID)
	})
}

func TestAddPrescription(t *testing.T) {
	f := newFixture(t)

	t.Run("validation", func(t *testing.T) {
		slot := f.bookedSlot(t)

		tests := []struct {
			name   string
			mutate func(req *model.PrescriptionRequest)
		}{
			{"no medicines", func(req *model.PrescriptionRequest) { req.Medicines = nil }},
			{"only incomplete medicine", func(req *model.PrescriptionRequest) { req.Medicines[0].Duration = "" }},
			{"only whitespace medicine", func(req *model.PrescriptionRequest) {
				req.Medicines = []model.Medicine{{Name: "  ", Dosage: " ", Frequency: " ", Duration: " "}}
			}},
			{"several partial medicines", func(req *model.PrescriptionRequest) {
				req.Medicines = []model.Medicine{{Name: "Ibuprofen"}, {Dosage: "200mg", Frequency: "daily", Duration: "3 days"}}
			}},
			{"blank diagnosis", func(req *model.PrescriptionRequest) { req.Diagnosis = "   " }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := validPrescription()
				tt.mutate(req)
				_, err := f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, req)
				assertCode(t, err, apperrors.ErrValidation)

				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, appErr.Message, err.Error())
			})
		}

		stored, err := f.svc.GetSlot(f.ctx, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusPending, stored.Status)
		assert.Nil(t, stored.Prescription)
	})

	t.Run("partial rows dropped alongside a complete one", func(t *testing.T) {
		slot := f.bookedSlot(t)

		req := validPrescription()
		req.Medicines = append(req.Medicines,
			model.Medicine{Name: "Ibuprofen"},
			model.Medicine{Name: " ", Dosage: " ", Frequency: " ", Duration: " "},
			model.Medicine{Name: " Cetirizine ", Dosage: "10mg", Frequency: "nightly", Duration: "7 days"},
		)

		updated, err := f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, req)
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusCompleted, updated.Status)
		require.Len(t, updated.Prescription.Medicines, 2)
		assert.Equal(t, "Paracetamol", updated.Prescription.Medicines[0].Name)
		assert.Equal(t, "Cetirizine", updated.Prescription.Medicines[1].Name)
	})

	t.Run("pending slot completes", func(t *testing.T) {
		slot := f.bookedSlot(t)

		updated, err := f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, validPrescription())
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusCompleted, updated.Status)
		require.NotNil(t, updated.Prescription)
		assert.Equal(t, fixedNow, updated.Prescription.PrescribedAt)
		assert.Equal(t, "Dr. Grey", updated.Prescription.PrescribedBy)
		assert.Equal(t, "Fever", updated.Prescription.Diagnosis)

		_, err = f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, validPrescription())
		assertCode(t, err, apperrors.ErrInvalidState)
	})

	t.Run("completed without prescription", func(t *testing.T) {
		slot := f.bookedSlot(t)
		_, err := f.svc.UpdateStatus(f.ctx, f.doctor, slot.ID, "completed")
		require.NoError(t, err)

		updated, err := f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, validPrescription())
		require.NoError(t, err)
		assert.True(t, updated.HasPrescription())
	})

	t.Run("available slot", func(t *testing.T) {
		slot := f.createSlot(t)
		_, err := f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, validPrescription())
		assertCode(t, err, apperrors.ErrInvalidState)
	})

	t.Run("not owner", func(t *testing.T) {
		slot := f.bookedSlot(t)
		_, err := f.svc.AddPrescription(f.ctx, f.other, slot.ID, validPrescription())
		assertCode(t, err, apperrors.ErrUnauthorized)
	})
}

func TestUpdatePrescription(t *testing.T) {
	f := newFixture(t)

	slot := f.bookedSlot(t)
	diagnosis := "Viral fever"
	_, err := f.svc.UpdatePrescription(f.ctx, f.doctor, slot.ID, &model.PrescriptionPatch{Diagnosis: &diagnosis})
	assertCode(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, validPrescription())
	require.NoError(t, err)

	updated, err := f.svc.UpdatePrescription(f.ctx, f.doctor, slot.ID, &model.PrescriptionPatch{Diagnosis: &diagnosis})
	require.NoError(t, err)
	assert.Equal(t, diagnosis, updated.Prescription.Diagnosis)
	assert.Len(t, updated.Prescription.Medicines, 1)
	assert.Equal(t, "Rest", updated.Prescription.DoctorNotes)
	assert.Equal(t, fixedNow, updated.Prescription.PrescribedAt)
	assert.Equal(t, "Dr. Grey", updated.Prescription.PrescribedBy)
	assert.Equal(t, model.SlotStatusCompleted, updated.Status)

	_, err = f.svc.UpdatePrescription(f.ctx, f.doctor, slot.ID, &model.PrescriptionPatch{Medicines: []model.Medicine{}})
	assertCode(t, err, apperrors.ErrValidation)

	_, err = f.svc.UpdatePrescription(f.ctx, f.doctor, slot.ID, &model.PrescriptionPatch{
		Medicines: []model.Medicine{{Name: "Ibuprofen"}, {Name: " ", Dosage: " ", Frequency: " ", Duration: " "}},
	})
	assertCode(t, err, apperrors.ErrValidation)

	updated, err = f.svc.UpdatePrescription(f.ctx, f.doctor, slot.ID, &model.PrescriptionPatch{
		Medicines: []model.Medicine{
			{Name: "Ibuprofen"},
			{Name: "Ibuprofen", Dosage: "400mg", Frequency: "2x daily", Duration: "3 days"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Prescription.Medicines, 1)
	assert.Equal(t, "400mg", updated.Prescription.Medicines[0].Dosage)
	assert.Equal(t, diagnosis, updated.Prescription.Diagnosis)

	_, err = f.svc.UpdatePrescription(f.ctx, f.other, slot.ID, &model.PrescriptionPatch{Diagnosis: &diagnosis})
	assertCode(t, err, apperrors.ErrUnauthorized)
}

func TestGetPrescription(t *testing.T) {
	f := newFixture(t)
	slot := f.bookedSlot(t)

	_, err := f.svc.GetPrescription(f.ctx, f.patient, slot.ID)
	assertCode(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AddPrescription(f.ctx, f.doctor, slot.ID, validPrescription())
	require.NoError(t, err)

	got, err := f.svc.GetPrescription(f.ctx, f.patient, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fever", got.Diagnosis)

	got, err = f.svc.GetPrescription(f.ctx, f.doctor, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fever", got.Diagnosis)

	_, err = f.svc.GetPrescription(f.ctx, f.patient2, slot.ID)
	assertCode(t, err, apperrors.ErrUnauthorized)

	_, err = f.svc.GetPrescription(f.ctx, f.other, slot.ID)
	assertCode(t, err, apperrors.ErrUnauthorized)
}

func TestListBookingsAndAppointments(t *testing.T) {
	f := newFixture(t)
	f.createSlot(t)
	booked := f.bookedSlot(t)

	bookings, err := f.svc.ListBookingsForPatient(f.ctx, f.patient)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, booked.ID, bookings[0].ID)
	require.NotNil(t, bookings[0].Doctor)
	assert.Equal(t, "Dr. Grey", bookings[0].Doctor.Name)
	assert.Equal(t, "Surgery", bookings[0].Doctor.Specialty)
	assert.Equal(t, 1, f.svc.doctorDir.Len())

	empty, err := f.svc.ListBookingsForPatient(f.ctx, f.patient2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	appointments, err := f.svc.ListAppointmentsForDoctor(f.ctx, f.doctor)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	require.NotNil(t, appointments[0].Patient)
	assert.Equal(t, "Pat", appointments[0].Patient.Name)
	assert.Equal(t, "O+", appointments[0].Patient.BloodGroup)

	_, err = f.svc.ListBookingsForPatient(f.ctx, f.doctor)
	assertCode(t, err, apperrors.ErrUnauthorized)
	_, err = f.svc.ListAppointmentsForDoctor(f.ctx, f.patient)
	assertCode(t, err, apperrors.ErrUnauthorized)
}

func TestReopenAndDeleteScenario(t *testing.T) {
	f := newFixture(t)

	slot := f.createSlot(t)
	_, err := f.svc.BookSlot(f.ctx, f.patient, slot.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.CancelSlot(f.ctx, f.patient, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCancelled, cancelled.Status)

	// Cancelled slots cannot be deleted until reopened.
	err = f.svc.DeleteSlot(f.ctx, f.doctor, slot.ID)
	assertCode(t, err, apperrors.ErrInvalidState)

	reopened, err := f.svc.UpdateStatus(f.ctx, f.doctor, slot.ID, "available")
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusAvailable, reopened.Status)
	assert.False(t, reopened.Booked)

	require.NoError(t, f.svc.DeleteSlot(f.ctx, f.doctor, slot.ID))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SlotTransitions.WithLabelValues("pending", "cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SlotTransitions.WithLabelValues("cancelled", "available")))
}
