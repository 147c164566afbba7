package slot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
	"github.com/jwalitptl/slotbook-api/internal/service"
	"github.com/jwalitptl/slotbook-api/pkg/cache"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/metrics"
	"github.com/jwalitptl/slotbook-api/pkg/validator"
)

const resourceSlot = "slot"

type SlotService interface {
	CreateSlot(ctx context.Context, doctor *model.Principal, req *model.CreateSlotRequest) (*model.Slot, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	ListSlotsForDoctor(ctx context.Context, doctorID uuid.UUID, onlyAvailable bool) ([]*model.Slot, error)
	BookSlot(ctx context.Context, patient *model.Principal, slotID uuid.UUID) (*model.Slot, error)
	CancelSlot(ctx context.Context, patient *model.Principal, slotID uuid.UUID) (*model.Slot, error)
	DeleteSlot(ctx context.Context, doctor *model.Principal, slotID uuid.UUID) error
	UpdateStatus(ctx context.Context, doctor *model.Principal, slotID uuid.UUID, status string) (*model.Slot, error)
	AddPrescription(ctx context.Context, doctor *model.Principal, slotID uuid.UUID, req *model.PrescriptionRequest) (*model.Slot, error)
	UpdatePrescription(ctx context.Context, doctor *model.Principal, slotID uuid.UUID, patch *model.PrescriptionPatch) (*model.Slot, error)
	GetPrescription(ctx context.Context, principal *model.Principal, slotID uuid.UUID) (*model.Prescription, error)
	ListBookingsForPatient(ctx context.Context, patient *model.Principal) ([]*model.Booking, error)
	ListAppointmentsForDoctor(ctx context.Context, doctor *model.Principal) ([]*model.Appointment, error)
}

// Service guards every slot state change. Writes are conditional on the
// status that was read, so two callers racing on one slot cannot both win.
type Service struct {
	slots      repository.SlotRepository
	doctors    repository.DoctorRepository
	patients   repository.PatientRepository
	doctorDir  *cache.Cache[*model.DoctorSummary]
	patientDir *cache.Cache[*model.PatientSummary]
	validator  validator.Validator
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewService(
	slots repository.SlotRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	doctorDir *cache.Cache[*model.DoctorSummary],
	patientDir *cache.Cache[*model.PatientSummary],
	v validator.Validator,
	m *metrics.Metrics,
) *Service {
	return &Service{
		slots:      slots,
		doctors:    doctors,
		patients:   patients,
		doctorDir:  doctorDir,
		patientDir: patientDir,
		validator:  v,
		metrics:    m,
		now:        time.Now,
	}
}

func (s *Service) CreateSlot(ctx context.Context, doctor *model.Principal, req *model.CreateSlotRequest) (*model.Slot, error) {
	if !doctor.IsDoctor() {
		return nil, apperrors.Unauthorized("only doctors can create slots")
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return nil, apperrors.Validation("date and time are required", nil)
	}

	slot := &model.Slot{
		DoctorID: doctor.ID,
		Date:     req.Date,
		Time:     req.Time,
		Booked:   false,
		Status:   model.SlotStatusAvailable,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, service.FromRepository(resourceSlot, err)
	}

	log.Info().Str("slot_id", slot.ID.String()).Str("doctor_id", doctor.ID.String()).Msg("slot created")
	return slot, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, err := s.slots.Get(ctx, id)
	if err != nil {
		return nil, service.FromRepository(resourceSlot, err)
	}
	return slot, nil
}

// ListSlotsForDoctor returns every slot of the doctor, or only the bookable
// ones when onlyAvailable is set.
func (s *Service) ListSlotsForDoctor(ctx context.Context, doctorID uuid.UUID, onlyAvailable bool) ([]*model.Slot, error) {
	slots, err := s.slots.List(ctx, &model.SlotFilters{
		DoctorID:      &doctorID,
		OnlyAvailable: onlyAvailable,
	})
	if err != nil {
		return nil, service.FromRepository(resourceSlot, err)
	}
	return slots, nil
}

func (s *Service) BookSlot(ctx context.Context, patient *model.Principal, slotID uuid.UUID) (*model.Slot, error) {
	if !patient.IsPatient() {
		return nil, apperrors.Unauthorized("only patients can book slots")
	}

	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != model.SlotStatusAvailable || slot.Booked {
		s.observeBooking("unavailable")
		return nil, apperrors.InvalidState("slot is not available")
	}

	patientID := patient.ID
	slot.Booked = true
	slot.PatientID = &patientID
	slot.Status = model.SlotStatusPending

	if err := s.commit(ctx, slot, model.SlotStatusAvailable); err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidState) {
			s.observeBooking("lost_race")
			return nil, apperrors.InvalidState("slot is not available")
		}
		return nil, err
	}

	s.observeBooking("booked")
	return slot, nil
}

func (s *Service) CancelSlot(ctx context.Context, patient *model.Principal, slotID uuid.UUID) (*model.Slot, error) {
	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !patient.IsPatient() || !slot.OccupiedBy(patient.ID) {
		return nil, apperrors.Unauthorized("you are not booked into this slot")
	}
	if slot.Status == model.SlotStatusCompleted {
		return nil, apperrors.InvalidState("a completed appointment cannot be cancelled")
	}
	if slot.Status != model.SlotStatusPending {
		return nil, apperrors.InvalidState(fmt.Sprintf("slot cannot be cancelled while %s", slot.Status))
	}

	from := slot.Status
	slot.Status = model.SlotStatusCancelled
	slot.Release()

	if err := s.commit(ctx, slot, from); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) DeleteSlot(ctx context.Context, doctor *model.Principal, slotID uuid.UUID) error {
	slot, err := s.ownedSlot(ctx, doctor, slotID)
	if err != nil {
		return err
	}
	if slot.Status != model.SlotStatusAvailable {
		return apperrors.InvalidState("only available slots can be deleted")
	}

	if err := s.slots.DeleteIfStatus(ctx, slotID, model.SlotStatusAvailable); err != nil {
		return service.FromRepository(resourceSlot, err)
	}

	log.Info().Str("slot_id", slotID.String()).Msg("slot deleted")
	return nil
}

// UpdateStatus applies a doctor-requested transition. Cancelling releases the
// patient; reopening a cancelled slot makes it bookable again.
func (s *Service) UpdateStatus(ctx context.Context, doctor *model.Principal, slotID uuid.UUID, status string) (*model.Slot, error) {
	next, err := model.ParseSlotStatus(status)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	slot, err := s.ownedSlot(ctx, doctor, slotID)
	if err != nil {
		return nil, err
	}

	from := slot.Status
	if !from.CanTransitionTo(next) {
		return nil, apperrors.InvalidState(fmt.Sprintf("cannot move slot from %s to %s", from, next))
	}

	slot.Status = next
	switch next {
	case model.SlotStatusCancelled, model.SlotStatusAvailable:
		slot.Release()
	}

	if err := s.commit(ctx, slot, from); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) AddPrescription(ctx context.Context, doctor *model.Principal, slotID uuid.UUID, req *model.PrescriptionRequest) (*model.Slot, error) {
	slot, err := s.ownedSlot(ctx, doctor, slotID)
	if err != nil {
		return nil, err
	}

	switch {
	case slot.Status == model.SlotStatusPending:
	case slot.Status == model.SlotStatusCompleted && !slot.HasPrescription():
	default:
		return nil, apperrors.InvalidState(fmt.Sprintf("cannot prescribe for a %s slot", slot.Status))
	}

	prescription := &model.Prescription{
		Medicines:    model.CompleteMedicines(req.Medicines),
		Diagnosis:    strings.TrimSpace(req.Diagnosis),
		DoctorNotes:  req.DoctorNotes,
		FollowUpDate: req.FollowUpDate,
		PrescribedAt: s.now().UTC(),
		PrescribedBy: doctor.Name,
	}
	if err := s.validator.Validate(prescription); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	from := slot.Status
	slot.Prescription = prescription
	slot.Status = model.SlotStatusCompleted

	if err := s.commit(ctx, slot, from); err != nil {
		return nil, err
	}
	return slot, nil
}

// UpdatePrescription merges patch into the stored prescription. Fields left
// nil keep their stored values; the merged result must still hold at least
// one complete medicine.
func (s *Service) UpdatePrescription(ctx context.Context, doctor *model.Principal, slotID uuid.UUID, patch *model.PrescriptionPatch) (*model.Slot, error) {
	slot, err := s.ownedSlot(ctx, doctor, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Prescription == nil {
		return nil, apperrors.NotFound("prescription", nil)
	}

	merged := mergePrescription(*slot.Prescription, patch)
	if err := s.validator.Validate(&merged); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	slot.Prescription = &merged
	if err := s.commit(ctx, slot, slot.Status); err != nil {
		return nil, err
	}
	return slot, nil
}

func mergePrescription(p model.Prescription, patch *model.PrescriptionPatch) model.Prescription {
	if patch == nil {
		return p
	}
	if patch.Medicines != nil {
		p.Medicines = model.CompleteMedicines(patch.Medicines)
	}
	if patch.Diagnosis != nil {
		p.Diagnosis = strings.TrimSpace(*patch.Diagnosis)
	}
	if patch.DoctorNotes != nil {
		p.DoctorNotes = *patch.DoctorNotes
	}
	if patch.FollowUpDate != nil {
		p.FollowUpDate = *patch.FollowUpDate
	}
	if patch.PrescribedAt != nil {
		p.PrescribedAt = *patch.PrescribedAt
	}
	if patch.PrescribedBy != nil {
		p.PrescribedBy = *patch.PrescribedBy
	}
	return p
}

// GetPrescription is readable by the booked patient and the owning doctor.
func (s *Service) GetPrescription(ctx context.Context, principal *model.Principal, slotID uuid.UUID) (*model.Prescription, error) {
	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	allowed := (principal.IsPatient() && slot.OccupiedBy(principal.ID)) ||
		(principal.IsDoctor() && slot.OwnedBy(principal.ID))
	if !allowed {
		return nil, apperrors.Unauthorized("you are not allowed to view this prescription")
	}
	if !slot.HasPrescription() {
		return nil, apperrors.NotFound("prescription", nil)
	}
	return slot.Prescription, nil
}

func (s *Service) ListBookingsForPatient(ctx context.Context, patient *model.Principal) ([]*model.Booking, error) {
	if !patient.IsPatient() {
		return nil, apperrors.Unauthorized("only patients have bookings")
	}

	booked := true
	slots, err := s.slots.List(ctx, &model.SlotFilters{PatientID: &patient.ID, Booked: &booked})
	if err != nil {
		return nil, service.FromRepository(resourceSlot, err)
	}

	bookings := make([]*model.Booking, 0, len(slots))
	for _, slot := range slots {
		doctor, err := s.doctorSummary(ctx, slot.DoctorID)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, &model.Booking{Slot: slot, Doctor: doctor})
	}
	return bookings, nil
}

func (s *Service) ListAppointmentsForDoctor(ctx context.Context, doctor *model.Principal) ([]*model.Appointment, error) {
	if !doctor.IsDoctor() {
		return nil, apperrors.Unauthorized("only doctors have appointments")
	}

	booked := true
	slots, err := s.slots.List(ctx, &model.SlotFilters{DoctorID: &doctor.ID, Booked: &booked})
	if err != nil {
		return nil, service.FromRepository(resourceSlot, err)
	}

	appointments := make([]*model.Appointment, 0, len(slots))
	for _, slot := range slots {
		appt := &model.Appointment{Slot: slot}
		if slot.PatientID != nil {
			if appt.Patient, err = s.patientSummary(ctx, *slot.PatientID); err != nil {
				return nil, err
			}
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}

func (s *Service) ownedSlot(ctx context.Context, doctor *model.Principal, slotID uuid.UUID) (*model.Slot, error) {
	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsDoctor() || !slot.OwnedBy(doctor.ID) {
		return nil, apperrors.Unauthorized("you do not own this slot")
	}
	return slot, nil
}

// commit writes slot if its stored status is still from.
func (s *Service) commit(ctx context.Context, slot *model.Slot, from model.SlotStatus) error {
	if err := s.slots.UpdateIfStatus(ctx, slot, from); err != nil {
		return service.FromRepository(resourceSlot, err)
	}

	if from != slot.Status {
		if s.metrics != nil {
			s.metrics.ObserveTransition(string(from), string(slot.Status))
		}
		log.Info().
			Str("slot_id", slot.ID.String()).
			Str("from", string(from)).
			Str("to", string(slot.Status)).
			Msg("slot transitioned")
	}
	return nil
}

func (s *Service) observeBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveBooking(outcome)
	}
}

// A doctor or patient removed after booking joins as nil rather than failing the listing.
func (s *Service) doctorSummary(ctx context.Context, id uuid.UUID) (*model.DoctorSummary, error) {
	key := id.String()
	if summary, ok := s.doctorDir.Get(key); ok {
		return summary, nil
	}

	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		if apperrors.Is(service.FromRepository("doctor", err), apperrors.ErrNotFound) {
			log.Warn().Str("doctor_id", key).Msg("booking references missing doctor")
			return nil, nil
		}
		return nil, service.FromRepository("doctor", err)
	}

	summary := doctor.Summary()
	s.doctorDir.Set(key, summary)
	return summary, nil
}

func (s *Service) patientSummary(ctx context.Context, id uuid.UUID) (*model.PatientSummary, error) {
	key := id.String()
	if summary, ok := s.patientDir.Get(key); ok {
		return summary, nil
	}

	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		if apperrors.Is(service.FromRepository("patient", err), apperrors.ErrNotFound) {
			log.Warn().Str("patient_id", key).Msg("appointment references missing patient")
			return nil, nil
		}
		return nil, service.FromRepository("patient", err)
	}

	summary := patient.Summary()
	s.patientDir.Set(key, summary)
	return summary, nil
}
