package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusPending   SlotStatus = "pending"
	SlotStatusCompleted SlotStatus = "completed"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// slotTransitions lists the status changes a doctor may request explicitly.
// Booking and patient cancellation have their own operations.
var slotTransitions = map[SlotStatus][]SlotStatus{
	SlotStatusPending:   {SlotStatusCompleted, SlotStatusCancelled},
	SlotStatusCancelled: {SlotStatusAvailable},
}

func ParseSlotStatus(s string) (SlotStatus, error) {
	status := SlotStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown slot status %q", s)
	}
	return status, nil
}

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusAvailable, SlotStatusPending, SlotStatusCompleted, SlotStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a doctor may move a slot from s to next.
func (s SlotStatus) CanTransitionTo(next SlotStatus) bool {
	for _, allowed := range slotTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Slot struct {
	Base
	DoctorID     uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	Date         string        `db:"date" json:"date"`
	Time         string        `db:"time" json:"time"`
	Booked       bool          `db:"booked" json:"booked"`
	PatientID    *uuid.UUID    `db:"patient_id" json:"patient_id"`
	Status       SlotStatus    `db:"status" json:"status"`
	Prescription *Prescription `db:"prescription" json:"prescription,omitempty"`
	Report       string        `db:"report" json:"report,omitempty"`
}

func (s *Slot) OwnedBy(doctorID uuid.UUID) bool {
	return s.DoctorID == doctorID
}

func (s *Slot) OccupiedBy(patientID uuid.UUID) bool {
	return s.PatientID != nil && *s.PatientID == patientID
}

// Release clears the occupying patient.
func (s *Slot) Release() {
	s.Booked = false
	s.PatientID = nil
}

func (s *Slot) HasPrescription() bool {
	return s.Prescription != nil && len(s.Prescription.Medicines) > 0
}

type Medicine struct {
	Name         string `json:"name" bson:"name" validate:"notblank"`
	Dosage       string `json:"dosage" bson:"dosage" validate:"notblank"`
	Frequency    string `json:"frequency" bson:"frequency" validate:"notblank"`
	Duration     string `json:"duration" bson:"duration" validate:"notblank"`
	Instructions string `json:"instructions,omitempty" bson:"instructions,omitempty"`
}

func (m Medicine) Trimmed() Medicine {
	return Medicine{
		Name:         strings.TrimSpace(m.Name),
		Dosage:       strings.TrimSpace(m.Dosage),
		Frequency:    strings.TrimSpace(m.Frequency),
		Duration:     strings.TrimSpace(m.Duration),
		Instructions: strings.TrimSpace(m.Instructions),
	}
}

// Complete reports whether name, dosage, frequency and duration are all non-blank.
func (m Medicine) Complete() bool {
	return strings.TrimSpace(m.Name) != "" &&
		strings.TrimSpace(m.Dosage) != "" &&
		strings.TrimSpace(m.Frequency) != "" &&
		strings.TrimSpace(m.Duration) != ""
}

// CompleteMedicines returns the trimmed complete entries of ms. Partial rows
// are dropped.
func CompleteMedicines(ms []Medicine) []Medicine {
	out := make([]Medicine, 0, len(ms))
	for _, m := range ms {
		if m.Complete() {
			out = append(out, m.Trimmed())
		}
	}
	return out
}

type Prescription struct {
	Medicines    []Medicine `json:"medicines" bson:"medicines" validate:"required,min=1,dive"`
	Diagnosis    string     `json:"diagnosis" bson:"diagnosis" validate:"notblank"`
	DoctorNotes  string     `json:"doctor_notes,omitempty" bson:"doctor_notes,omitempty"`
	PrescribedAt time.Time  `json:"prescribed_at" bson:"prescribed_at"`
	PrescribedBy string     `json:"prescribed_by" bson:"prescribed_by"`
	FollowUpDate string     `json:"follow_up_date,omitempty" bson:"follow_up_date,omitempty"`
}

// Value stores the prescription as JSONB.
func (p Prescription) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Prescription) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into Prescription", src)
	}
}

type CreateSlotRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type UpdateSlotStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type PrescriptionRequest struct {
	Medicines    []Medicine `json:"medicines"`
	Diagnosis    string     `json:"diagnosis"`
	DoctorNotes  string     `json:"doctor_notes"`
	FollowUpDate string     `json:"follow_up_date"`
}

// PrescriptionPatch carries the fields of an update; nil fields keep their stored value.
type PrescriptionPatch struct {
	Medicines    []Medicine `json:"medicines"`
	Diagnosis    *string    `json:"diagnosis"`
	DoctorNotes  *string    `json:"doctor_notes"`
	FollowUpDate *string    `json:"follow_up_date"`
	PrescribedAt *time.Time `json:"prescribed_at"`
	PrescribedBy *string    `json:"prescribed_by"`
}

type SlotFilters struct {
	DoctorID      *uuid.UUID
	PatientID     *uuid.UUID
	Booked        *bool
	OnlyAvailable bool
}

// Booking is a booked slot joined with the doctor's public fields.
type Booking struct {
	*Slot
	Doctor *DoctorSummary `json:"doctor,omitempty"`
}

// Appointment is a booked slot joined with the patient's public fields.
type Appointment struct {
	*Slot
	Patient *PatientSummary `json:"patient,omitempty"`
}
