package mongodb

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/model"
)

// Documents keep ids as strings so they read naturally in the shell.

type doctorDocument struct {
	ID            string    `bson:"_id"`
	Email         string    `bson:"email"`
	Name          string    `bson:"name"`
	PasswordHash  string    `bson:"password_hash"`
	Specialty     string    `bson:"specialty"`
	Price         float64   `bson:"price"`
	Experience    int       `bson:"experience"`
	Gender        string    `bson:"gender"`
	Certification string    `bson:"certification"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func newDoctorDocument(d *model.Doctor) *doctorDocument {
	return &doctorDocument{
		ID:            d.ID.String(),
		Email:         d.Email,
		Name:          d.Name,
		PasswordHash:  d.PasswordHash,
		Specialty:     d.Specialty,
		Price:         d.Price,
		Experience:    d.Experience,
		Gender:        d.Gender,
		Certification: d.Certification,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (doc *doctorDocument) model() (*model.Doctor, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	return &model.Doctor{
		Base:          model.Base{ID: id, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt},
		Email:         doc.Email,
		Name:          doc.Name,
		PasswordHash:  doc.PasswordHash,
		Specialty:     doc.Specialty,
		Price:         doc.Price,
		Experience:    doc.Experience,
		Gender:        doc.Gender,
		Certification: doc.Certification,
	}, nil
}

type patientDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"password_hash"`
	City         string    `bson:"city"`
	DateOfBirth  string    `bson:"date_of_birth"`
	Gender       string    `bson:"gender"`
	Contact      string    `bson:"contact"`
	BloodGroup   string    `bson:"blood_group"`
	AvatarURL    string    `bson:"avatar_url,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newPatientDocument(p *model.Patient) *patientDocument {
	return &patientDocument{
		ID:           p.ID.String(),
		Email:        p.Email,
		Name:         p.Name,
		PasswordHash: p.PasswordHash,
		City:         p.City,
		DateOfBirth:  p.DateOfBirth,
		Gender:       p.Gender,
		Contact:      p.Contact,
		BloodGroup:   p.BloodGroup,
		AvatarURL:    p.AvatarURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (doc *patientDocument) model() (*model.Patient, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	return &model.Patient{
		Base:         model.Base{ID: id, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt},
		Email:        doc.Email,
		Name:         doc.Name,
		PasswordHash: doc.PasswordHash,
		City:         doc.City,
		DateOfBirth:  doc.DateOfBirth,
		Gender:       doc.Gender,
		Contact:      doc.Contact,
		BloodGroup:   doc.BloodGroup,
		AvatarURL:    doc.AvatarURL,
	}, nil
}

type slotDocument struct {
	ID           string              `bson:"_id"`
	DoctorID     string              `bson:"doctor_id"`
	Date         string              `bson:"date"`
	Time         string              `bson:"time"`
	Booked       bool                `bson:"booked"`
	PatientID    *string             `bson:"patient_id"`
	Status       string              `bson:"status"`
	Prescription *model.Prescription `bson:"prescription,omitempty"`
	Report       string              `bson:"report,omitempty"`
	CreatedAt    time.Time           `bson:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at"`
}

func newSlotDocument(s *model.Slot) *slotDocument {
	doc := &slotDocument{
		ID:           s.ID.String(),
		DoctorID:     s.DoctorID.String(),
		Date:         s.Date,
		Time:         s.Time,
		Booked:       s.Booked,
		Status:       string(s.Status),
		Prescription: s.Prescription,
		Report:       s.Report,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.PatientID != nil {
		pid := s.PatientID.String()
		doc.PatientID = &pid
	}
	return doc
}

func (doc *slotDocument) model() (*model.Slot, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	doctorID, err := uuid.Parse(doc.DoctorID)
	if err != nil {
		return nil, err
	}
	slot := &model.Slot{
		Base:         model.Base{ID: id, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt},
		DoctorID:     doctorID,
		Date:         doc.Date,
		Time:         doc.Time,
		Booked:       doc.Booked,
		Status:       model.SlotStatus(doc.Status),
		Prescription: doc.Prescription,
		Report:       doc.Report,
	}
	if doc.PatientID != nil {
		pid, err := uuid.Parse(*doc.PatientID)
		if err != nil {
			return nil, err
		}
		slot.PatientID = &pid
	}
	return slot, nil
}
