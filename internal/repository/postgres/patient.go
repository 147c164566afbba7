package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{BaseRepository: base}
}

const patientColumns = `id, email, name, password_hash, city, date_of_birth, gender,
	contact, blood_group, avatar_url, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, email, name, password_hash, city, date_of_birth, gender,
			contact, blood_group, avatar_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Email,
		patient.Name,
		patient.PasswordHash,
		patient.City,
		patient.DateOfBirth,
		patient.Gender,
		patient.Contact,
		patient.BloodGroup,
		patient.AvatarURL,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	return translate("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, translate("get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE email = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, email); err != nil {
		return nil, translate("get patient by email", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, city = $2, date_of_birth = $3, gender = $4,
			contact = $5, blood_group = $6, avatar_url = $7, updated_at = $8
		WHERE id = $9
	`
	patient.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.City,
		patient.DateOfBirth,
		patient.Gender,
		patient.Contact,
		patient.BloodGroup,
		patient.AvatarURL,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return translate("update patient", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update patient: %w", repository.ErrNotFound)
	}
	return nil
}
