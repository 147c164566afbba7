package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{BaseRepository: base}
}

const doctorColumns = `id, email, name, password_hash, specialty, price, experience,
	gender, certification, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, email, name, password_hash, specialty, price, experience,
			gender, certification, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Email,
		doctor.Name,
		doctor.PasswordHash,
		doctor.Specialty,
		doctor.Price,
		doctor.Experience,
		doctor.Gender,
		doctor.Certification,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	return translate("create doctor", err)
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, translate("get doctor", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE email = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, translate("get doctor by email", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, specialty = $2, price = $3, experience = $4,
			gender = $5, certification = $6, updated_at = $7
		WHERE id = $8
	`
	doctor.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.Specialty,
		doctor.Price,
		doctor.Experience,
		doctor.Gender,
		doctor.Certification,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return translate("update doctor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update doctor: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE 1=1`
	var args []interface{}

	if filters != nil && filters.Specialty != "" {
		args = append(args, filters.Specialty)
		query += fmt.Sprintf(" AND specialty ILIKE $%d", len(args))
	}

	query += " ORDER BY name ASC"

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, translate("list doctors", err)
	}
	return doctors, nil
}
