package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

type slotRepository struct {
	BaseRepository
}

func NewSlotRepository(base BaseRepository) repository.SlotRepository {
	return &slotRepository{BaseRepository: base}
}

const slotColumns = `id, doctor_id, date, time, booked, patient_id, status,
	prescription, report, created_at, updated_at`

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (
			id, doctor_id, date, time, booked, patient_id, status,
			prescription, report, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.Date,
		slot.Time,
		slot.Booked,
		slot.PatientID,
		slot.Status,
		slot.Prescription,
		slot.Report,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	return translate("create slot", err)
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	var slot model.Slot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, translate("get slot", err)
	}
	return &slot, nil
}

func (r *slotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	query, args := listSlotsQuery(filters)

	var slots []*model.Slot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, translate("list slots", err)
	}
	return slots, nil
}

func listSlotsQuery(filters *model.SlotFilters) (string, []interface{}) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE 1=1`
	var args []interface{}

	if filters != nil {
		if filters.DoctorID != nil {
			args = append(args, *filters.DoctorID)
			query += fmt.Sprintf(" AND doctor_id = $%d", len(args))
		}
		if filters.PatientID != nil {
			args = append(args, *filters.PatientID)
			query += fmt.Sprintf(" AND patient_id = $%d", len(args))
		}
		if filters.Booked != nil {
			args = append(args, *filters.Booked)
			query += fmt.Sprintf(" AND booked = $%d", len(args))
		}
		if filters.OnlyAvailable {
			args = append(args, model.SlotStatusAvailable)
			query += fmt.Sprintf(" AND booked = FALSE AND status = $%d", len(args))
		}
	}

	return query + " ORDER BY date ASC, time ASC", args
}

func (r *slotRepository) UpdateIfStatus(ctx context.Context, slot *model.Slot, expected model.SlotStatus) error {
	query := `
		UPDATE slots
		SET booked = $1, patient_id = $2, status = $3, prescription = $4,
			report = $5, updated_at = $6
		WHERE id = $7 AND status = $8
	`
	slot.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		slot.Booked,
		slot.PatientID,
		slot.Status,
		slot.Prescription,
		slot.Report,
		slot.UpdatedAt,
		slot.ID,
		expected,
	)
	if err != nil {
		return translate("update slot", err)
	}
	return r.checkConditional(ctx, result.RowsAffected, slot.ID, "update slot")
}

func (r *slotRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, expected model.SlotStatus) error {
	query := `DELETE FROM slots WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, expected)
	if err != nil {
		return translate("delete slot", err)
	}
	return r.checkConditional(ctx, result.RowsAffected, id, "delete slot")
}

func (r *slotRepository) checkConditional(ctx context.Context, rowsAffected func() (int64, error), id uuid.UUID, op string) error {
	rows, err := rowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	found, err := r.exists(ctx, "slots", id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, repository.ErrStaleState)
}
