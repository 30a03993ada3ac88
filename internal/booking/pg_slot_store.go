package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgSlotStore struct {
	pool *pgxpool.Pool
}

func NewPgSlotStore(pool *pgxpool.Pool) *PgSlotStore {
	return &PgSlotStore{pool: pool}
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.SlotNo,
		&s.ShiftTime,
		&s.SlotTime,
		&s.SlotDate,
		&s.ClinicID,
		&s.DoctorID,
		&s.IsAvailable,
	)
	if err != nil {
		return nil, classify(err, ErrSlotNotAvailable)
	}

	return &s, nil
}

func (r *PgSlotStore) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slot_no, shift_time, slot_time, slot_date, clinic_id, doctor_id, is_available
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgSlotStore) Claim(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE slots
		SET is_available = false
		WHERE id = $1
		  AND is_available
	`, id)
	if err != nil {
		return fmt.Errorf("claim slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotAvailable
	}
	return nil
}

func (r *PgSlotStore) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE slots
		SET is_available = true
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

func (r *PgSlotStore) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slot_no, shift_time, slot_time, slot_date, clinic_id, doctor_id, is_available
		FROM slots
		WHERE doctor_id = $1
		  AND slot_date = $2
		ORDER BY slot_no
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
