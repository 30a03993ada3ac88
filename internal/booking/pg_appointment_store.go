package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, user_id, appointment_type, appointment_for, appointment_for_name,
		appointment_for_age, symptom, other_symptoms, appointment_date, slot_id,
		doctor_id, clinic_id, active, created_at, updated_at`

type PgAppointmentStore struct {
	pool *pgxpool.Pool
}

func NewPgAppointmentStore(pool *pgxpool.Pool) *PgAppointmentStore {
	return &PgAppointmentStore{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var slotID *uuid.UUID

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Type,
		&a.For,
		&a.ForName,
		&a.ForAge,
		&a.Symptom,
		&a.OtherSymptoms,
		&a.Date,
		&slotID,
		&a.DoctorID,
		&a.ClinicID,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err, ErrAppointmentNotFound)
	}

	a.SlotID = slotID
	return &a, nil
}

func (r *PgAppointmentStore) queryMany(ctx context.Context, sql string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgAppointmentStore) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgAppointmentStore) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, appointment_type, appointment_for, appointment_for_name,
			appointment_for_age, symptom, other_symptoms, appointment_date, slot_id,
			doctor_id, clinic_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.UserID, appt.Type, appt.For, appt.ForName,
		appt.ForAge, appt.Symptom, appt.OtherSymptoms, appt.Date, appt.SlotID,
		appt.DoctorID, appt.ClinicID, appt.Active)

	return scanAppointment(row)
}

func (r *PgAppointmentStore) Update(ctx context.Context, appt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET user_id = $2,
		    appointment_type = $3,
		    appointment_for = $4,
		    appointment_for_name = $5,
		    appointment_for_age = $6,
		    symptom = $7,
		    other_symptoms = $8,
		    appointment_date = $9,
		    slot_id = $10,
		    doctor_id = $11,
		    clinic_id = $12,
		    active = $13,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.UserID, appt.Type, appt.For, appt.ForName,
		appt.ForAge, appt.Symptom, appt.OtherSymptoms, appt.Date, appt.SlotID,
		appt.DoctorID, appt.ClinicID, appt.Active)

	return scanAppointment(row)
}

func (r *PgAppointmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func (r *PgAppointmentStore) List(ctx context.Context, limit, offset int) ([]Appointment, error) {
	return r.queryMany(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY appointment_date
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

func (r *PgAppointmentStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Appointment, error) {
	return r.queryMany(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = $1
		ORDER BY appointment_date
	`, userID)
}

func (r *PgAppointmentStore) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	return r.queryMany(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY appointment_date
		LIMIT $2 OFFSET $3
	`, doctorID, limit, offset)
}

func (r *PgAppointmentStore) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]Appointment, error) {
	return r.queryMany(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1
		ORDER BY appointment_date
		LIMIT $2 OFFSET $3
	`, clinicID, limit, offset)
}

func (r *PgAppointmentStore) ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return r.queryMany(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_date BETWEEN $1 AND $2
		ORDER BY appointment_date
	`, from, to)
}

func (r *PgAppointmentStore) ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.queryMany(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date BETWEEN $2 AND $3
		ORDER BY appointment_date
	`, doctorID, from, to)
}

func (r *PgAppointmentStore) ListByClinicBetween(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.queryMany(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1
		  AND appointment_date BETWEEN $2 AND $3
		ORDER BY appointment_date
	`, clinicID, from, to)
}
