package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queueColumns = `id, appointment_id, slot_id, clinic_id, doctor_id, initial_queue_no,
		current_queue_no, advance_paid, cancelled, advance_revert_if_paid, patient_reached,
		visit_status, consultation_fee_paid, consultation_fee_amount, transaction_id_advance_fee,
		transaction_id_consultation_fee, transaction_id_advance_revert, queue_date`

type PgQueueStore struct {
	pool *pgxpool.Pool
}

func NewPgQueueStore(pool *pgxpool.Pool) *PgQueueStore {
	return &PgQueueStore{pool: pool}
}

func scanQueueEntry(row pgx.Row) (*QueueEntry, error) {
	var q QueueEntry

	err := row.Scan(
		&q.ID,
		&q.AppointmentID,
		&q.SlotID,
		&q.ClinicID,
		&q.DoctorID,
		&q.InitialQueueNo,
		&q.CurrentQueueNo,
		&q.AdvancePaid,
		&q.Cancelled,
		&q.AdvanceRevertIfPaid,
		&q.PatientReached,
		&q.VisitStatus,
		&q.ConsultationFeePaid,
		&q.ConsultationFeeAmount,
		&q.TransactionIDAdvanceFee,
		&q.TransactionIDConsultationFee,
		&q.TransactionIDAdvanceRevert,
		&q.QueueDate,
	)
	if err != nil {
		return nil, classify(err, ErrQueueEntryNotFound)
	}

	return &q, nil
}

func (r *PgQueueStore) Create(ctx context.Context, entry *QueueEntry) (*QueueEntry, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO queue_entries (id, appointment_id, slot_id, clinic_id, doctor_id, initial_queue_no,
			current_queue_no, advance_paid, cancelled, advance_revert_if_paid, patient_reached,
			visit_status, consultation_fee_paid, consultation_fee_amount, transaction_id_advance_fee,
			transaction_id_consultation_fee, transaction_id_advance_revert, queue_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+queueColumns+`
	`, id, entry.AppointmentID, entry.SlotID, entry.ClinicID, entry.DoctorID, entry.InitialQueueNo,
		entry.CurrentQueueNo, entry.AdvancePaid, entry.Cancelled, entry.AdvanceRevertIfPaid, entry.PatientReached,
		entry.VisitStatus, entry.ConsultationFeePaid, entry.ConsultationFeeAmount, entry.TransactionIDAdvanceFee,
		entry.TransactionIDConsultationFee, entry.TransactionIDAdvanceRevert, entry.QueueDate)

	return scanQueueEntry(row)
}

func (r *PgQueueStore) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*QueueEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+queueColumns+`
		FROM queue_entries
		WHERE appointment_id = $1
	`, appointmentID)
	return scanQueueEntry(row)
}

func (r *PgQueueStore) Update(ctx context.Context, entry *QueueEntry) (*QueueEntry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE queue_entries
		SET slot_id = $2,
		    clinic_id = $3,
		    doctor_id = $4,
		    initial_queue_no = $5,
		    current_queue_no = $6,
		    advance_paid = $7,
		    cancelled = $8,
		    advance_revert_if_paid = $9,
		    patient_reached = $10,
		    visit_status = $11,
		    consultation_fee_paid = $12,
		    consultation_fee_amount = $13,
		    transaction_id_advance_fee = $14,
		    transaction_id_consultation_fee = $15,
		    transaction_id_advance_revert = $16,
		    queue_date = $17
		WHERE id = $1
		RETURNING `+queueColumns+`
	`, entry.ID, entry.SlotID, entry.ClinicID, entry.DoctorID,
		entry.InitialQueueNo, entry.CurrentQueueNo, entry.AdvancePaid, entry.Cancelled,
		entry.AdvanceRevertIfPaid, entry.PatientReached, entry.VisitStatus, entry.ConsultationFeePaid,
		entry.ConsultationFeeAmount, entry.TransactionIDAdvanceFee, entry.TransactionIDConsultationFee,
		entry.TransactionIDAdvanceRevert, entry.QueueDate)

	return scanQueueEntry(row)
}

func (r *PgQueueStore) DeleteByAppointmentID(ctx context.Context, appointmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM queue_entries
		WHERE appointment_id = $1
	`, appointmentID)
	if err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	return nil
}

func (r *PgQueueStore) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM queue_entries
		WHERE cancelled
		   OR queue_date < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("delete stale queue entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
