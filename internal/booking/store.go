package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SlotStore persists slot records and their availability flag. Only the
// booking Service may flip IsAvailable.
type SlotStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)

	// Claim marks the slot unavailable only if it is still available, in a
	// single round trip. Returns ErrSlotNotAvailable when the slot is missing
	// or already claimed.
	Claim(ctx context.Context, id uuid.UUID) error

	// Release marks the slot available again.
	Release(ctx context.Context, id uuid.UUID) error

	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error)
}

// AppointmentStore persists appointment records.
type AppointmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, limit, offset int) ([]Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)
	ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListByClinicBetween(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]Appointment, error)
}

// QueueStore persists one queue entry per booked appointment.
type QueueStore interface {
	Create(ctx context.Context, entry *QueueEntry) (*QueueEntry, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*QueueEntry, error)
	Update(ctx context.Context, entry *QueueEntry) (*QueueEntry, error)
	DeleteByAppointmentID(ctx context.Context, appointmentID uuid.UUID) error

	// DeleteStale removes cancelled entries and entries dated before the
	// given day. Used by the queue sweeper, never by request pipelines.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
