package booking

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrSlotNotAvailable covers both a missing slot and a slot already
	// claimed by another appointment.
	ErrSlotNotAvailable = errors.New("slot not available")

	// ErrSlotBusy means another request holds the slot lock right now.
	ErrSlotBusy = errors.New("slot is currently being booked, please retry")

	ErrDuplicateEntry      = errors.New("duplicate appointment entry")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrQueueEntryNotFound  = errors.New("queue entry not found")
)

const pgUniqueViolation = "23505"

// classify maps store-level failures onto the service taxonomy: a unique
// constraint violation becomes ErrDuplicateEntry, an empty lookup becomes the
// caller's notFound sentinel, everything else passes through unclassified.
func classify(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateEntry
	}
	return err
}
