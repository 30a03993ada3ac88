package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/clinicdesk/registration-service/internal/redis"
)

// BookingRequest is one validated appointment request targeting a slot.
type BookingRequest struct {
	UserID        uuid.UUID
	SlotID        uuid.UUID
	Type          AppointmentType
	For           AppointmentFor
	ForName       string
	ForAge        int
	Symptom       Symptom
	OtherSymptoms string
	Date          time.Time
	DoctorID      uuid.UUID
	ClinicID      uuid.UUID
}

// UpdateRequest carries the new field values for an existing appointment.
// SlotID may equal the appointment's current slot, which leaves the slot
// claim and queue entry untouched.
type UpdateRequest struct {
	UserID        uuid.UUID
	SlotID        uuid.UUID
	Type          AppointmentType
	For           AppointmentFor
	ForName       string
	ForAge        int
	Symptom       Symptom
	OtherSymptoms string
	Date          time.Time
	DoctorID      uuid.UUID
	ClinicID      uuid.UUID
	Active        bool
}

// Service orchestrates every write that spans the slot, appointment and queue
// stores. It is the only component allowed to flip slot availability or to
// create and delete queue entries.
type Service struct {
	slots  SlotStore
	appts  AppointmentStore
	queue  QueueStore
	locker redisclient.Locker
	log    *zap.Logger
}

func NewService(slots SlotStore, appts AppointmentStore, queue QueueStore, locker redisclient.Locker, log *zap.Logger) *Service {
	return &Service{
		slots:  slots,
		appts:  appts,
		queue:  queue,
		locker: locker,
		log:    log,
	}
}

// Book processes the requests in order and returns either every persisted
// appointment or the first failure. Appointments booked before the failing
// request stay persisted; callers resubmit only the remainder.
func (s *Service) Book(ctx context.Context, reqs []BookingRequest) ([]Appointment, error) {
	booked := make([]Appointment, 0, len(reqs))

	for i, req := range reqs {
		appt, err := s.bookOne(ctx, req)
		if err != nil {
			s.log.Error("booking batch aborted",
				zap.Int("index", i),
				zap.Stringer("slot_id", req.SlotID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("request %d of %d: %w", i+1, len(reqs), err)
		}
		booked = append(booked, *appt)
	}

	return booked, nil
}

func (s *Service) bookOne(ctx context.Context, req BookingRequest) (*Appointment, error) {
	slot, err := s.slots.GetByID(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if !slot.IsAvailable {
		return nil, ErrSlotNotAvailable
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slot.ID, func(lockCtx context.Context) error {
		// Claim first: the conditional update is the authoritative check, so
		// two racing requests cannot both get past this point.
		if err := s.slots.Claim(lockCtx, slot.ID); err != nil {
			return err
		}

		appt := &Appointment{
			UserID:        req.UserID,
			Type:          req.Type,
			For:           req.For,
			ForName:       req.ForName,
			ForAge:        req.ForAge,
			Symptom:       req.Symptom,
			OtherSymptoms: req.OtherSymptoms,
			Date:          req.Date,
			SlotID:        &slot.ID,
			DoctorID:      req.DoctorID,
			ClinicID:      req.ClinicID,
			Active:        true,
		}

		saved, err := s.appts.Create(lockCtx, appt)
		if err != nil {
			s.releaseSlot(lockCtx, slot.ID)
			return err
		}

		entry := newQueueEntry(saved, slot)
		if _, err := s.queue.Create(lockCtx, entry); err != nil {
			if delErr := s.appts.Delete(lockCtx, saved.ID); delErr != nil {
				s.log.Error("failed to undo appointment after queue write failure",
					zap.Stringer("appointment_id", saved.ID),
					zap.Error(delErr),
				)
			}
			s.releaseSlot(lockCtx, slot.ID)
			return fmt.Errorf("create queue entry: %w", err)
		}

		created = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	s.log.Info("appointment booked",
		zap.Stringer("appointment_id", created.ID),
		zap.Stringer("slot_id", slot.ID),
		zap.Int("queue_no", slot.SlotNo),
	)

	return created, nil
}

func newQueueEntry(appt *Appointment, slot *Slot) *QueueEntry {
	return &QueueEntry{
		AppointmentID:  appt.ID,
		SlotID:         slot.ID,
		ClinicID:       appt.ClinicID,
		DoctorID:       appt.DoctorID,
		InitialQueueNo: slot.SlotNo,
		CurrentQueueNo: slot.SlotNo,
		QueueDate:      time.Now().Truncate(24 * time.Hour),
	}
}

// Update applies new field values and, when the slot changes, migrates the
// claim from the old slot to the new one and rewrites the queue entry. A
// same-slot update keeps the existing claim and queue numbers untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	newSlot, err := s.slots.GetByID(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}

	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	appt.UserID = req.UserID
	appt.Type = req.Type
	appt.For = req.For
	appt.ForName = req.ForName
	appt.ForAge = req.ForAge
	appt.Symptom = req.Symptom
	appt.OtherSymptoms = req.OtherSymptoms
	appt.Date = req.Date
	appt.DoctorID = req.DoctorID
	appt.ClinicID = req.ClinicID
	appt.Active = req.Active

	if appt.SlotID != nil && *appt.SlotID == newSlot.ID {
		return s.appts.Update(ctx, appt)
	}

	if !newSlot.IsAvailable {
		return nil, ErrSlotNotAvailable
	}

	var updated *Appointment

	err = s.locker.WithSlotLock(ctx, newSlot.ID, func(lockCtx context.Context) error {
		// Claim the new slot before releasing the old one so a failed claim
		// leaves the booking exactly as it was.
		if err := s.slots.Claim(lockCtx, newSlot.ID); err != nil {
			return err
		}

		if appt.SlotID != nil {
			if err := s.slots.Release(lockCtx, *appt.SlotID); err != nil {
				s.releaseSlot(lockCtx, newSlot.ID)
				return fmt.Errorf("release old slot: %w", err)
			}
		}
		appt.SlotID = &newSlot.ID

		entry, err := s.queue.GetByAppointmentID(lockCtx, appt.ID)
		switch {
		case errors.Is(err, ErrQueueEntryNotFound):
			// Previously unbooked appointment gaining a slot.
			if _, err := s.queue.Create(lockCtx, newQueueEntry(appt, newSlot)); err != nil {
				return fmt.Errorf("create queue entry: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load queue entry: %w", err)
		default:
			entry.SlotID = newSlot.ID
			entry.ClinicID = appt.ClinicID
			entry.DoctorID = appt.DoctorID
			entry.InitialQueueNo = newSlot.SlotNo
			entry.CurrentQueueNo = newSlot.SlotNo
			if _, err := s.queue.Update(lockCtx, entry); err != nil {
				return fmt.Errorf("update queue entry: %w", err)
			}
		}

		updated, err = s.appts.Update(lockCtx, appt)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	s.log.Info("appointment moved",
		zap.Stringer("appointment_id", updated.ID),
		zap.Stringer("slot_id", newSlot.ID),
	)

	return updated, nil
}

// Cancel soft-cancels: the appointment row stays, marked inactive, while its
// queue entry is dropped and the slot freed.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	appt.Active = false
	if _, err := s.appts.Update(ctx, appt); err != nil {
		return fmt.Errorf("deactivate appointment: %w", err)
	}

	if err := s.queue.DeleteByAppointmentID(ctx, id); err != nil {
		return err
	}

	if appt.SlotID != nil {
		if err := s.slots.Release(ctx, *appt.SlotID); err != nil {
			return err
		}
	}

	s.log.Info("appointment cancelled", zap.Stringer("appointment_id", id))
	return nil
}

// Delete removes the appointment and its queue entry and frees the slot.
// Deleting an unknown id is a no-op success.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	appt, err := s.appts.GetByID(ctx, id)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if appt.SlotID != nil {
		if err := s.slots.Release(ctx, *appt.SlotID); err != nil {
			return err
		}
	}

	if err := s.queue.DeleteByAppointmentID(ctx, id); err != nil {
		return err
	}

	if err := s.appts.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("appointment deleted", zap.Stringer("appointment_id", id))
	return nil
}

// SweepQueue purges cancelled and out-of-date queue entries. Called by the
// queue-sweeper worker, never by a request pipeline.
func (s *Service) SweepQueue(ctx context.Context) (int64, error) {
	today := time.Now().Truncate(24 * time.Hour)

	n, err := s.queue.DeleteStale(ctx, today)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("queue entries swept", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) releaseSlot(ctx context.Context, id uuid.UUID) {
	if err := s.slots.Release(ctx, id); err != nil {
		s.log.Error("failed to release slot after aborted booking",
			zap.Stringer("slot_id", id),
			zap.Error(err),
		)
	}
}

// Read surface. Plain pass-throughs with the same paging bounds as the HTTP
// layer defaults.

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	return s.appts.List(ctx, limit, offset)
}

func (s *Service) ListAppointmentsByUser(ctx context.Context, userID uuid.UUID) ([]Appointment, error) {
	return s.appts.ListByUser(ctx, userID)
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	return s.appts.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListAppointmentsByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	return s.appts.ListByClinic(ctx, clinicID, limit, offset)
}

func (s *Service) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return s.appts.ListBetween(ctx, from, to)
}

func (s *Service) ListAppointmentsByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return s.appts.ListByDoctorBetween(ctx, doctorID, from, to)
}

func (s *Service) ListAppointmentsByClinicBetween(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return s.appts.ListByClinicBetween(ctx, clinicID, from, to)
}

func (s *Service) ListSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	return s.slots.ListByDoctorAndDate(ctx, doctorID, date)
}
