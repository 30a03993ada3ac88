package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	redisclient "github.com/clinicdesk/registration-service/internal/redis"
)

// -- In-memory stores --

type memSlotStore struct {
	slots map[uuid.UUID]*Slot
}

func newMemSlotStore(slots ...*Slot) *memSlotStore {
	m := &memSlotStore{slots: make(map[uuid.UUID]*Slot)}
	for _, s := range slots {
		copy := *s
		m.slots[s.ID] = &copy
	}
	return m
}

func (m *memSlotStore) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotAvailable
	}
	copy := *s
	return &copy, nil
}

func (m *memSlotStore) Claim(_ context.Context, id uuid.UUID) error {
	s, ok := m.slots[id]
	if !ok || !s.IsAvailable {
		return ErrSlotNotAvailable
	}
	s.IsAvailable = false
	return nil
}

func (m *memSlotStore) Release(_ context.Context, id uuid.UUID) error {
	if s, ok := m.slots[id]; ok {
		s.IsAvailable = true
	}
	return nil
}

func (m *memSlotStore) ListByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	var result []Slot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.SlotDate.Equal(date) {
			result = append(result, *s)
		}
	}
	return result, nil
}

type memAppointmentStore struct {
	appts     map[uuid.UUID]*Appointment
	createErr error
}

func newMemAppointmentStore() *memAppointmentStore {
	return &memAppointmentStore{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *memAppointmentStore) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copy := *a
	return &copy, nil
}

func (m *memAppointmentStore) Create(_ context.Context, appt *Appointment) (*Appointment, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	copy := *appt
	copy.ID = uuid.New()
	copy.CreatedAt = time.Now()
	copy.UpdatedAt = copy.CreatedAt
	m.appts[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (m *memAppointmentStore) Update(_ context.Context, appt *Appointment) (*Appointment, error) {
	if _, ok := m.appts[appt.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	copy := *appt
	copy.UpdatedAt = time.Now()
	m.appts[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (m *memAppointmentStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.appts, id)
	return nil
}

func (m *memAppointmentStore) List(_ context.Context, _, _ int) ([]Appointment, error) {
	var result []Appointment
	for _, a := range m.appts {
		result = append(result, *a)
	}
	return result, nil
}

func (m *memAppointmentStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Appointment, error) {
	var result []Appointment
	for _, a := range m.appts {
		if a.UserID == userID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *memAppointmentStore) ListByDoctor(_ context.Context, doctorID uuid.UUID, _, _ int) ([]Appointment, error) {
	var result []Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *memAppointmentStore) ListByClinic(_ context.Context, clinicID uuid.UUID, _, _ int) ([]Appointment, error) {
	var result []Appointment
	for _, a := range m.appts {
		if a.ClinicID == clinicID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *memAppointmentStore) ListBetween(_ context.Context, from, to time.Time) ([]Appointment, error) {
	var result []Appointment
	for _, a := range m.appts {
		if !a.Date.Before(from) && !a.Date.After(to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *memAppointmentStore) ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	all, _ := m.ListBetween(ctx, from, to)
	var result []Appointment
	for _, a := range all {
		if a.DoctorID == doctorID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memAppointmentStore) ListByClinicBetween(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	all, _ := m.ListBetween(ctx, from, to)
	var result []Appointment
	for _, a := range all {
		if a.ClinicID == clinicID {
			result = append(result, a)
		}
	}
	return result, nil
}

type memQueueStore struct {
	entries   map[uuid.UUID]*QueueEntry // keyed by appointment id
	createErr error
}

func newMemQueueStore() *memQueueStore {
	return &memQueueStore{entries: make(map[uuid.UUID]*QueueEntry)}
}

func (m *memQueueStore) Create(_ context.Context, entry *QueueEntry) (*QueueEntry, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.entries[entry.AppointmentID]; ok {
		return nil, ErrDuplicateEntry
	}
	copy := *entry
	copy.ID = uuid.New()
	m.entries[copy.AppointmentID] = &copy
	out := copy
	return &out, nil
}

func (m *memQueueStore) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*QueueEntry, error) {
	e, ok := m.entries[appointmentID]
	if !ok {
		return nil, ErrQueueEntryNotFound
	}
	copy := *e
	return &copy, nil
}

func (m *memQueueStore) Update(_ context.Context, entry *QueueEntry) (*QueueEntry, error) {
	if _, ok := m.entries[entry.AppointmentID]; !ok {
		return nil, ErrQueueEntryNotFound
	}
	copy := *entry
	m.entries[copy.AppointmentID] = &copy
	out := copy
	return &out, nil
}

func (m *memQueueStore) DeleteByAppointmentID(_ context.Context, appointmentID uuid.UUID) error {
	delete(m.entries, appointmentID)
	return nil
}

func (m *memQueueStore) DeleteStale(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, e := range m.entries {
		if e.Cancelled || e.QueueDate.Before(before) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// -- Lockers --

type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(context.Context) error) error {
	return fn(ctx)
}

type busyLocker struct{}

func (busyLocker) WithSlotLock(context.Context, uuid.UUID, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// -- Fixtures --

type fixture struct {
	slots *memSlotStore
	appts *memAppointmentStore
	queue *memQueueStore
	svc   *Service
}

func newFixture(slots ...*Slot) *fixture {
	f := &fixture{
		slots: newMemSlotStore(slots...),
		appts: newMemAppointmentStore(),
		queue: newMemQueueStore(),
	}
	f.svc = NewService(f.slots, f.appts, f.queue, passLocker{}, zap.NewNop())
	return f
}

func makeSlot(slotNo int) *Slot {
	return &Slot{
		ID:          uuid.New(),
		SlotNo:      slotNo,
		ShiftTime:   "MORNING",
		SlotTime:    "09:30",
		SlotDate:    time.Now().Truncate(24 * time.Hour),
		ClinicID:    uuid.New(),
		DoctorID:    uuid.New(),
		IsAvailable: true,
	}
}

func makeRequest(slot *Slot) BookingRequest {
	return BookingRequest{
		UserID:   uuid.New(),
		SlotID:   slot.ID,
		Type:     TypeGeneralCheckup,
		For:      ForSelf,
		ForName:  "Asha Rao",
		ForAge:   34,
		Symptom:  SymptomFever,
		Date:     time.Now().Add(24 * time.Hour),
		DoctorID: slot.DoctorID,
		ClinicID: slot.ClinicID,
	}
}

// -- Book --

func TestBookClaimsSlotAndCreatesQueueEntry(t *testing.T) {
	slot := makeSlot(3)
	f := newFixture(slot)

	appts, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	require.NoError(t, err)
	require.Len(t, appts, 1)

	appt := appts[0]
	assert.True(t, appt.Active)
	require.NotNil(t, appt.SlotID)
	assert.Equal(t, slot.ID, *appt.SlotID)

	assert.False(t, f.slots.slots[slot.ID].IsAvailable)

	entry, err := f.queue.GetByAppointmentID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.InitialQueueNo)
	assert.Equal(t, 3, entry.CurrentQueueNo)
	assert.False(t, entry.Cancelled)
	assert.False(t, entry.AdvancePaid)
	assert.False(t, entry.PatientReached)
	assert.Nil(t, entry.VisitStatus)
	assert.Nil(t, entry.ConsultationFeeAmount)
}

func TestBookSlotAlreadyClaimed(t *testing.T) {
	slot := makeSlot(3)
	f := newFixture(slot)

	_, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestBookUnknownSlot(t *testing.T) {
	f := newFixture()

	req := makeRequest(makeSlot(1))
	_, err := f.svc.Book(context.Background(), []BookingRequest{req})
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestBookBatchStopsAtFirstFailure(t *testing.T) {
	free := makeSlot(1)
	taken := makeSlot(2)
	taken.IsAvailable = false
	third := makeSlot(3)
	f := newFixture(free, taken, third)

	_, err := f.svc.Book(context.Background(), []BookingRequest{
		makeRequest(free),
		makeRequest(taken),
		makeRequest(third),
	})
	require.ErrorIs(t, err, ErrSlotNotAvailable)

	// The first booking stays persisted, the third was never attempted.
	assert.Len(t, f.appts.appts, 1)
	assert.True(t, f.slots.slots[third.ID].IsAvailable)
}

func TestBookDuplicateEntryReleasesSlot(t *testing.T) {
	slot := makeSlot(4)
	f := newFixture(slot)
	f.appts.createErr = ErrDuplicateEntry

	_, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	assert.True(t, f.slots.slots[slot.ID].IsAvailable)
	assert.Empty(t, f.queue.entries)
}

func TestBookQueueFailureUndoesBooking(t *testing.T) {
	slot := makeSlot(4)
	f := newFixture(slot)
	f.queue.createErr = assert.AnError

	_, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	require.Error(t, err)

	assert.Empty(t, f.appts.appts)
	assert.True(t, f.slots.slots[slot.ID].IsAvailable)
}

func TestBookLockBusy(t *testing.T) {
	slot := makeSlot(1)
	f := newFixture(slot)
	f.svc = NewService(f.slots, f.appts, f.queue, busyLocker{}, zap.NewNop())

	_, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	assert.ErrorIs(t, err, ErrSlotBusy)
	assert.True(t, f.slots.slots[slot.ID].IsAvailable)
}

// -- Update --

func updateFrom(req BookingRequest, newSlotID uuid.UUID) UpdateRequest {
	return UpdateRequest{
		UserID:        req.UserID,
		SlotID:        newSlotID,
		Type:          req.Type,
		For:           req.For,
		ForName:       req.ForName,
		ForAge:        req.ForAge,
		Symptom:       req.Symptom,
		OtherSymptoms: req.OtherSymptoms,
		Date:          req.Date,
		DoctorID:      req.DoctorID,
		ClinicID:      req.ClinicID,
		Active:        true,
	}
}

func TestUpdateMigratesSlot(t *testing.T) {
	oldSlot := makeSlot(3)
	newSlot := makeSlot(5)
	f := newFixture(oldSlot, newSlot)

	req := makeRequest(oldSlot)
	appts, err := f.svc.Book(context.Background(), []BookingRequest{req})
	require.NoError(t, err)
	id := appts[0].ID

	updated, err := f.svc.Update(context.Background(), id, updateFrom(req, newSlot.ID))
	require.NoError(t, err)

	require.NotNil(t, updated.SlotID)
	assert.Equal(t, newSlot.ID, *updated.SlotID)
	assert.True(t, f.slots.slots[oldSlot.ID].IsAvailable)
	assert.False(t, f.slots.slots[newSlot.ID].IsAvailable)

	entry, err := f.queue.GetByAppointmentID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, newSlot.ID, entry.SlotID)
	assert.Equal(t, 5, entry.InitialQueueNo)
	assert.Equal(t, 5, entry.CurrentQueueNo)
}

func TestUpdateSameSlotKeepsClaim(t *testing.T) {
	slot := makeSlot(3)
	f := newFixture(slot)

	req := makeRequest(slot)
	appts, err := f.svc.Book(context.Background(), []BookingRequest{req})
	require.NoError(t, err)
	id := appts[0].ID

	upd := updateFrom(req, slot.ID)
	upd.OtherSymptoms = "mild dizziness"

	updated, err := f.svc.Update(context.Background(), id, upd)
	require.NoError(t, err)
	assert.Equal(t, "mild dizziness", updated.OtherSymptoms)

	// Same-slot update must not toggle availability or touch the queue.
	assert.False(t, f.slots.slots[slot.ID].IsAvailable)
	entry, err := f.queue.GetByAppointmentID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.InitialQueueNo)
}

func TestUpdateTargetSlotTaken(t *testing.T) {
	slotA := makeSlot(1)
	slotB := makeSlot(2)
	f := newFixture(slotA, slotB)

	reqA := makeRequest(slotA)
	reqB := makeRequest(slotB)
	apptsA, err := f.svc.Book(context.Background(), []BookingRequest{reqA})
	require.NoError(t, err)
	_, err = f.svc.Book(context.Background(), []BookingRequest{reqB})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), apptsA[0].ID, updateFrom(reqA, slotB.ID))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	// The original claim is untouched.
	assert.False(t, f.slots.slots[slotA.ID].IsAvailable)
}

func TestUpdateUnknownAppointment(t *testing.T) {
	slot := makeSlot(1)
	f := newFixture(slot)

	_, err := f.svc.Update(context.Background(), uuid.New(), updateFrom(makeRequest(slot), slot.ID))
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

// -- Cancel / Delete --

func TestCancelKeepsAppointmentRow(t *testing.T) {
	slot := makeSlot(2)
	f := newFixture(slot)

	appts, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	require.NoError(t, err)
	id := appts[0].ID

	require.NoError(t, f.svc.Cancel(context.Background(), id))

	appt, err := f.appts.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, appt.Active)

	_, err = f.queue.GetByAppointmentID(context.Background(), id)
	assert.ErrorIs(t, err, ErrQueueEntryNotFound)
	assert.True(t, f.slots.slots[slot.ID].IsAvailable)
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newFixture()

	err := f.svc.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestDeleteRemovesEverything(t *testing.T) {
	slot := makeSlot(2)
	f := newFixture(slot)

	appts, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	require.NoError(t, err)
	id := appts[0].ID

	require.NoError(t, f.svc.Delete(context.Background(), id))

	_, err = f.appts.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	_, err = f.queue.GetByAppointmentID(context.Background(), id)
	assert.ErrorIs(t, err, ErrQueueEntryNotFound)
	assert.True(t, f.slots.slots[slot.ID].IsAvailable)
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture()

	assert.NoError(t, f.svc.Delete(context.Background(), uuid.New()))
}

func TestRebookAfterCancel(t *testing.T) {
	slot := makeSlot(6)
	f := newFixture(slot)

	appts, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(context.Background(), appts[0].ID))

	again, err := f.svc.Book(context.Background(), []BookingRequest{makeRequest(slot)})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.False(t, f.slots.slots[slot.ID].IsAvailable)
}

// -- Sweeper --

func TestSweepQueueRemovesStaleEntries(t *testing.T) {
	f := newFixture()

	old := &QueueEntry{AppointmentID: uuid.New(), QueueDate: time.Now().AddDate(0, 0, -2)}
	cancelled := &QueueEntry{AppointmentID: uuid.New(), Cancelled: true, QueueDate: time.Now()}
	current := &QueueEntry{AppointmentID: uuid.New(), QueueDate: time.Now().Add(time.Hour)}

	for _, e := range []*QueueEntry{old, cancelled, current} {
		_, err := f.queue.Create(context.Background(), e)
		require.NoError(t, err)
	}

	n, err := f.svc.SweepQueue(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = f.queue.GetByAppointmentID(context.Background(), current.AppointmentID)
	assert.NoError(t, err)
}
