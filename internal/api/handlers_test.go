package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicdesk/registration-service/internal/booking"
	"github.com/clinicdesk/registration-service/internal/user"
)

// fakeBookingService returns canned results; handler tests only exercise
// decoding, validation and error mapping.
type fakeBookingService struct {
	bookErr   error
	updateErr error
	cancelErr error
	deleteErr error
	getErr    error
}

func (f *fakeBookingService) Book(_ context.Context, reqs []booking.BookingRequest) ([]booking.Appointment, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	out := make([]booking.Appointment, 0, len(reqs))
	for _, r := range reqs {
		slotID := r.SlotID
		out = append(out, booking.Appointment{
			ID:       uuid.New(),
			UserID:   r.UserID,
			Type:     r.Type,
			For:      r.For,
			ForName:  r.ForName,
			ForAge:   r.ForAge,
			Symptom:  r.Symptom,
			Date:     r.Date,
			SlotID:   &slotID,
			DoctorID: r.DoctorID,
			ClinicID: r.ClinicID,
			Active:   true,
		})
	}
	return out, nil
}

func (f *fakeBookingService) Update(_ context.Context, id uuid.UUID, req booking.UpdateRequest) (*booking.Appointment, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	slotID := req.SlotID
	return &booking.Appointment{ID: id, SlotID: &slotID, Active: req.Active}, nil
}

func (f *fakeBookingService) Cancel(context.Context, uuid.UUID) error { return f.cancelErr }
func (f *fakeBookingService) Delete(context.Context, uuid.UUID) error { return f.deleteErr }

func (f *fakeBookingService) GetAppointment(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &booking.Appointment{ID: id, Active: true}, nil
}

func (f *fakeBookingService) ListAppointments(context.Context, int, int) ([]booking.Appointment, error) {
	return nil, nil
}
func (f *fakeBookingService) ListAppointmentsByUser(context.Context, uuid.UUID) ([]booking.Appointment, error) {
	return nil, nil
}
func (f *fakeBookingService) ListAppointmentsByDoctor(context.Context, uuid.UUID, int, int) ([]booking.Appointment, error) {
	return nil, nil
}
func (f *fakeBookingService) ListAppointmentsByClinic(context.Context, uuid.UUID, int, int) ([]booking.Appointment, error) {
	return nil, nil
}
func (f *fakeBookingService) ListAppointmentsBetween(context.Context, time.Time, time.Time) ([]booking.Appointment, error) {
	return nil, nil
}
func (f *fakeBookingService) ListAppointmentsByDoctorBetween(context.Context, uuid.UUID, time.Time, time.Time) ([]booking.Appointment, error) {
	return nil, nil
}
func (f *fakeBookingService) ListAppointmentsByClinicBetween(context.Context, uuid.UUID, time.Time, time.Time) ([]booking.Appointment, error) {
	return nil, nil
}
func (f *fakeBookingService) ListSlots(context.Context, uuid.UUID, time.Time) ([]booking.Slot, error) {
	return nil, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByPhoneNumber(_ context.Context, phone string) (*user.User, error) {
	for _, u := range s.users {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (s *fakeUserStore) List(context.Context, int, int) ([]user.User, error) {
	var out []user.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *user.User) (*user.User, error) {
	u.ID = uuid.New()
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) Update(_ context.Context, u *user.User) (*user.User, error) {
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.users, id)
	return nil
}

func newTestRouter(svc BookingService, users user.Store) http.Handler {
	return NewRouter(RouterConfig{
		Service: svc,
		Users:   users,
		Logger:  zap.NewNop(),
		Env:     "test",
		Version: "test",
	})
}

func validBookingBody() []map[string]any {
	return []map[string]any{{
		"user_id":              uuid.NewString(),
		"slot_id":              uuid.NewString(),
		"appointment_type":     "GENERAL_CHECKUP",
		"appointment_for":      "SELF",
		"appointment_for_name": "Asha Rao",
		"appointment_for_age":  34,
		"symptom":              "FEVER",
		"appointment_date":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"doctor_id":            uuid.NewString(),
		"clinic_id":            uuid.NewString(),
	}}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppointmentsSuccess(t *testing.T) {
	router := newTestRouter(&fakeBookingService{}, newFakeUserStore())

	rec := doRequest(t, router, http.MethodPost, "/v1/appointments", validBookingBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp []AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.True(t, resp[0].Active)
	assert.NotNil(t, resp[0].SlotID)
}

func TestCreateAppointmentsValidation(t *testing.T) {
	router := newTestRouter(&fakeBookingService{}, newFakeUserStore())

	body := validBookingBody()
	body[0]["appointment_type"] = "HOUSE_CALL"

	rec := doRequest(t, router, http.MethodPost, "/v1/appointments", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAppointmentsEmptyBatch(t *testing.T) {
	router := newTestRouter(&fakeBookingService{}, newFakeUserStore())

	rec := doRequest(t, router, http.MethodPost, "/v1/appointments", []map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAppointmentsSlotConflict(t *testing.T) {
	router := newTestRouter(&fakeBookingService{bookErr: booking.ErrSlotNotAvailable}, newFakeUserStore())

	rec := doRequest(t, router, http.MethodPost, "/v1/appointments", validBookingBody())
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slot_not_available", resp.Error)
}

func TestUpdateAppointmentNotFound(t *testing.T) {
	router := newTestRouter(&fakeBookingService{updateErr: booking.ErrAppointmentNotFound}, newFakeUserStore())

	body := validBookingBody()[0]
	body["active"] = true

	rec := doRequest(t, router, http.MethodPut, "/v1/appointments/"+uuid.NewString(), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAppointmentNoContent(t *testing.T) {
	router := newTestRouter(&fakeBookingService{}, newFakeUserStore())

	rec := doRequest(t, router, http.MethodDelete, "/v1/appointment/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetAppointmentBadID(t *testing.T) {
	router := newTestRouter(&fakeBookingService{}, newFakeUserStore())

	rec := doRequest(t, router, http.MethodGet, "/v1/appointment/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserInvalidPhone(t *testing.T) {
	router := newTestRouter(&fakeBookingService{}, newFakeUserStore())

	rec := doRequest(t, router, http.MethodPost, "/v1/user", map[string]any{
		"name":         "Deepak Sharma",
		"phone_number": "12345",
		"birthdate":    "1990-04-02",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndFetchUser(t *testing.T) {
	store := newFakeUserStore()
	router := newTestRouter(&fakeBookingService{}, store)

	rec := doRequest(t, router, http.MethodPost, "/v1/user", map[string]any{
		"name":         "Deepak Sharma",
		"phone_number": "+919876543210",
		"email":        "deepak@example.com",
		"birthdate":    "1990-04-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, router, http.MethodGet, "/v1/user/by/id/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "Deepak Sharma", fetched.Name)
	assert.Equal(t, "1990-04-02", fetched.Birthdate)
}
