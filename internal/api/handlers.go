package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/clinicdesk/registration-service/internal/booking"
)

// BookingService is the slice of the booking orchestrator the HTTP layer
// consumes.
type BookingService interface {
	Book(ctx context.Context, reqs []booking.BookingRequest) ([]booking.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, req booking.UpdateRequest) (*booking.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetAppointment(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
	ListAppointments(ctx context.Context, limit, offset int) ([]booking.Appointment, error)
	ListAppointmentsByUser(ctx context.Context, userID uuid.UUID) ([]booking.Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]booking.Appointment, error)
	ListAppointmentsByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]booking.Appointment, error)
	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]booking.Appointment, error)
	ListAppointmentsByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]booking.Appointment, error)
	ListAppointmentsByClinicBetween(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]booking.Appointment, error)
	ListSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]booking.Slot, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func parsePage(r *http.Request) (limit, offset int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	return size, page * size
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func parseDateParam(r *http.Request, name string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", chi.URLParam(r, name))
	return t, err == nil
}

// endOfDay stretches a to-date to include the whole day.
func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotNotAvailable):
		writeError(w, http.StatusConflict, "slot_not_available", err.Error())
	case errors.Is(err, booking.ErrSlotBusy):
		writeError(w, http.StatusConflict, "slot_being_booked", err.Error())
	case errors.Is(err, booking.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "duplicate_entry", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func createAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reqs []BookingRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if len(reqs) == 0 {
			writeError(w, http.StatusBadRequest, "empty_batch", "at least one appointment is required")
			return
		}

		bookings := make([]booking.BookingRequest, 0, len(reqs))
		for _, req := range reqs {
			if err := validate.Struct(req); err != nil {
				writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
				return
			}
			bookings = append(bookings, req.toBooking())
		}

		appts, err := svc.Book(r.Context(), bookings)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponses(appts))
	}
}

func updateAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		appt, err := svc.Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePage(r)

		appts, err := svc.ListAppointments(r.Context(), limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listAppointmentsByUserHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		appts, err := svc.ListAppointmentsByUser(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listAppointmentsByDoctorHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}
		limit, offset := parsePage(r)

		appts, err := svc.ListAppointmentsByDoctor(r.Context(), id, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listAppointmentsByClinicHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "id must be a valid UUID")
			return
		}
		limit, offset := parsePage(r)

		appts, err := svc.ListAppointmentsByClinic(r.Context(), id, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listAppointmentsBetweenHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, okFrom := parseDateParam(r, "fromDate")
		to, okTo := parseDateParam(r, "toDate")
		if !okFrom || !okTo {
			writeError(w, http.StatusBadRequest, "invalid_date", "dates must use yyyy-mm-dd")
			return
		}

		appts, err := svc.ListAppointmentsBetween(r.Context(), from, endOfDay(to))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listAppointmentsByDoctorBetweenHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "doctorId")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}
		from, okFrom := parseDateParam(r, "fromDate")
		to, okTo := parseDateParam(r, "toDate")
		if !okFrom || !okTo {
			writeError(w, http.StatusBadRequest, "invalid_date", "dates must use yyyy-mm-dd")
			return
		}

		appts, err := svc.ListAppointmentsByDoctorBetween(r.Context(), id, from, endOfDay(to))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listAppointmentsByClinicBetweenHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "clinicId")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinicId must be a valid UUID")
			return
		}
		from, okFrom := parseDateParam(r, "fromDate")
		to, okTo := parseDateParam(r, "toDate")
		if !okFrom || !okTo {
			writeError(w, http.StatusBadRequest, "invalid_date", "dates must use yyyy-mm-dd")
			return
		}

		appts, err := svc.ListAppointmentsByClinicBetween(r.Context(), id, from, endOfDay(to))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

type slotResponse struct {
	ID          uuid.UUID `json:"id"`
	SlotNo      int       `json:"slot_no"`
	ShiftTime   string    `json:"shift_time"`
	SlotTime    string    `json:"slot_time"`
	SlotDate    string    `json:"slot_date"`
	ClinicID    uuid.UUID `json:"clinic_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	IsAvailable bool      `json:"is_available"`
}

func listSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "doctorId")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}
		date, okDate := parseDateParam(r, "date")
		if !okDate {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must use yyyy-mm-dd")
			return
		}

		slots, err := svc.ListSlots(r.Context(), id, date)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]slotResponse, 0, len(slots))
		for _, s := range slots {
			out = append(out, slotResponse{
				ID:          s.ID,
				SlotNo:      s.SlotNo,
				ShiftTime:   s.ShiftTime,
				SlotTime:    s.SlotTime,
				SlotDate:    s.SlotDate.Format("2006-01-02"),
				ClinicID:    s.ClinicID,
				DoctorID:    s.DoctorID,
				IsAvailable: s.IsAvailable,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}
