package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/registration-service/internal/booking"
	"github.com/clinicdesk/registration-service/internal/user"
)

type BookingRequest struct {
	UserID             string    `json:"user_id" validate:"required,uuid"`
	SlotID             string    `json:"slot_id" validate:"required,uuid"`
	AppointmentType    string    `json:"appointment_type" validate:"required,oneof=GENERAL_CHECKUP FOLLOW_UP CONSULTATION EMERGENCY"`
	AppointmentFor     string    `json:"appointment_for" validate:"required,oneof=SELF SPOUSE KID PARENT OTHER"`
	AppointmentForName string    `json:"appointment_for_name" validate:"required,max=150"`
	AppointmentForAge  int       `json:"appointment_for_age" validate:"gte=0,lte=120"`
	Symptom            string    `json:"symptom" validate:"required,oneof=FEVER HEADACHE COUGH STOMACH_ACHE OTHER"`
	OtherSymptoms      string    `json:"other_symptoms" validate:"max=250"`
	AppointmentDate    time.Time `json:"appointment_date" validate:"required"`
	DoctorID           string    `json:"doctor_id" validate:"required,uuid"`
	ClinicID           string    `json:"clinic_id" validate:"required,uuid"`
}

type UpdateAppointmentRequest struct {
	BookingRequest
	Active bool `json:"active"`
}

func (r BookingRequest) toBooking() booking.BookingRequest {
	return booking.BookingRequest{
		UserID:        uuid.MustParse(r.UserID),
		SlotID:        uuid.MustParse(r.SlotID),
		Type:          booking.AppointmentType(r.AppointmentType),
		For:           booking.AppointmentFor(r.AppointmentFor),
		ForName:       r.AppointmentForName,
		ForAge:        r.AppointmentForAge,
		Symptom:       booking.Symptom(r.Symptom),
		OtherSymptoms: r.OtherSymptoms,
		Date:          r.AppointmentDate,
		DoctorID:      uuid.MustParse(r.DoctorID),
		ClinicID:      uuid.MustParse(r.ClinicID),
	}
}

func (r UpdateAppointmentRequest) toUpdate() booking.UpdateRequest {
	b := r.toBooking()
	return booking.UpdateRequest{
		UserID:        b.UserID,
		SlotID:        b.SlotID,
		Type:          b.Type,
		For:           b.For,
		ForName:       b.ForName,
		ForAge:        b.ForAge,
		Symptom:       b.Symptom,
		OtherSymptoms: b.OtherSymptoms,
		Date:          b.Date,
		DoctorID:      b.DoctorID,
		ClinicID:      b.ClinicID,
		Active:        r.Active,
	}
}

type AppointmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	AppointmentType    string     `json:"appointment_type"`
	AppointmentFor     string     `json:"appointment_for"`
	AppointmentForName string     `json:"appointment_for_name"`
	AppointmentForAge  int        `json:"appointment_for_age"`
	Symptom            string     `json:"symptom"`
	OtherSymptoms      string     `json:"other_symptoms,omitempty"`
	AppointmentDate    time.Time  `json:"appointment_date"`
	SlotID             *uuid.UUID `json:"slot_id,omitempty"`
	DoctorID           uuid.UUID  `json:"doctor_id"`
	ClinicID           uuid.UUID  `json:"clinic_id"`
	Active             bool       `json:"active"`
}

func toAppointmentResponse(a booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		UserID:             a.UserID,
		AppointmentType:    string(a.Type),
		AppointmentFor:     string(a.For),
		AppointmentForName: a.ForName,
		AppointmentForAge:  a.ForAge,
		Symptom:            string(a.Symptom),
		OtherSymptoms:      a.OtherSymptoms,
		AppointmentDate:    a.Date,
		SlotID:             a.SlotID,
		DoctorID:           a.DoctorID,
		ClinicID:           a.ClinicID,
		Active:             a.Active,
	}
}

func toAppointmentResponses(appts []booking.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

type UserRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	Email       string `json:"email" validate:"omitempty,email"`
	Birthdate   string `json:"birthdate" validate:"required,datetime=2006-01-02"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	Birthdate   string    `json:"birthdate"`
}

func toUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Birthdate:   u.Birthdate.Format("2006-01-02"),
	}
}
