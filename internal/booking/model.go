package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentType string

const (
	TypeGeneralCheckup AppointmentType = "GENERAL_CHECKUP"
	TypeFollowUp       AppointmentType = "FOLLOW_UP"
	TypeConsultation   AppointmentType = "CONSULTATION"
	TypeEmergency      AppointmentType = "EMERGENCY"
)

type AppointmentFor string

const (
	ForSelf   AppointmentFor = "SELF"
	ForSpouse AppointmentFor = "SPOUSE"
	ForKid    AppointmentFor = "KID"
	ForParent AppointmentFor = "PARENT"
	ForOther  AppointmentFor = "OTHER"
)

type Symptom string

const (
	SymptomFever       Symptom = "FEVER"
	SymptomHeadache    Symptom = "HEADACHE"
	SymptomCough       Symptom = "COUGH"
	SymptomStomachAche Symptom = "STOMACH_ACHE"
	SymptomOther       Symptom = "OTHER"
)

// Slot is one bookable unit of doctor time within a shift. Slots are created
// out-of-band by scheduling; this service only flips IsAvailable.
type Slot struct {
	ID          uuid.UUID
	SlotNo      int // sequence number within the shift
	ShiftTime   string
	SlotTime    string
	SlotDate    time.Time
	ClinicID    uuid.UUID
	DoctorID    uuid.UUID
	IsAvailable bool
}

type Appointment struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          AppointmentType
	For           AppointmentFor
	ForName       string
	ForAge        int
	Symptom       Symptom
	OtherSymptoms string
	Date          time.Time
	SlotID        *uuid.UUID
	DoctorID      uuid.UUID
	ClinicID      uuid.UUID
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QueueEntry is the waiting-line record for one booked appointment, 1:1 with
// the appointment while it stays booked. Queue numbers start at the slot's
// sequence number; CurrentQueueNo is advanced by downstream queue progress,
// not by this service. Payment fields are stored opaquely.
type QueueEntry struct {
	ID                           uuid.UUID
	AppointmentID                uuid.UUID
	SlotID                       uuid.UUID
	ClinicID                     uuid.UUID
	DoctorID                     uuid.UUID
	InitialQueueNo               int
	CurrentQueueNo               int
	AdvancePaid                  bool
	Cancelled                    bool
	AdvanceRevertIfPaid          bool
	PatientReached               bool
	VisitStatus                  *string
	ConsultationFeePaid          bool
	ConsultationFeeAmount        *float64
	TransactionIDAdvanceFee      *string
	TransactionIDConsultationFee *string
	TransactionIDAdvanceRevert   *string
	QueueDate                    time.Time
}
