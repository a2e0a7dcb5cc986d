package clinic

import (
	"time"
)

type Status string

const (
	StatusAvailable  Status = "AV"
	StatusActive     Status = "AC"
	StatusWaitlisted Status = "WL"
	StatusPast       Status = "PA"
)

// statusPriority is the fixed tie-break order used when ranking status counts.
var statusPriority = [...]Status{StatusAvailable, StatusActive, StatusWaitlisted, StatusPast}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusActive, StatusWaitlisted, StatusPast:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

type EntityKind string

const (
	KindDoctor      EntityKind = "doctor"
	KindPatient     EntityKind = "patient"
	KindAppointment EntityKind = "appointment"
)

type Doctor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	DepartmentID int64  `json:"department_id"`
}

type Patient struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Gender     Gender `json:"gender"`
	Age        int    `json:"age"`
	Address    string `json:"address"`
	VisitCount int    `json:"visit_count"`
}

// Appointment dates are calendar dates stored as UTC midnight.
type Appointment struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	Slot   TimeSlot  `json:"time_slot"`
	Status Status    `json:"status"`
}

type DoctorAppointmentLink struct {
	DoctorID      int64
	AppointmentID int64
}

// LinkedAppointment is an appointment joined with the doctor that owns it.
type LinkedAppointment struct {
	Appointment
	DoctorID int64
}

type AppointmentDetail struct {
	Appointment
	EffectiveStatus Status  `json:"effective_status"`
	Doctor          *Doctor `json:"doctor,omitempty"`
}

type BookingRequest struct {
	AppointmentID int64
	DoctorID      int64
	PatientID     int64
}

type BookingResult struct {
	Appointment Appointment `json:"appointment"`
	DoctorID    int64       `json:"doctor_id"`
	PatientID   int64       `json:"patient_id"`
	// Waitlisted is set when the requested slot was already active and a
	// new waitlist entry was created instead.
	Waitlisted bool `json:"waitlisted"`
}

type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

type StatusCounts map[Status]int

type DoctorStatusBreakdown struct {
	DoctorID int64         `json:"doctor_id"`
	Counts   []StatusCount `json:"counts"`
}

type DoctorCount struct {
	DoctorID int64 `json:"doctor_id"`
	Count    int   `json:"count"`
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}
