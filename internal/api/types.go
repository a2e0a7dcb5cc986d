package api

import (
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// Dates cross the API as MM/DD/YYYY.
const dateFormat = "01/02/2006"

type RegisterDoctorRequest struct {
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	DepartmentID int64  `json:"department_id"`
}

type RegisterPatientRequest struct {
	Name    string `json:"name"`
	Gender  string `json:"gender"`
	Age     int    `json:"age"`
	Address string `json:"address"`
}

type CreateAppointmentRequest struct {
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type BookAppointmentRequest struct {
	DoctorID  int64 `json:"doctor_id"`
	PatientID int64 `json:"patient_id"`
}

type AppointmentResponse struct {
	ID              int64          `json:"id"`
	Date            string         `json:"date"`
	TimeSlot        string         `json:"time_slot"`
	Status          string         `json:"status"`
	EffectiveStatus string         `json:"effective_status,omitempty"`
	Doctor          *clinic.Doctor `json:"doctor,omitempty"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

type BookingResponse struct {
	Appointment AppointmentResponse `json:"appointment"`
	DoctorID    int64               `json:"doctor_id"`
	PatientID   int64               `json:"patient_id"`
	Waitlisted  bool                `json:"waitlisted"`
}

type StatusBreakdownResponse struct {
	Doctors []clinic.DoctorStatusBreakdown `json:"doctors"`
}

type PatientCountResponse struct {
	Status  string               `json:"status"`
	Doctors []clinic.DoctorCount `json:"doctors"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:       a.ID,
		Date:     a.Date.Format(dateFormat),
		TimeSlot: a.Slot.String(),
		Status:   string(a.Status),
	}
}

func toAppointmentList(appts []clinic.Appointment) AppointmentListResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return AppointmentListResponse{Appointments: out}
}
