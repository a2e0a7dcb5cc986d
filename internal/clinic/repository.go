package clinic

import (
	"context"
	"time"
)

// Repository contains all store interactions needed by the service.
// Insert methods report unique-constraint conflicts as the matching domain
// error (ErrDuplicateDoctor, ErrDuplicatePatient, ErrSlotTaken).
type Repository interface {
	// Doctors
	CountDoctors(ctx context.Context) (int, error)
	CountDoctorsByIdentity(ctx context.Context, name, specialty string) (int, error)
	CountDoctorsInDepartment(ctx context.Context, departmentID int64) (int, error)
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	ListDoctorIDs(ctx context.Context) ([]int64, error)
	InsertDoctor(ctx context.Context, d Doctor) error

	// Patients
	CountPatients(ctx context.Context) (int, error)
	CountPatientsByIdentity(ctx context.Context, name string, gender Gender, age int, address string) (int, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	InsertPatient(ctx context.Context, p Patient) error

	// Appointments
	CountAppointments(ctx context.Context) (int, error)
	// CountAppointmentsAtSlot counts reservations (non-waitlist rows) at date and slot.
	CountAppointmentsAtSlot(ctx context.Context, date time.Time, slot TimeSlot) (int, error)
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	// GetAppointmentDoctor returns the linked doctor id, or ErrDoctorNotFound when unlinked.
	GetAppointmentDoctor(ctx context.Context, appointmentID int64) (int64, error)
	// InsertAppointment writes the appointment and its doctor link atomically.
	InsertAppointment(ctx context.Context, a Appointment, doctorID int64) error
	// ActivateAppointment moves an AV appointment to AC, attaching the doctor
	// link if none exists, in one transaction. ErrInvalidStatusTransition when
	// the row is no longer AV.
	ActivateAppointment(ctx context.Context, appointmentID, doctorID int64) error

	// Reporting
	ListDoctorAppointments(ctx context.Context, doctorID int64, from, to time.Time, statuses []Status) ([]Appointment, error)
	ListDepartmentAppointments(ctx context.Context, departmentID int64, date time.Time, status Status) ([]Appointment, error)
	ListLinkedAppointments(ctx context.Context) ([]LinkedAppointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

// Locker guards a check-then-act sequence keyed by a natural identity.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
