// Package clinictest provides in-memory implementations of the clinic store
// and locker for tests.
package clinictest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// MemoryRepository is a map-backed clinic.Repository that enforces the same
// uniqueness rules as the Postgres schema. It also implements
// clinic.IDAllocator with one sequence per entity kind starting at 0.
type MemoryRepository struct {
	mu sync.Mutex

	doctors      map[int64]clinic.Doctor
	patients     map[int64]clinic.Patient
	appointments map[int64]clinic.Appointment
	links        map[int64]int64 // appointment id -> doctor id
	events       []clinic.EventLog
	sequences    map[clinic.EntityKind]int64

	// Err, when set, is returned by every method to simulate an unavailable store.
	Err error
	// EventErr, when set, is returned by InsertEvent only.
	EventErr error
}

var (
	_ clinic.Repository  = (*MemoryRepository)(nil)
	_ clinic.IDAllocator = (*MemoryRepository)(nil)
)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		doctors:      make(map[int64]clinic.Doctor),
		patients:     make(map[int64]clinic.Patient),
		appointments: make(map[int64]clinic.Appointment),
		links:        make(map[int64]int64),
		sequences:    make(map[clinic.EntityKind]int64),
	}
}

func (m *MemoryRepository) NextID(_ context.Context, kind clinic.EntityKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	id := m.sequences[kind]
	m.sequences[kind] = id + 1
	return id, nil
}

// Events returns a copy of the event log.
func (m *MemoryRepository) Events() []clinic.EventLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]clinic.EventLog(nil), m.events...)
}

// SetStatus overwrites an appointment's stored status.
func (m *MemoryRepository) SetStatus(id int64, status clinic.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.appointments[id]
	a.Status = status
	m.appointments[id] = a
}

// PutAppointment stores an appointment directly, bypassing the slot check.
// doctorID < 0 leaves it unlinked.
func (m *MemoryRepository) PutAppointment(a clinic.Appointment, doctorID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[a.ID] = a
	if doctorID >= 0 {
		m.links[a.ID] = doctorID
	}
}

func (m *MemoryRepository) CountDoctors(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.doctors), nil
}

func (m *MemoryRepository) CountDoctorsByIdentity(_ context.Context, name, specialty string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := 0
	for _, d := range m.doctors {
		if d.Name == name && d.Specialty == specialty {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) CountDoctorsInDepartment(_ context.Context, departmentID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := 0
	for _, d := range m.doctors {
		if d.DepartmentID == departmentID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) GetDoctor(_ context.Context, id int64) (*clinic.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	d, ok := m.doctors[id]
	if !ok {
		return nil, clinic.ErrDoctorNotFound
	}
	return &d, nil
}

func (m *MemoryRepository) ListDoctorIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ids := make([]int64, 0, len(m.doctors))
	for id := range m.doctors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemoryRepository) InsertDoctor(_ context.Context, d clinic.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.doctors[d.ID]; ok {
		return fmt.Errorf("doctor %d already exists", d.ID)
	}
	for _, existing := range m.doctors {
		if existing.Name == d.Name && existing.Specialty == d.Specialty {
			return clinic.ErrDuplicateDoctor
		}
	}
	m.doctors[d.ID] = d
	return nil
}

func (m *MemoryRepository) CountPatients(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.patients), nil
}

func (m *MemoryRepository) CountPatientsByIdentity(_ context.Context, name string, gender clinic.Gender, age int, address string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := 0
	for _, p := range m.patients {
		if samePatient(p, name, gender, age, address) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) GetPatient(_ context.Context, id int64) (*clinic.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, clinic.ErrPatientNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) InsertPatient(_ context.Context, p clinic.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.patients[p.ID]; ok {
		return fmt.Errorf("patient %d already exists", p.ID)
	}
	for _, existing := range m.patients {
		if samePatient(existing, p.Name, p.Gender, p.Age, p.Address) {
			return clinic.ErrDuplicatePatient
		}
	}
	m.patients[p.ID] = p
	return nil
}

func samePatient(p clinic.Patient, name string, gender clinic.Gender, age int, address string) bool {
	return p.Name == name && p.Gender == gender && p.Age == age && p.Address == address
}

func (m *MemoryRepository) CountAppointments(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.appointments), nil
}

func (m *MemoryRepository) CountAppointmentsAtSlot(_ context.Context, date time.Time, slot clinic.TimeSlot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.reservedAt(date, slot), nil
}

func (m *MemoryRepository) reservedAt(date time.Time, slot clinic.TimeSlot) int {
	n := 0
	for _, a := range m.appointments {
		if a.Status != clinic.StatusWaitlisted && a.Date.Equal(date) && a.Slot == slot {
			n++
		}
	}
	return n
}

func (m *MemoryRepository) GetAppointment(_ context.Context, id int64) (*clinic.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, clinic.ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *MemoryRepository) GetAppointmentDoctor(_ context.Context, appointmentID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	id, ok := m.links[appointmentID]
	if !ok {
		return 0, clinic.ErrDoctorNotFound
	}
	return id, nil
}

func (m *MemoryRepository) InsertAppointment(_ context.Context, a clinic.Appointment, doctorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.appointments[a.ID]; ok {
		return fmt.Errorf("appointment %d already exists", a.ID)
	}
	if _, ok := m.doctors[doctorID]; !ok {
		return clinic.ErrDoctorNotFound
	}
	if a.Status != clinic.StatusWaitlisted && m.reservedAt(a.Date, a.Slot) > 0 {
		return clinic.ErrSlotTaken
	}
	m.appointments[a.ID] = a
	m.links[a.ID] = doctorID
	return nil
}

func (m *MemoryRepository) ActivateAppointment(_ context.Context, appointmentID, doctorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.appointments[appointmentID]
	if !ok {
		return clinic.ErrAppointmentNotFound
	}
	if a.Status != clinic.StatusAvailable {
		return clinic.ErrInvalidStatusTransition
	}
	a.Status = clinic.StatusActive
	m.appointments[appointmentID] = a
	if _, linked := m.links[appointmentID]; !linked {
		m.links[appointmentID] = doctorID
	}
	return nil
}

func (m *MemoryRepository) ListDoctorAppointments(_ context.Context, doctorID int64, from, to time.Time, statuses []clinic.Status) ([]clinic.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []clinic.Appointment
	for id, a := range m.appointments {
		if linked, ok := m.links[id]; !ok || linked != doctorID {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) || !containsStatus(statuses, a.Status) {
			continue
		}
		out = append(out, a)
	}
	sortAppointments(out)
	return out, nil
}

func (m *MemoryRepository) ListDepartmentAppointments(_ context.Context, departmentID int64, date time.Time, status clinic.Status) ([]clinic.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []clinic.Appointment
	for id, a := range m.appointments {
		doctorID, ok := m.links[id]
		if !ok || m.doctors[doctorID].DepartmentID != departmentID {
			continue
		}
		if !a.Date.Equal(date) || a.Status != status {
			continue
		}
		out = append(out, a)
	}
	sortAppointments(out)
	return out, nil
}

func (m *MemoryRepository) ListLinkedAppointments(_ context.Context) ([]clinic.LinkedAppointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]clinic.LinkedAppointment, 0, len(m.links))
	for id, doctorID := range m.links {
		out = append(out, clinic.LinkedAppointment{Appointment: m.appointments[id], DoctorID: doctorID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DoctorID != out[j].DoctorID {
			return out[i].DoctorID < out[j].DoctorID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) InsertEvent(_ context.Context, ev clinic.EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.EventErr != nil {
		return m.EventErr
	}
	ev.ID = int64(len(m.events) + 1)
	m.events = append(m.events, ev)
	return nil
}

func containsStatus(statuses []clinic.Status, s clinic.Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func sortAppointments(appts []clinic.Appointment) {
	sort.Slice(appts, func(i, j int) bool { return appts[i].ID < appts[j].ID })
}
