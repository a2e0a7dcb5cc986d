package clinic_test

import (
	"context"
	"testing"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/clinic/clinictest"
)

// Fixed "now" for every test: 04/01/2025 midday UTC.
var testNow = time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	svc    *clinic.Service
	repo   *clinictest.MemoryRepository
	locker *clinictest.Locker
}

func newFixture(t *testing.T, opts ...clinic.Option) *fixture {
	t.Helper()
	repo := clinictest.NewMemoryRepository()
	locker := clinictest.NewLocker()
	opts = append([]clinic.Option{clinic.WithClock(fixedClock)}, opts...)
	return &fixture{
		svc:    clinic.NewService(repo, repo, locker, opts...),
		repo:   repo,
		locker: locker,
	}
}

func (f *fixture) doctor(t *testing.T, name, specialty string, dept int64) *clinic.Doctor {
	t.Helper()
	d, err := f.svc.RegisterDoctor(context.Background(), name, specialty, dept)
	if err != nil {
		t.Fatalf("register doctor %q: %v", name, err)
	}
	return d
}

func (f *fixture) patient(t *testing.T, name string) *clinic.Patient {
	t.Helper()
	p, err := f.svc.RegisterPatient(context.Background(), name, "F", 30, "12 Elm St")
	if err != nil {
		t.Fatalf("register patient %q: %v", name, err)
	}
	return p
}

func (f *fixture) appointment(t *testing.T, date, start, end string, doctorID int64) *clinic.Appointment {
	t.Helper()
	a, err := f.svc.CreateAppointment(context.Background(), date, start, end, doctorID)
	if err != nil {
		t.Fatalf("create appointment %s %s-%s: %v", date, start, end, err)
	}
	return a
}

func mustDate(t *testing.T, text string) time.Time {
	t.Helper()
	d, err := clinic.ParseDate(text)
	if err != nil {
		t.Fatalf("parse date %q: %v", text, err)
	}
	return d
}
