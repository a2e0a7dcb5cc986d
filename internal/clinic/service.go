package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	EventAppointmentCreated    = "APPOINTMENT_CREATED"
	EventAppointmentBooked     = "APPOINTMENT_BOOKED"
	EventAppointmentWaitlisted = "APPOINTMENT_WAITLISTED"
)

type Service struct {
	repo   Repository
	ids    IDAllocator
	locker Locker

	now          func() time.Time
	location     *time.Location
	onEventError func(eventType string, err error)
}

type Option func(*Service)

// WithClock overrides the time source used to derive "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the clinic's timezone for deciding which dates have passed.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithEventErrorHandler receives event-log write failures, which never fail
// the operation that produced the event.
func WithEventErrorHandler(fn func(eventType string, err error)) Option {
	return func(s *Service) { s.onEventError = fn }
}

func NewService(repo Repository, ids IDAllocator, locker Locker, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		ids:      ids,
		locker:   locker,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the current calendar date in the clinic's timezone, as UTC midnight.
func (s *Service) today() time.Time {
	return civilDate(s.now().In(s.location))
}

func (s *Service) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, key, fn)
}

func (s *Service) nextID(ctx context.Context, kind EntityKind) (int64, error) {
	id, err := s.ids.NextID(ctx, kind)
	if err != nil {
		return 0, storeErr("allocate "+string(kind)+" id", err)
	}
	return id, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.reportEventError(eventType, fmt.Errorf("marshal payload: %w", err))
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.reportEventError(eventType, err)
	}
}

func (s *Service) reportEventError(eventType string, err error) {
	if s.onEventError != nil {
		s.onEventError(eventType, err)
	}
}

// passThrough reports whether err is one of the domain errors the
// repository is allowed to return as-is.
func passThrough(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
