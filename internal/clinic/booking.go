package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EffectiveStatus classifies an appointment at read time: anything dated
// before today is past, regardless of its stored status.
func EffectiveStatus(status Status, date, today time.Time) Status {
	if civilDate(date).Before(civilDate(today)) {
		return StatusPast
	}
	return status
}

func slotLockKey(date time.Time, slot TimeSlot) string {
	return fmt.Sprintf("slot:%s:%s", date.Format("2006-01-02"), slot)
}

// CreateAppointment validates the requested slot and reserves it as an
// available appointment owned by doctorID. The appointment and its doctor
// link are written together or not at all.
func (s *Service) CreateAppointment(ctx context.Context, dateText, startText, endText string, doctorID int64) (*Appointment, error) {
	date, slot, err := ValidateSlot(dateText, startText, endText)
	if err != nil {
		return nil, err
	}

	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.withLock(ctx, slotLockKey(date, slot), func(lockCtx context.Context) error {
		// Re-check inside the critical section; a concurrent request may have
		// reserved the slot since validation.
		n, err := s.repo.CountAppointmentsAtSlot(lockCtx, date, slot)
		if err != nil {
			return storeErr("check slot", err)
		}
		if n > 0 {
			return ErrSlotTaken
		}

		id, err := s.nextID(lockCtx, KindAppointment)
		if err != nil {
			return err
		}

		a := Appointment{ID: id, Date: date, Slot: slot, Status: StatusAvailable}
		if err := s.repo.InsertAppointment(lockCtx, a, doctorID); err != nil {
			if passThrough(err, ErrSlotTaken) {
				return err
			}
			return storeErr("insert appointment", err)
		}
		created = &a

		s.logEvent(lockCtx, a.ID, EventAppointmentCreated, map[string]any{
			"doctor_id": doctorID,
			"date":      date.Format("2006-01-02"),
			"time_slot": slot.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// BookAppointment reserves an appointment for a patient. An available
// appointment becomes active; an already active one is left untouched and a
// new waitlist entry for the same slot and doctor is created instead.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if err := s.requireDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPatient(ctx, req.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, storeErr("load patient", err)
	}

	var result *BookingResult

	err := s.withLock(ctx, fmt.Sprintf("appointment:%d", req.AppointmentID), func(lockCtx context.Context) error {
		appt, err := s.repo.GetAppointment(lockCtx, req.AppointmentID)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return storeErr("load appointment", err)
		}

		if EffectiveStatus(appt.Status, appt.Date, s.today()) == StatusPast {
			return ErrAppointmentPast
		}

		linked, err := s.repo.GetAppointmentDoctor(lockCtx, appt.ID)
		switch {
		case errors.Is(err, ErrDoctorNotFound):
			// Unlinked: the booking doctor is attached below.
		case err != nil:
			return storeErr("load appointment doctor", err)
		case linked != req.DoctorID:
			return ErrDoctorMismatch
		}

		switch appt.Status {
		case StatusAvailable:
			if err := s.repo.ActivateAppointment(lockCtx, appt.ID, req.DoctorID); err != nil {
				if passThrough(err, ErrInvalidStatusTransition, ErrAppointmentNotFound) {
					return err
				}
				return storeErr("activate appointment", err)
			}
			appt.Status = StatusActive
			result = &BookingResult{Appointment: *appt, DoctorID: req.DoctorID, PatientID: req.PatientID}

			s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
				"doctor_id":  req.DoctorID,
				"patient_id": req.PatientID,
			})

		case StatusActive:
			id, err := s.nextID(lockCtx, KindAppointment)
			if err != nil {
				return err
			}
			wl := Appointment{ID: id, Date: appt.Date, Slot: appt.Slot, Status: StatusWaitlisted}
			if err := s.repo.InsertAppointment(lockCtx, wl, req.DoctorID); err != nil {
				return storeErr("insert waitlist entry", err)
			}
			result = &BookingResult{Appointment: wl, DoctorID: req.DoctorID, PatientID: req.PatientID, Waitlisted: true}

			s.logEvent(lockCtx, wl.ID, EventAppointmentWaitlisted, map[string]any{
				"doctor_id":      req.DoctorID,
				"patient_id":     req.PatientID,
				"waitlisted_for": appt.ID,
			})

		default:
			return fmt.Errorf("%w: cannot book appointment in status %s", ErrInvalidStatusTransition, appt.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetAppointment returns an appointment with its effective status and owning doctor.
func (s *Service) GetAppointment(ctx context.Context, id int64) (*AppointmentDetail, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, storeErr("load appointment", err)
	}

	detail := &AppointmentDetail{
		Appointment:     *appt,
		EffectiveStatus: EffectiveStatus(appt.Status, appt.Date, s.today()),
	}

	doctorID, err := s.repo.GetAppointmentDoctor(ctx, id)
	switch {
	case errors.Is(err, ErrDoctorNotFound):
		return detail, nil
	case err != nil:
		return nil, storeErr("load appointment doctor", err)
	}

	doc, err := s.repo.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, storeErr("load doctor", err)
	}
	detail.Doctor = doc

	return detail, nil
}

func (s *Service) requireDoctor(ctx context.Context, id int64) error {
	if _, err := s.repo.GetDoctor(ctx, id); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return fmt.Errorf("%w: %d", ErrDoctorNotFound, id)
		}
		return storeErr("load doctor", err)
	}
	return nil
}
