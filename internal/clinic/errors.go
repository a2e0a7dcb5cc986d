package clinic

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var (
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrDepartmentNotFound  = fmt.Errorf("department %w", ErrNotFound)
)

var (
	ErrDuplicateDoctor  = errors.New("doctor with this name and specialty already exists")
	ErrDuplicatePatient = errors.New("patient already exists")
	ErrInvalidDoctor    = errors.New("doctor name and specialty are required")
	ErrInvalidGender    = errors.New("gender must be M or F")
	ErrInvalidAge       = errors.New("age must be a positive integer")

	ErrInvalidDate  = errors.New("date must be in MM/DD/YYYY form")
	ErrInvalidStart = errors.New("start time must be on the hour between 8:00 and 16:00")
	ErrInvalidEnd   = errors.New("end time must be after the start time and no later than 17:00")

	ErrSlotTaken               = errors.New("time slot is already taken")
	ErrBusy                    = errors.New("record is being updated by another request, please retry")
	ErrDoctorMismatch          = errors.New("appointment belongs to another doctor")
	ErrAppointmentPast         = errors.New("appointment date has passed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	ErrInvalidRange  = errors.New("start date must not be after end date")
	ErrInvalidStatus = errors.New("status must be one of AV, AC, WL, PA")
)

// StoreError reports a failure of the backing store that is not one of the
// anticipated domain conditions.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsNotFound reports whether err is any of the not-found conditions.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
