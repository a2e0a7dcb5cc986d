package clinic

import (
	"context"
	"fmt"
	"strings"
)

// ValidateGender accepts exactly "M" or "F".
func ValidateGender(text string) (Gender, error) {
	switch g := Gender(text); g {
	case GenderMale, GenderFemale:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGender, text)
}

// RegisterDoctor creates a doctor unless one with the same name and
// specialty already exists.
func (s *Service) RegisterDoctor(ctx context.Context, name, specialty string, departmentID int64) (*Doctor, error) {
	name = strings.TrimSpace(name)
	specialty = strings.TrimSpace(specialty)
	if name == "" || specialty == "" {
		return nil, ErrInvalidDoctor
	}

	var created *Doctor
	key := fmt.Sprintf("doctor:%s|%s", name, specialty)

	err := s.withLock(ctx, key, func(lockCtx context.Context) error {
		n, err := s.repo.CountDoctorsByIdentity(lockCtx, name, specialty)
		if err != nil {
			return storeErr("check duplicate doctor", err)
		}
		if n > 0 {
			return ErrDuplicateDoctor
		}

		id, err := s.nextID(lockCtx, KindDoctor)
		if err != nil {
			return err
		}

		d := Doctor{ID: id, Name: name, Specialty: specialty, DepartmentID: departmentID}
		if err := s.repo.InsertDoctor(lockCtx, d); err != nil {
			if passThrough(err, ErrDuplicateDoctor) {
				return err
			}
			return storeErr("insert doctor", err)
		}
		created = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RegisterPatient creates a patient with a zero visit count unless the same
// (name, gender, age, address) is already registered.
func (s *Service) RegisterPatient(ctx context.Context, name, gender string, age int, address string) (*Patient, error) {
	g, err := ValidateGender(gender)
	if err != nil {
		return nil, err
	}
	if age <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAge, age)
	}
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	var created *Patient
	key := fmt.Sprintf("patient:%s|%s|%d|%s", name, g, age, address)

	err = s.withLock(ctx, key, func(lockCtx context.Context) error {
		n, err := s.repo.CountPatientsByIdentity(lockCtx, name, g, age, address)
		if err != nil {
			return storeErr("check duplicate patient", err)
		}
		if n > 0 {
			return ErrDuplicatePatient
		}

		id, err := s.nextID(lockCtx, KindPatient)
		if err != nil {
			return err
		}

		p := Patient{ID: id, Name: name, Gender: g, Age: age, Address: address}
		if err := s.repo.InsertPatient(lockCtx, p); err != nil {
			if passThrough(err, ErrDuplicatePatient) {
				return err
			}
			return storeErr("insert patient", err)
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
