package clinic

import (
	"context"
	"fmt"
)

// IDAllocator issues identifiers for new doctors, patients and appointments.
type IDAllocator interface {
	NextID(ctx context.Context, kind EntityKind) (int64, error)
}

// CountAllocator numbers entities by the current row count of their kind, so
// the first id is 0 and ids stay dense while nothing is deleted.
//
// Two concurrent callers can observe the same count and receive the same id.
// The primary key rejects the second insert, but the id itself is not
// reserved; use the store's sequence allocator when callers run concurrently.
type CountAllocator struct {
	repo Repository
}

func NewCountAllocator(repo Repository) *CountAllocator {
	return &CountAllocator{repo: repo}
}

func (a *CountAllocator) NextID(ctx context.Context, kind EntityKind) (int64, error) {
	var (
		n   int
		err error
	)
	switch kind {
	case KindDoctor:
		n, err = a.repo.CountDoctors(ctx)
	case KindPatient:
		n, err = a.repo.CountPatients(ctx)
	case KindAppointment:
		n, err = a.repo.CountAppointments(ctx)
	default:
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		return 0, storeErr("count "+string(kind)+" rows", err)
	}
	return int64(n), nil
}
