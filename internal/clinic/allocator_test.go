package clinic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/clinic/clinictest"
)

func TestCountAllocator(t *testing.T) {
	ctx := context.Background()
	repo := clinictest.NewMemoryRepository()
	alloc := clinic.NewCountAllocator(repo)

	id, err := alloc.NextID(ctx, clinic.KindDoctor)
	if err != nil || id != 0 {
		t.Fatalf("first doctor id = %d, %v; want 0", id, err)
	}

	if err := repo.InsertDoctor(ctx, clinic.Doctor{ID: 0, Name: "A", Specialty: "B"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertDoctor(ctx, clinic.Doctor{ID: 1, Name: "C", Specialty: "D"}); err != nil {
		t.Fatal(err)
	}

	if id, _ := alloc.NextID(ctx, clinic.KindDoctor); id != 2 {
		t.Errorf("expected next doctor id 2, got %d", id)
	}
	if id, _ := alloc.NextID(ctx, clinic.KindPatient); id != 0 {
		t.Errorf("expected patient ids to be counted separately, got %d", id)
	}
	if id, _ := alloc.NextID(ctx, clinic.KindAppointment); id != 0 {
		t.Errorf("expected first appointment id 0, got %d", id)
	}
}

func TestCountAllocator_Errors(t *testing.T) {
	ctx := context.Background()
	repo := clinictest.NewMemoryRepository()
	alloc := clinic.NewCountAllocator(repo)

	if _, err := alloc.NextID(ctx, clinic.EntityKind("nurse")); err == nil {
		t.Error("expected error for unknown kind")
	}

	repo.Err = errors.New("timeout")
	_, err := alloc.NextID(ctx, clinic.KindPatient)
	var se *clinic.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %v", err)
	}
}

func TestMemorySequence_StartsAtZeroPerKind(t *testing.T) {
	ctx := context.Background()
	repo := clinictest.NewMemoryRepository()

	for want := int64(0); want < 3; want++ {
		if got, _ := repo.NextID(ctx, clinic.KindAppointment); got != want {
			t.Errorf("expected appointment id %d, got %d", want, got)
		}
	}
	if got, _ := repo.NextID(ctx, clinic.KindDoctor); got != 0 {
		t.Errorf("expected doctor sequence to start at 0, got %d", got)
	}
}
