package main

import (
	"bytes"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestTallySummary(t *testing.T) {
	var tl tally
	if total, _, _, _ := tl.summary(); total != 0 {
		t.Errorf("expected empty tally, got %d", total)
	}

	for i := 1; i <= 20; i++ {
		o := outcomeOK
		if i%5 == 0 {
			o = outcomeConflict
		}
		tl.add(o, time.Duration(21-i)*time.Millisecond)
	}

	total, counts, p50, p95 := tl.summary()
	if total != 20 {
		t.Errorf("expected 20 calls, got %d", total)
	}
	if counts[outcomeOK] != 16 || counts[outcomeConflict] != 4 || counts[outcomeFailed] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
	if p50 != 11*time.Millisecond {
		t.Errorf("expected p50 11ms, got %s", p50)
	}
	if p95 != 20*time.Millisecond {
		t.Errorf("expected p95 20ms, got %s", p95)
	}
}

func TestNext_HonoursWeights(t *testing.T) {
	s := &simulator{cfg: simConfig{createWeight: 0, bookWeight: 1, readWeight: 0}}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		if op := s.next(rng); op.name != "book appointment" {
			t.Fatalf("expected only bookings, got %q", op.name)
		}
	}

	s.cfg = simConfig{readWeight: 1}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[s.next(rng).name] = true
	}
	for _, name := range opNames(readOps) {
		if !seen[name] {
			t.Errorf("expected read operation %q to be chosen", name)
		}
	}
	if seen["create appointment"] || seen["book appointment"] {
		t.Errorf("expected reads only, got %v", seen)
	}
}

func TestEnvParsed(t *testing.T) {
	t.Setenv("SIM_WORKERS", "25")
	t.Setenv("SIM_DURATION", "soon")

	if got := envParsed("SIM_WORKERS", 10, strconv.Atoi); got != 25 {
		t.Errorf("expected 25, got %d", got)
	}
	if got := envParsed("SIM_DURATION", time.Minute, time.ParseDuration); got != time.Minute {
		t.Errorf("expected fallback on parse error, got %s", got)
	}
	if got := envParsed("SIM_UNSET_FOR_TEST", 7, strconv.Atoi); got != 7 {
		t.Errorf("expected default, got %d", got)
	}
}

func TestReport_SkipsIdleOperations(t *testing.T) {
	s := &simulator{cfg: simConfig{workers: 2, duration: time.Second}, tallies: map[string]*tally{}}
	for _, name := range append([]string{"create appointment", "book appointment"}, opNames(readOps)...) {
		s.tallies[name] = &tally{}
	}
	s.tallies["book appointment"].add(outcomeConflict, 3*time.Millisecond)

	var out bytes.Buffer
	s.report(&out)
	if !strings.Contains(out.String(), "book appointment") {
		t.Errorf("expected booking row, got:\n%s", out.String())
	}
	if strings.Contains(out.String(), "create appointment") {
		t.Errorf("expected idle operations to be skipped, got:\n%s", out.String())
	}
}
