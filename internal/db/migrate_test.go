package db

import (
	"strings"
	"testing"
)

func TestSchema_DeclaresUniquenessConstraints(t *testing.T) {
	schema := Schema()
	for _, want := range []string{
		"doctor_identity_key UNIQUE (name, specialty)",
		"patient_identity_key UNIQUE (name, gtype, age, address)",
		"appointment_slot_key",
		"WHERE status <> 'WL'",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("expected schema to contain %q", want)
		}
	}
}

func TestSchema_SequencesStartAtZero(t *testing.T) {
	schema := Schema()
	for _, seq := range []string{"doctor_id_seq", "patient_id_seq", "appointment_id_seq"} {
		if !strings.Contains(schema, "CREATE SEQUENCE IF NOT EXISTS "+seq+" MINVALUE 0 START 0") {
			t.Errorf("expected sequence %s to start at 0", seq)
		}
	}
}

func TestSchema_IsIdempotent(t *testing.T) {
	for _, stmt := range strings.Split(Schema(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Errorf("statement is not idempotent: %s", stmt)
		}
	}
}

func TestPoolOptions_Defaults(t *testing.T) {
	opts := PoolOptions{}.withDefaults()
	if opts.MaxConns != 10 {
		t.Errorf("expected MaxConns 10, got %d", opts.MaxConns)
	}
	if opts.MinConns != 1 {
		t.Errorf("expected MinConns 1, got %d", opts.MinConns)
	}

	custom := PoolOptions{MaxConns: 25}.withDefaults()
	if custom.MaxConns != 25 {
		t.Errorf("expected MaxConns 25, got %d", custom.MaxConns)
	}
}
