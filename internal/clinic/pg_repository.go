package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var sequenceByKind = map[EntityKind]string{
	KindDoctor:      "doctor_id_seq",
	KindPatient:     "patient_id_seq",
	KindAppointment: "appointment_id_seq",
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// NextID draws from the per-kind Postgres sequence, so concurrent callers
// never share an id.
func (r *PgRepository) NextID(ctx context.Context, kind EntityKind) (int64, error) {
	seq, ok := sequenceByKind[kind]
	if !ok {
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval($1::regclass)`, seq).Scan(&id); err != nil {
		return 0, fmt.Errorf("nextval %s: %w", seq, err)
	}
	return id, nil
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Gender, &p.Age, &p.Address, &p.VisitCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanAppointment(row pgx.Row, extra ...any) (*Appointment, error) {
	var a Appointment
	var slot string

	dest := append([]any{&a.ID, &a.Date, &slot, &a.Status}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	ts, err := ParseTimeSlot(slot)
	if err != nil {
		return nil, err
	}
	a.Slot = ts
	a.Date = civilDate(a.Date)
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// translateConstraint maps constraint violations to the domain error for the
// invariant they protect.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case "doctor_identity_key":
			return ErrDuplicateDoctor
		case "patient_identity_key":
			return ErrDuplicatePatient
		case "appointment_slot_key":
			return ErrSlotTaken
		}
	case pgForeignKeyViolation:
		if pgErr.ConstraintName == "has_appointment_doctor_id_fkey" {
			return ErrDoctorNotFound
		}
	}
	return err
}

func (r *PgRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Doctors

func (r *PgRepository) CountDoctors(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM doctor`)
}

func (r *PgRepository) CountDoctorsByIdentity(ctx context.Context, name, specialty string) (int, error) {
	return r.count(ctx, `
		SELECT count(*) FROM doctor
		WHERE name = $1 AND specialty = $2
	`, name, specialty)
}

func (r *PgRepository) CountDoctorsInDepartment(ctx context.Context, departmentID int64) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM doctor WHERE did = $1`, departmentID)
}

func (r *PgRepository) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT doctor_id, name, specialty, did
		FROM doctor
		WHERE doctor_id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT doctor_id FROM doctor ORDER BY doctor_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *PgRepository) InsertDoctor(ctx context.Context, d Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor (doctor_id, name, specialty, did)
		VALUES ($1, $2, $3, $4)
	`, d.ID, d.Name, d.Specialty, d.DepartmentID)
	if err != nil {
		return translateConstraint(err)
	}
	return nil
}

// Patients

func (r *PgRepository) CountPatients(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM patient`)
}

func (r *PgRepository) CountPatientsByIdentity(ctx context.Context, name string, gender Gender, age int, address string) (int, error) {
	return r.count(ctx, `
		SELECT count(*) FROM patient
		WHERE name = $1 AND gtype = $2 AND age = $3 AND address = $4
	`, name, string(gender), age, address)
}

func (r *PgRepository) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT patient_id, name, gtype, age, address, number_of_appts
		FROM patient
		WHERE patient_id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) InsertPatient(ctx context.Context, p Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (patient_id, name, gtype, age, address, number_of_appts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, string(p.Gender), p.Age, p.Address, p.VisitCount)
	if err != nil {
		return translateConstraint(err)
	}
	return nil
}

// Appointments

func (r *PgRepository) CountAppointments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM appointment`)
}

func (r *PgRepository) CountAppointmentsAtSlot(ctx context.Context, date time.Time, slot TimeSlot) (int, error) {
	return r.count(ctx, `
		SELECT count(*) FROM appointment
		WHERE adate = $1 AND time_slot = $2 AND status <> 'WL'
	`, date, slot.String())
}

func (r *PgRepository) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT appnt_id, adate, time_slot, status
		FROM appointment
		WHERE appnt_id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDoctor(ctx context.Context, appointmentID int64) (int64, error) {
	var doctorID int64
	err := r.pool.QueryRow(ctx, `
		SELECT doctor_id FROM has_appointment WHERE appt_id = $1
	`, appointmentID).Scan(&doctorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrDoctorNotFound
		}
		return 0, err
	}
	return doctorID, nil
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a Appointment, doctorID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment (appnt_id, adate, time_slot, status)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.Date, a.Slot.String(), string(a.Status))
	if err != nil {
		return translateConstraint(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO has_appointment (appt_id, doctor_id)
		VALUES ($1, $2)
	`, a.ID, doctorID)
	if err != nil {
		return translateConstraint(err)
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ActivateAppointment(ctx context.Context, appointmentID, doctorID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE appointment
		SET status = 'AC'
		WHERE appnt_id = $1
		  AND status = 'AV'
	`, appointmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM appointment WHERE appnt_id = $1)
		`, appointmentID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrAppointmentNotFound
		}
		return ErrInvalidStatusTransition
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO has_appointment (appt_id, doctor_id)
		VALUES ($1, $2)
		ON CONFLICT (appt_id) DO NOTHING
	`, appointmentID, doctorID)
	if err != nil {
		return translateConstraint(err)
	}

	return tx.Commit(ctx)
}

// Reporting

func (r *PgRepository) ListDoctorAppointments(ctx context.Context, doctorID int64, from, to time.Time, statuses []Status) ([]Appointment, error) {
	codes := make([]string, len(statuses))
	for i, st := range statuses {
		codes[i] = string(st)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT a.appnt_id, a.adate, a.time_slot, a.status
		FROM appointment a
		JOIN has_appointment h ON h.appt_id = a.appnt_id
		WHERE h.doctor_id = $1
		  AND a.adate >= $2
		  AND a.adate <= $3
		  AND a.status = ANY($4)
		ORDER BY a.appnt_id
	`, doctorID, from, to, codes)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListDepartmentAppointments(ctx context.Context, departmentID int64, date time.Time, status Status) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.appnt_id, a.adate, a.time_slot, a.status
		FROM appointment a
		JOIN has_appointment h ON h.appt_id = a.appnt_id
		JOIN doctor d ON d.doctor_id = h.doctor_id
		WHERE d.did = $1
		  AND a.adate = $2
		  AND a.status = $3
		ORDER BY a.appnt_id
	`, departmentID, date, string(status))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListLinkedAppointments(ctx context.Context) ([]LinkedAppointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.appnt_id, a.adate, a.time_slot, a.status, h.doctor_id
		FROM appointment a
		JOIN has_appointment h ON h.appt_id = a.appnt_id
		ORDER BY h.doctor_id, a.appnt_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LinkedAppointment
	for rows.Next() {
		var doctorID int64
		a, err := scanAppointment(rows, &doctorID)
		if err != nil {
			return nil, err
		}
		result = append(result, LinkedAppointment{Appointment: *a, DoctorID: doctorID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
