package clinic

import (
	"context"
	"sort"
	"time"
)

// RankStatusCounts orders counts descending, breaking ties by the fixed
// priority AV, AC, WL, PA. Zero counts are dropped.
func RankStatusCounts(counts StatusCounts) []StatusCount {
	ranked := make([]StatusCount, 0, len(statusPriority))
	for _, st := range statusPriority {
		if n := counts[st]; n > 0 {
			ranked = append(ranked, StatusCount{Status: st, Count: n})
		}
	}
	// Stable sort keeps priority order among equal counts.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// AppointmentsForDoctor lists the doctor's active and available appointments
// dated within [from, to], ordered by appointment id. Rows dated before the
// service clock's today read as past and are left out, so a range entirely
// in the past returns nothing.
func (s *Service) AppointmentsForDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]Appointment, error) {
	from, to = civilDate(from), civilDate(to)
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	appts, err := s.repo.ListDoctorAppointments(ctx, doctorID, from, to, []Status{StatusActive, StatusAvailable})
	if err != nil {
		return nil, storeErr("list doctor appointments", err)
	}

	today := s.today()
	result := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if EffectiveStatus(a.Status, a.Date, today) == StatusPast {
			continue
		}
		result = append(result, a)
	}
	sortByID(result)
	return result, nil
}

// AvailableAppointments lists available appointments on date whose doctor
// belongs to departmentID, ordered by appointment id.
func (s *Service) AvailableAppointments(ctx context.Context, departmentID int64, date time.Time) ([]Appointment, error) {
	n, err := s.repo.CountDoctorsInDepartment(ctx, departmentID)
	if err != nil {
		return nil, storeErr("count department doctors", err)
	}
	if n == 0 {
		return nil, ErrDepartmentNotFound
	}

	date = civilDate(date)
	result := []Appointment{}
	if EffectiveStatus(StatusAvailable, date, s.today()) == StatusPast {
		return result, nil
	}

	appts, err := s.repo.ListDepartmentAppointments(ctx, departmentID, date, StatusAvailable)
	if err != nil {
		return nil, storeErr("list department appointments", err)
	}
	result = append(result, appts...)
	sortByID(result)
	return result, nil
}

// StatusBreakdownPerDoctor counts each doctor's appointments by effective
// status and ranks the counts. Every known doctor gets an entry, even with no
// appointments.
func (s *Service) StatusBreakdownPerDoctor(ctx context.Context) ([]DoctorStatusBreakdown, error) {
	ids, tallies, err := s.tallyByDoctor(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]DoctorStatusBreakdown, 0, len(ids))
	for _, id := range ids {
		result = append(result, DoctorStatusBreakdown{
			DoctorID: id,
			Counts:   RankStatusCounts(tallies[id]),
		})
	}
	return result, nil
}

// PatientCountPerDoctorWithStatus counts, per doctor, the appointments whose
// effective status is status.
func (s *Service) PatientCountPerDoctorWithStatus(ctx context.Context, status Status) ([]DoctorCount, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	ids, tallies, err := s.tallyByDoctor(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]DoctorCount, 0, len(ids))
	for _, id := range ids {
		result = append(result, DoctorCount{DoctorID: id, Count: tallies[id][status]})
	}
	return result, nil
}

// tallyByDoctor iterates the doctor ids the store reports rather than
// assuming ids are dense.
func (s *Service) tallyByDoctor(ctx context.Context) ([]int64, map[int64]StatusCounts, error) {
	ids, err := s.repo.ListDoctorIDs(ctx)
	if err != nil {
		return nil, nil, storeErr("list doctor ids", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	links, err := s.repo.ListLinkedAppointments(ctx)
	if err != nil {
		return nil, nil, storeErr("list linked appointments", err)
	}

	today := s.today()
	tallies := make(map[int64]StatusCounts, len(ids))
	for _, id := range ids {
		tallies[id] = StatusCounts{}
	}
	for _, l := range links {
		counts, ok := tallies[l.DoctorID]
		if !ok {
			continue
		}
		counts[EffectiveStatus(l.Status, l.Date, today)]++
	}
	return ids, tallies, nil
}

func sortByID(appts []Appointment) {
	sort.Slice(appts, func(i, j int) bool { return appts[i].ID < appts[j].ID })
}
