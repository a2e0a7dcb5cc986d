package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

type seedCounts struct {
	Doctors     int
	Patients    int
	Departments int
	Days        int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	counts := seedCounts{
		Doctors:     envInt("SEED_DOCTORS", 20),
		Patients:    envInt("SEED_PATIENTS", 500),
		Departments: envInt("SEED_DEPARTMENTS", 5),
		Days:        envInt("SEED_DAYS", 14),
	}
	log.Info("seed starting",
		zap.Int("doctors", counts.Doctors),
		zap.Int("patients", counts.Patients),
		zap.Int("departments", counts.Departments),
		zap.Int("days", counts.Days),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(connectCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: cfg.PostgresMaxConn})
	cancel()
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repo := clinic.NewPgRepository(pool)
	// Seeding is single-writer, so the store lock is not needed.
	svc := clinic.NewService(repo, repo, nil, clinic.WithLocation(loc))
	faker := gofakeit.New(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(ctx, log, svc, faker, counts)
	if err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	patientIDs, err := seedPatients(ctx, log, svc, faker, counts.Patients)
	if err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}
	if err := seedAppointments(ctx, log, svc, faker, doctorIDs, patientIDs, time.Now().In(loc), counts.Days); err != nil {
		return fmt.Errorf("seed appointments: %w", err)
	}

	log.Info("seed complete")
	return nil
}

func seedDoctors(ctx context.Context, log *zap.Logger, svc *clinic.Service, faker *gofakeit.Faker, counts seedCounts) ([]int64, error) {
	ids := make([]int64, 0, counts.Doctors)
	for len(ids) < counts.Doctors {
		name := faker.Name()
		spec := specialties[faker.Number(0, len(specialties)-1)]
		dept := int64(faker.Number(1, counts.Departments))

		d, err := svc.RegisterDoctor(ctx, name, spec, dept)
		if errors.Is(err, clinic.ErrDuplicateDoctor) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, d.ID)
	}
	log.Info("doctors seeded", zap.Int("count", len(ids)))
	return ids, nil
}

func seedPatients(ctx context.Context, log *zap.Logger, svc *clinic.Service, faker *gofakeit.Faker, count int) ([]int64, error) {
	ids := make([]int64, 0, count)
	for len(ids) < count {
		gender := "M"
		if faker.Bool() {
			gender = "F"
		}
		addr := faker.Address()

		p, err := svc.RegisterPatient(ctx, faker.Name(), gender, faker.Number(1, 95), addr.Street+", "+addr.City)
		if errors.Is(err, clinic.ErrDuplicatePatient) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)

		if len(ids)%100 == 0 {
			log.Info("patients seeded", zap.Int("done", len(ids)), zap.Int("total", count))
		}
	}
	return ids, nil
}

// seedAppointments offers every clinic hour for the next days, spread
// randomly across doctors, then books about half of them. A few bookings
// land on already active slots and become waitlist entries.
func seedAppointments(ctx context.Context, log *zap.Logger, svc *clinic.Service, faker *gofakeit.Faker, doctorIDs, patientIDs []int64, from time.Time, days int) error {
	if len(doctorIDs) == 0 || len(patientIDs) == 0 {
		return nil
	}

	type owned struct{ appt, doctor int64 }
	var created []owned

	for day := 1; day <= days; day++ {
		date := from.AddDate(0, 0, day).Format("01/02/2006")
		for hour := 8; hour <= 16; hour++ {
			doctor := doctorIDs[faker.Number(0, len(doctorIDs)-1)]
			start := fmt.Sprintf("%d:00", hour)
			end := fmt.Sprintf("%d:00", hour+1)

			a, err := svc.CreateAppointment(ctx, date, start, end, doctor)
			if errors.Is(err, clinic.ErrSlotTaken) {
				continue
			}
			if err != nil {
				return err
			}
			created = append(created, owned{appt: a.ID, doctor: doctor})
		}
	}
	log.Info("appointments seeded", zap.Int("count", len(created)))

	var booked, waitlisted int
	for i := 0; i < len(created)/2; i++ {
		pick := created[faker.Number(0, len(created)-1)]
		res, err := svc.BookAppointment(ctx, clinic.BookingRequest{
			AppointmentID: pick.appt,
			DoctorID:      pick.doctor,
			PatientID:     patientIDs[faker.Number(0, len(patientIDs)-1)],
		})
		if err != nil {
			return err
		}
		if res.Waitlisted {
			waitlisted++
		} else {
			booked++
		}
	}
	log.Info("bookings seeded", zap.Int("booked", booked), zap.Int("waitlisted", waitlisted))
	return nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
