package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"slices"
	"strconv"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
)

const clinicDate = "01/02/2006"

type simConfig struct {
	baseURL      string
	duration     time.Duration
	workers      int
	createWeight int
	bookWeight   int
	readWeight   int
	days         int
	patientLimit int
	postgresDSN  string
}

type doctorRef struct {
	id           int64
	departmentID int64
}

type created struct {
	appointmentID int64
	doctorID      int64
}

// fixtures holds the seeded rows the workers draw from plus the appointments
// they create along the way.
type fixtures struct {
	doctors  []doctorRef
	patients []int64

	mu      sync.RWMutex
	created []created
}

func (f *fixtures) remember(c created) {
	f.mu.Lock()
	f.created = append(f.created, c)
	f.mu.Unlock()
}

func (f *fixtures) pick(rng *rand.Rand) (created, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.created) == 0 {
		return created{}, false
	}
	return f.created[rng.Intn(len(f.created))], true
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeConflict
	outcomeFailed
)

// tally is one operation's results. 409 is tracked apart from failures since
// racing workers are expected to lose slots.
type tally struct {
	mu        sync.Mutex
	counts    [3]int
	latencies []time.Duration
}

func (t *tally) add(o outcome, d time.Duration) {
	t.mu.Lock()
	t.counts[o]++
	t.latencies = append(t.latencies, d)
	t.mu.Unlock()
}

func (t *tally) summary() (total int, counts [3]int, p50, p95 time.Duration) {
	t.mu.Lock()
	lat := slices.Clone(t.latencies)
	counts = t.counts
	t.mu.Unlock()

	if len(lat) == 0 {
		return 0, counts, 0, 0
	}
	slices.Sort(lat)
	return len(lat), counts, lat[len(lat)/2], lat[min(len(lat)*95/100, len(lat)-1)]
}

type operation struct {
	name string
	run  func(s *simulator, ctx context.Context, rng *rand.Rand)
}

var readOps = []operation{
	{"appointment by id", (*simulator).readAppointment},
	{"doctor schedule", (*simulator).readSchedule},
	{"available by department", (*simulator).readAvailable},
	{"status breakdown", (*simulator).readBreakdown},
}

type simulator struct {
	cfg    simConfig
	data   *fixtures
	client *http.Client
	start  time.Time

	tallies map[string]*tally
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := loadSimConfig()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	log.Printf("simulating %s with %d workers (weights create=%d book=%d read=%d)",
		cfg.duration, cfg.workers, cfg.createWeight, cfg.bookWeight, cfg.readWeight)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.postgresDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	data, err := loadFixtures(ctx, pool, cfg.patientLimit)
	if err != nil {
		log.Fatalf("load fixtures: %v", err)
	}
	log.Printf("loaded %d doctors and %d patients", len(data.doctors), len(data.patients))

	sim := &simulator{
		cfg:     cfg,
		data:    data,
		client:  &http.Client{Timeout: 10 * time.Second},
		start:   time.Now(),
		tallies: make(map[string]*tally),
	}
	for _, name := range append([]string{"create appointment", "book appointment"}, opNames(readOps)...) {
		sim.tallies[name] = &tally{}
	}

	sim.run()
	sim.report(os.Stdout)
}

func opNames(ops []operation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.name
	}
	return names
}

func loadSimConfig() (simConfig, error) {
	base, err := config.Load()
	if err != nil {
		return simConfig{}, err
	}

	cfg := simConfig{
		baseURL:      envString("SIM_API_BASE_URL", "http://localhost:8080"),
		duration:     envParsed("SIM_DURATION", 30*time.Second, time.ParseDuration),
		workers:      envParsed("SIM_WORKERS", 10, strconv.Atoi),
		createWeight: envParsed("SIM_CREATE_WEIGHT", 4, strconv.Atoi),
		bookWeight:   envParsed("SIM_BOOK_WEIGHT", 3, strconv.Atoi),
		readWeight:   envParsed("SIM_READ_WEIGHT", 3, strconv.Atoi),
		days:         envParsed("SIM_DAYS", 30, strconv.Atoi),
		patientLimit: envParsed("SIM_PATIENT_LIMIT", 4000, strconv.Atoi),
		postgresDSN:  base.PostgresDSN,
	}

	switch {
	case cfg.postgresDSN == "":
		return cfg, fmt.Errorf("POSTGRES_DSN is required")
	case cfg.workers <= 0 || cfg.days <= 0 || cfg.duration <= 0:
		return cfg, fmt.Errorf("SIM_WORKERS, SIM_DAYS and SIM_DURATION must be positive")
	case cfg.createWeight < 0 || cfg.bookWeight < 0 || cfg.readWeight < 0:
		return cfg, fmt.Errorf("operation weights must not be negative")
	case cfg.createWeight+cfg.bookWeight+cfg.readWeight == 0:
		return cfg, fmt.Errorf("at least one operation weight must be positive")
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envParsed[T any](key string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := parse(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return def
	}
	return parsed
}

func loadFixtures(ctx context.Context, pool *pgxpool.Pool, patientLimit int) (*fixtures, error) {
	rows, err := pool.Query(ctx, `SELECT doctor_id, did FROM doctor ORDER BY doctor_id`)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	doctors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (doctorRef, error) {
		var d doctorRef
		err := row.Scan(&d.id, &d.departmentID)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan doctors: %w", err)
	}

	rows, err = pool.Query(ctx, `SELECT patient_id FROM patient ORDER BY patient_id LIMIT $1`, patientLimit)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	patients, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan patients: %w", err)
	}

	if len(doctors) == 0 || len(patients) == 0 {
		return nil, fmt.Errorf("database has %d doctors and %d patients, run cmd/seed first", len(doctors), len(patients))
	}
	return &fixtures{doctors: doctors, patients: patients}, nil
}

func (s *simulator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				s.next(rng).run(s, ctx, rng)
			}
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()
}

func (s *simulator) next(rng *rand.Rand) operation {
	n := rng.Intn(s.cfg.createWeight + s.cfg.bookWeight + s.cfg.readWeight)
	switch {
	case n < s.cfg.createWeight:
		return operation{"create appointment", (*simulator).createAppointment}
	case n < s.cfg.createWeight+s.cfg.bookWeight:
		return operation{"book appointment", (*simulator).bookAppointment}
	default:
		return readOps[rng.Intn(len(readOps))]
	}
}

func (s *simulator) doctor(rng *rand.Rand) doctorRef {
	return s.data.doctors[rng.Intn(len(s.data.doctors))]
}

// futureDate picks one of the next SIM_DAYS days so created rows are never past.
func (s *simulator) futureDate(rng *rand.Rand) string {
	return s.start.AddDate(0, 0, 1+rng.Intn(s.cfg.days)).Format(clinicDate)
}

// call sends one request and records it under op. The body is returned only
// for one of the accepted statuses.
func (s *simulator) call(ctx context.Context, op, method, url string, payload any, accept ...int) []byte {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("%s: marshal: %v", op, err)
			return nil
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		log.Printf("%s: %v", op, err)
		return nil
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	began := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			s.tallies[op].add(outcomeFailed, time.Since(began))
		}
		return nil
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	elapsed := time.Since(began)

	switch {
	case slices.Contains(accept, resp.StatusCode):
		s.tallies[op].add(outcomeOK, elapsed)
		return respBody
	case resp.StatusCode == http.StatusConflict:
		s.tallies[op].add(outcomeConflict, elapsed)
	default:
		s.tallies[op].add(outcomeFailed, elapsed)
	}
	return nil
}

func (s *simulator) createAppointment(ctx context.Context, rng *rand.Rand) {
	doc := s.doctor(rng)
	hour := 8 + rng.Intn(9)
	payload := map[string]any{
		"doctor_id": doc.id,
		"date":      s.futureDate(rng),
		"start":     fmt.Sprintf("%d:00", hour),
		"end":       fmt.Sprintf("%d:00", hour+1),
	}

	body := s.call(ctx, "create appointment", http.MethodPost, s.cfg.baseURL+"/appointments", payload, http.StatusCreated)
	var resp struct {
		ID int64 `json:"id"`
	}
	if body != nil && json.Unmarshal(body, &resp) == nil {
		s.data.remember(created{appointmentID: resp.ID, doctorID: doc.id})
	}
}

func (s *simulator) bookAppointment(ctx context.Context, rng *rand.Rand) {
	appt, ok := s.data.pick(rng)
	if !ok {
		return
	}
	payload := map[string]int64{
		"doctor_id":  appt.doctorID,
		"patient_id": s.data.patients[rng.Intn(len(s.data.patients))],
	}
	url := fmt.Sprintf("%s/appointments/%d/book", s.cfg.baseURL, appt.appointmentID)
	s.call(ctx, "book appointment", http.MethodPost, url, payload, http.StatusOK, http.StatusCreated)
}

func (s *simulator) readAppointment(ctx context.Context, rng *rand.Rand) {
	appt, ok := s.data.pick(rng)
	if !ok {
		return
	}
	url := fmt.Sprintf("%s/appointments/%d", s.cfg.baseURL, appt.appointmentID)
	s.call(ctx, "appointment by id", http.MethodGet, url, nil, http.StatusOK)
}

func (s *simulator) readSchedule(ctx context.Context, rng *rand.Rand) {
	url := fmt.Sprintf("%s/doctors/%d/appointments?from=%s&to=%s", s.cfg.baseURL, s.doctor(rng).id,
		s.start.Format(clinicDate), s.start.AddDate(0, 0, s.cfg.days).Format(clinicDate))
	s.call(ctx, "doctor schedule", http.MethodGet, url, nil, http.StatusOK)
}

func (s *simulator) readAvailable(ctx context.Context, rng *rand.Rand) {
	url := fmt.Sprintf("%s/departments/%d/appointments/available?date=%s", s.cfg.baseURL, s.doctor(rng).departmentID, s.futureDate(rng))
	s.call(ctx, "available by department", http.MethodGet, url, nil, http.StatusOK)
}

func (s *simulator) readBreakdown(ctx context.Context, _ *rand.Rand) {
	s.call(ctx, "status breakdown", http.MethodGet, s.cfg.baseURL+"/reports/status-breakdown", nil, http.StatusOK)
}

func (s *simulator) report(out io.Writer) {
	fmt.Fprintf(out, "\n%d workers for %s\n\n", s.cfg.workers, s.cfg.duration)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "operation\ttotal\tok\tconflict\tfailed\tp50\tp95\t")
	for _, name := range append([]string{"create appointment", "book appointment"}, opNames(readOps)...) {
		total, counts, p50, p95 := s.tallies[name].summary()
		if total == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t\n", name, total,
			counts[outcomeOK], counts[outcomeConflict], counts[outcomeFailed],
			p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	}
	tw.Flush()
}
