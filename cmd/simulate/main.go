package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/registration-service/internal/db"
)

// simulate drives concurrent booking traffic against a running api-server to
// observe how slot contention resolves: every collision should come back as
// a 409, never as a double booking.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	CancelRatio float64
	ReadRatio   float64
	PostgresDSN string
}

type DataPool struct {
	Users []uuid.UUID
	Slots []uuid.UUID

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) TakeRandomAppointment() (uuid.UUID, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	idx := rand.Intn(len(dp.appointments))
	id := dp.appointments[idx]
	dp.appointments = append(dp.appointments[:idx], dp.appointments[idx+1:]...)
	return id, true
}

func (dp *DataPool) GetRandomAppointment() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rand.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Percentiles() (p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	idx := func(pct int) int {
		i := len(latencies) * pct / 100
		if i >= len(latencies) {
			i = len(latencies) - 1
		}
		return i
	}
	return latencies[idx(50)], latencies[idx(95)]
}

type Metrics struct {
	Book   OperationMetrics
	Cancel OperationMetrics
	Read   OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()

	log.Printf("config: base_url=%s duration=%s workers=%d cancel=%.2f read=%.2f",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.CancelRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	pool, err := loadDataPool(ctx, pgPool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded: %d users, %d available slots", len(pool.Users), len(pool.Slots))

	client := &http.Client{Timeout: 10 * time.Second}
	metrics := &Metrics{}

	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				roll := rand.Float64()
				switch {
				case roll < cfg.CancelRatio:
					doCancel(client, cfg, pool, &metrics.Cancel)
				case roll < cfg.CancelRatio+cfg.ReadRatio:
					doRead(client, cfg, pool, &metrics.Read)
				default:
					doBook(client, cfg, pool, &metrics.Book)
				}
			}
		}()
	}
	wg.Wait()

	report("book", &metrics.Book)
	report("cancel", &metrics.Cancel)
	report("read", &metrics.Read)
}

func report(name string, om *OperationMetrics) {
	p50, p95 := om.Percentiles()
	log.Printf("%-7s total=%d success=%d conflict=%d error=%d p50=%s p95=%s",
		name, om.Total, om.Success, om.Conflict, om.Error, p50, p95)
}

func doBook(client *http.Client, cfg SimConfig, pool *DataPool, om *OperationMetrics) {
	if len(pool.Slots) == 0 || len(pool.Users) == 0 {
		return
	}

	body := []map[string]any{{
		"user_id":              pool.Users[rand.Intn(len(pool.Users))].String(),
		"slot_id":              pool.Slots[rand.Intn(len(pool.Slots))].String(),
		"appointment_type":     "GENERAL_CHECKUP",
		"appointment_for":      "SELF",
		"appointment_for_name": "Load Tester",
		"appointment_for_age":  30,
		"symptom":              "FEVER",
		"appointment_date":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"doctor_id":            uuid.NewString(),
		"clinic_id":            uuid.NewString(),
	}}

	status, resp, latency := post(client, cfg.APIBaseURL+"/v1/appointments", body)
	om.Record(latency, status)

	if status == http.StatusCreated {
		var created []struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.Unmarshal(resp, &created); err == nil && len(created) > 0 {
			pool.AddAppointment(created[0].ID)
		}
	}
}

func doCancel(client *http.Client, cfg SimConfig, pool *DataPool, om *OperationMetrics) {
	id, ok := pool.TakeRandomAppointment()
	if !ok {
		return
	}

	status, _, latency := post(client, fmt.Sprintf("%s/v1/appointments/%s/cancel", cfg.APIBaseURL, id), nil)
	om.Record(latency, status)
}

func doRead(client *http.Client, cfg SimConfig, pool *DataPool, om *OperationMetrics) {
	id, ok := pool.GetRandomAppointment()
	if !ok {
		return
	}

	start := time.Now()
	resp, err := client.Get(fmt.Sprintf("%s/v1/appointment/%s", cfg.APIBaseURL, id))
	latency := time.Since(start)
	if err != nil {
		om.Record(latency, 0)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	om.Record(latency, resp.StatusCode)
}

func post(client *http.Client, url string, body any) (int, []byte, time.Duration) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, 0
		}
	}

	start := time.Now()
	resp, err := client.Post(url, "application/json", &buf)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, latency
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dp := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM users LIMIT 1000`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Users = append(dp.Users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := pool.Query(ctx, `SELECT id FROM slots WHERE is_available LIMIT 1000`)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var id uuid.UUID
		if err := slotRows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Slots = append(dp.Slots, id)
	}
	if err := slotRows.Err(); err != nil {
		return nil, err
	}

	return dp, nil
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  envOr("SIM_API_URL", "http://localhost:8080"),
		Duration:    30 * time.Second,
		Workers:     20,
		CancelRatio: 0.10,
		ReadRatio:   0.30,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}

	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Duration = d
		}
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
