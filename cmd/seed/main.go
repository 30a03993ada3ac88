package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/registration-service/internal/db"
)

const (
	clinicCount      = 5
	doctorsPerClinic = 4
	slotDays         = 7
	slotsPerShift    = 15
	userCount        = 2000
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedUsers(context.Background(), pool, userCount); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedSlots(context.Background(), pool); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d users", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			// Ten digits after the country code, unique enough for a seed run.
			phone := fmt.Sprintf("+91%d", gofakeit.Number(6000000000, 9999999999))
			email := gofakeit.Email()
			birthdate := gofakeit.DateRange(
				time.Date(1945, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC),
			)

			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, name, phone_number, email, birthdate, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, id, name, phone, email, birthdate)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("users seeded: %d/%d", end, count)
	}

	return nil
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool) error {
	shifts := []struct {
		name  string
		start int // hour of day
	}{
		{"MORNING", 9},
		{"EVENING", 17},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	today := time.Now().Truncate(24 * time.Hour)

	for c := 0; c < clinicCount; c++ {
		clinicID := uuid.New()
		for d := 0; d < doctorsPerClinic; d++ {
			doctorID := uuid.New()
			for day := 0; day < slotDays; day++ {
				date := today.AddDate(0, 0, day)
				for _, shift := range shifts {
					for no := 1; no <= slotsPerShift; no++ {
						slotTime := fmt.Sprintf("%02d:%02d", shift.start+(no-1)/4, (no-1)%4*15)

						_, err := tx.Exec(ctx, `
							INSERT INTO slots (id, slot_no, shift_time, slot_time, slot_date, clinic_id, doctor_id, is_available)
							VALUES ($1, $2, $3, $4, $5, $6, $7, true)
						`, uuid.New(), no, shift.name, slotTime, date, clinicID, doctorID)
						if err != nil {
							return err
						}
						total++
					}
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("slots seeded: %d", total)
	return nil
}
