package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.PhoneNumber,
		&u.Email,
		&u.Birthdate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	return &u, nil
}

func (r *PgStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone_number, email, birthdate, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgStore) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone_number, email, birthdate, created_at, updated_at
		FROM users
		WHERE phone_number = $1
	`, phoneNumber)
	return scanUser(row)
}

func (r *PgStore) List(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone_number, email, birthdate, created_at, updated_at
		FROM users
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgStore) Create(ctx context.Context, u *User) (*User, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, phone_number, email, birthdate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, name, phone_number, email, birthdate, created_at, updated_at
	`, id, u.Name, u.PhoneNumber, u.Email, u.Birthdate)

	return scanUser(row)
}

func (r *PgStore) Update(ctx context.Context, u *User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2,
		    phone_number = $3,
		    email = $4,
		    birthdate = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, phone_number, email, birthdate, created_at, updated_at
	`, u.ID, u.Name, u.PhoneNumber, u.Email, u.Birthdate)

	return scanUser(row)
}

func (r *PgStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM users
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
