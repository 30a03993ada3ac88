package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

type User struct {
	ID          uuid.UUID
	Name        string
	PhoneNumber string
	Email       string
	Birthdate   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is plain profile CRUD. No booking invariant crosses into this
// package; it never touches slots or queue entries.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
