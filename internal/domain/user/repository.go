package user

import (
	"context"
)

// Repository defines the operations for persisting and retrieving User entities.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error)
	Update(ctx context.Context, u *User) error // Handles prefs, stats, streaks, IsActive
	ListActive(ctx context.Context) ([]*User, error)
	ListAll(ctx context.Context) ([]*User, error) // For admin purposes
}
