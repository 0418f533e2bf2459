package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"daily_trivia_bot/internal/domain/user"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors
var ErrUserNotFound = fmt.Errorf("user not found")
var ErrDuplicatePhoneNumber = fmt.Errorf("user with this phone number already exists")

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, phone_number, categories, delivery_time, timezone, is_active,
	category_cursor, questions_answered, correct_answers, total_score,
	play_streak, winning_streak, last_delivered_at, last_answered_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID, &u.PhoneNumber, pq.Array(&u.Categories), &u.DeliveryTime, &u.Timezone, &u.IsActive,
		&u.CategoryCursor, &u.QuestionsAnswered, &u.CorrectAnswers, &u.TotalScore,
		&u.PlayStreak, &u.WinningStreak, &u.LastDeliveredAt, &u.LastAnsweredAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (phone_number, categories, delivery_time, timezone, is_active)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		u.PhoneNumber, pq.Array(u.Categories), u.DeliveryTime, u.Timezone, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "users_phone_number_key") {
			return ErrDuplicatePhoneNumber
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, phoneNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by phone number: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `UPDATE users
               SET categories = $1, delivery_time = $2, timezone = $3, is_active = $4,
                   category_cursor = $5, questions_answered = $6, correct_answers = $7,
                   total_score = $8, play_streak = $9, winning_streak = $10,
                   last_delivered_at = $11, last_answered_at = $12, updated_at = NOW()
               WHERE id = $13
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		pq.Array(u.Categories), u.DeliveryTime, u.Timezone, u.IsActive,
		u.CategoryCursor, u.QuestionsAnswered, u.CorrectAnswers,
		u.TotalScore, u.PlayStreak, u.WinningStreak,
		u.LastDeliveredAt, u.LastAnsweredAt, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUserNotFound
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) listUsers(ctx context.Context, query string) ([]*user.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) ListActive(ctx context.Context) ([]*user.User, error) {
	return r.listUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = TRUE ORDER BY id`)
}

func (r *PostgresUserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	return r.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}
