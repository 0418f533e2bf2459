package database

import (
	"context"
	"database/sql"
	"fmt"

	"daily_trivia_bot/internal/domain/question"

	"github.com/lib/pq"
)

// Custom errors
var ErrQuestionNotFound = fmt.Errorf("question not found")
var ErrNoQuestionAvailable = fmt.Errorf("no question available for the requested categories")

type PostgresQuestionRepository struct {
	db *sql.DB
}

func NewPostgresQuestionRepository(db *sql.DB) *PostgresQuestionRepository {
	return &PostgresQuestionRepository{db: db}
}

const questionColumns = `id, text, option_a, option_b, option_c, option_d,
	correct_option, explanation, category, difficulty, times_used, created_at`

func scanQuestion(row interface{ Scan(...any) error }) (*question.Question, error) {
	q := &question.Question{}
	err := row.Scan(
		&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
		&q.CorrectOption, &q.Explanation, &q.Category, &q.Difficulty, &q.TimesUsed, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *PostgresQuestionRepository) Create(ctx context.Context, q *question.Question) error {
	query := `INSERT INTO questions (text, option_a, option_b, option_c, option_d,
                                     correct_option, explanation, category, difficulty)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
		q.CorrectOption, q.Explanation, q.Category, q.Difficulty,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating question: %w", err)
	}
	return nil
}

func (r *PostgresQuestionRepository) GetByID(ctx context.Context, id int64) (*question.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("error getting question by ID: %w", err)
	}
	return q, nil
}

// PickUnseen prefers the least-used matching question so the pool wears
// evenly; excludeIDs keeps repeats away from a user who has seen them.
func (r *PostgresQuestionRepository) PickUnseen(ctx context.Context, categories []string, excludeIDs []int64) (*question.Question, error) {
	if len(categories) == 0 {
		return nil, ErrNoQuestionAvailable
	}
	if excludeIDs == nil {
		excludeIDs = []int64{}
	}

	query := `SELECT ` + questionColumns + `
               FROM questions
               WHERE category = ANY($1::varchar[])
                 AND NOT (id = ANY($2::bigint[]))
               ORDER BY times_used ASC, RANDOM()
               LIMIT 1`
	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, pq.Array(categories), pq.Array(excludeIDs)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoQuestionAvailable
		}
		return nil, fmt.Errorf("error picking unseen question: %w", err)
	}
	return q, nil
}

func (r *PostgresQuestionRepository) IncrementTimesUsed(ctx context.Context, id int64) error {
	query := `UPDATE questions SET times_used = times_used + 1 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error incrementing question usage: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *PostgresQuestionRepository) ListByCategory(ctx context.Context, category string) ([]*question.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE category = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("error listing questions by category: %w", err)
	}
	defer rows.Close()

	questions := make([]*question.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}
	return questions, nil
}
