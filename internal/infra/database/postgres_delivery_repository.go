package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"daily_trivia_bot/internal/domain/delivery"
)

// Custom errors specific to the delivery repository
var ErrQueueEntryNotFound = fmt.Errorf("delivery queue entry not found")
var ErrDuplicateQueueEntry = fmt.Errorf("duplicate delivery queue entry (user_id, delivery_date)")
var ErrPendingAnswerNotFound = fmt.Errorf("pending answer not found")
var ErrDuplicateOutstandingAnswer = fmt.Errorf("user already has an outstanding pending answer")

type PostgresDeliveryRepository struct {
	db *sql.DB
}

func NewPostgresDeliveryRepository(db *sql.DB) *PostgresDeliveryRepository {
	return &PostgresDeliveryRepository{db: db}
}

// --- QueueEntry methods ---

func (r *PostgresDeliveryRepository) CreateEntry(ctx context.Context, e *delivery.QueueEntry) error {
	query := `INSERT INTO delivery_queue (user_id, delivery_date, scheduled_at, status)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, e.UserID, e.DeliveryDate, e.ScheduledAt, e.Status).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "delivery_queue_user_day_unique") {
			return ErrDuplicateQueueEntry
		}
		return fmt.Errorf("error creating queue entry: %w", err)
	}
	return nil
}

const queueEntryColumns = `id, user_id, delivery_date, scheduled_at, status, question_id,
	attempts, last_error, sent_at, created_at, updated_at`

func scanQueueEntry(row interface{ Scan(...any) error }) (*delivery.QueueEntry, error) {
	e := &delivery.QueueEntry{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.DeliveryDate, &e.ScheduledAt, &e.Status, &e.QuestionID,
		&e.Attempts, &e.LastError, &e.SentAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresDeliveryRepository) GetEntryByUserAndDate(ctx context.Context, userID int64, day time.Time) (*delivery.QueueEntry, error) {
	query := `SELECT ` + queueEntryColumns + ` FROM delivery_queue WHERE user_id = $1 AND delivery_date = $2`
	e, err := scanQueueEntry(r.db.QueryRowContext(ctx, query, userID, day))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("error getting queue entry by user and date: %w", err)
	}
	return e, nil
}

func (r *PostgresDeliveryRepository) ListDueEntries(ctx context.Context, now time.Time) ([]*delivery.QueueEntry, error) {
	query := `SELECT ` + queueEntryColumns + `
               FROM delivery_queue
               WHERE status = $1 AND scheduled_at <= $2
               ORDER BY scheduled_at ASC`
	rows, err := r.db.QueryContext(ctx, query, delivery.StatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due queue entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*delivery.QueueEntry, 0)
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning queue entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue entry rows: %w", err)
	}
	return entries, nil
}

// ClaimEntry performs the atomic PENDING -> SENDING transition. The WHERE
// clause on the old status plus the affected-row check is the whole claim
// protocol; losing the race is reported as (false, nil), not an error.
func (r *PostgresDeliveryRepository) ClaimEntry(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE delivery_queue
               SET status = $1, attempts = attempts + 1, updated_at = NOW()
               WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, delivery.StatusSending, id, delivery.StatusPending)
	if err != nil {
		return false, fmt.Errorf("error claiming queue entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading claim result: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresDeliveryRepository) MarkEntrySent(ctx context.Context, id int64, questionID int64, sentAt time.Time) error {
	query := `UPDATE delivery_queue
               SET status = $1, question_id = $2, sent_at = $3, last_error = NULL, updated_at = NOW()
               WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, delivery.StatusSent, questionID, sentAt, id)
	if err != nil {
		return fmt.Errorf("error marking queue entry sent: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrQueueEntryNotFound
	}
	return nil
}

func (r *PostgresDeliveryRepository) MarkEntryFailed(ctx context.Context, id int64, reason string) error {
	query := `UPDATE delivery_queue
               SET status = $1, last_error = $2, updated_at = NOW()
               WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, delivery.StatusFailed, reason, id)
	if err != nil {
		return fmt.Errorf("error marking queue entry failed: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrQueueEntryNotFound
	}
	return nil
}

func (r *PostgresDeliveryRepository) CountEntriesByStatus(ctx context.Context, day time.Time) (map[delivery.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM delivery_queue WHERE delivery_date = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("error counting queue entries by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[delivery.Status]int)
	for rows.Next() {
		var status delivery.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning status count row: %w", err)
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}
	return counts, nil
}

// --- PendingAnswer methods ---

func (r *PostgresDeliveryRepository) CreatePendingAnswer(ctx context.Context, p *delivery.PendingAnswer) error {
	query := `INSERT INTO pending_answers (user_id, question_id, delivered_at)
               VALUES ($1, $2, $3)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query, p.UserID, p.QuestionID, p.DeliveredAt).Scan(&p.ID)
	if err != nil {
		// The partial unique index on (user_id) WHERE reply IS NULL backs the
		// one-outstanding-question invariant at the schema level.
		if strings.Contains(err.Error(), "pending_answers_one_outstanding") {
			return ErrDuplicateOutstandingAnswer
		}
		return fmt.Errorf("error creating pending answer: %w", err)
	}
	return nil
}

const pendingAnswerColumns = `id, user_id, question_id, reply, is_correct, points_awarded, delivered_at, answered_at`

func (r *PostgresDeliveryRepository) ListOutstandingByUser(ctx context.Context, userID int64) ([]*delivery.PendingAnswer, error) {
	query := `SELECT ` + pendingAnswerColumns + `
               FROM pending_answers
               WHERE user_id = $1 AND reply IS NULL
               ORDER BY delivered_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying outstanding answers: %w", err)
	}
	defer rows.Close()

	answers := make([]*delivery.PendingAnswer, 0)
	for rows.Next() {
		p := &delivery.PendingAnswer{}
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.QuestionID, &p.Reply, &p.IsCorrect,
			&p.PointsAwarded, &p.DeliveredAt, &p.AnsweredAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning pending answer row: %w", err)
		}
		answers = append(answers, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending answer rows: %w", err)
	}
	return answers, nil
}

// RecordReply writes the answer only if the row is still unanswered. The
// reply-IS-NULL guard makes duplicate webhook deliveries a benign no-op: the
// second writer sees zero affected rows.
func (r *PostgresDeliveryRepository) RecordReply(ctx context.Context, id int64, reply string, isCorrect bool, points int, answeredAt time.Time) (bool, error) {
	query := `UPDATE pending_answers
               SET reply = $1, is_correct = $2, points_awarded = $3, answered_at = $4
               WHERE id = $5 AND reply IS NULL`
	res, err := r.db.ExecContext(ctx, query, reply, isCorrect, points, answeredAt, id)
	if err != nil {
		return false, fmt.Errorf("error recording reply: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading reply update result: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresDeliveryRepository) AnsweredQuestionIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT question_id FROM pending_answers WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying delivered question IDs: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning question ID row: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question ID rows: %w", err)
	}
	return ids, nil
}

func (r *PostgresDeliveryRepository) DeleteAbandoned(ctx context.Context, deliveredBefore time.Time) (int64, error) {
	query := `DELETE FROM pending_answers WHERE reply IS NULL AND delivered_at < $1`
	res, err := r.db.ExecContext(ctx, query, deliveredBefore)
	if err != nil {
		return 0, fmt.Errorf("error deleting abandoned answers: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading abandoned delete result: %w", err)
	}
	return affected, nil
}
