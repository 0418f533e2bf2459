package delivery

import (
	"database/sql"
	"time"
)

// QueueEntry represents one scheduled send for one user on one calendar day.
// Corresponds to the 'delivery_queue' table, which carries a unique
// constraint on (user_id, delivery_date).
type QueueEntry struct {
	ID     int64
	UserID int64
	// DeliveryDate is the calendar day this entry belongs to (date only).
	DeliveryDate time.Time
	// ScheduledAt is the UTC instant the user's local delivery time resolves to.
	ScheduledAt time.Time
	Status      Status
	// QuestionID stays null until the dispatcher resolves a question at send time.
	QuestionID sql.NullInt64
	Attempts   int
	LastError  sql.NullString
	SentAt     sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
