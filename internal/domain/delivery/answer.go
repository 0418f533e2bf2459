package delivery

import (
	"database/sql"
	"time"
)

// PendingAnswer represents one delivered-but-not-yet-answered question.
// A row with a null Reply is "outstanding": the user owes a response. A user
// must never have more than one outstanding row at a time; the dispatcher
// refuses to send while one exists and the schema backs this with a partial
// unique index on (user_id) WHERE reply IS NULL.
type PendingAnswer struct {
	ID         int64
	UserID     int64
	QuestionID int64
	// Reply is the user's answer letter, null until a reply is reconciled.
	// Writing it is a conditional update (WHERE reply IS NULL), so duplicate
	// webhook deliveries score at most once.
	Reply         sql.NullString
	IsCorrect     sql.NullBool
	PointsAwarded sql.NullInt64
	DeliveredAt   time.Time
	AnsweredAt    sql.NullTime
}

// Outstanding reports whether the row still awaits a reply.
func (p *PendingAnswer) Outstanding() bool {
	return !p.Reply.Valid
}
