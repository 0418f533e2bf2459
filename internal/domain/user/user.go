package user

import (
	"database/sql"
	"time"
)

// User represents a subscriber who receives one trivia question per day.
type User struct {
	ID          int64
	PhoneNumber string // E.164, unique
	Categories  []string
	// DeliveryTime is the preferred local wall-clock send time, "HH:MM".
	DeliveryTime string
	// Timezone is an IANA zone name, e.g. "America/Los_Angeles".
	Timezone string
	IsActive bool
	// CategoryCursor rotates through Categories so successive days cover
	// different topics.
	CategoryCursor    int
	QuestionsAnswered int
	CorrectAnswers    int
	TotalScore        int
	// PlayStreak counts consecutive days with any answer; WinningStreak
	// counts consecutive correct answers and resets on a wrong one.
	PlayStreak      int
	WinningStreak   int
	LastDeliveredAt sql.NullTime
	LastAnsweredAt  sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NextCategory returns the category the user's rotation cursor points at.
// Falls back to empty string when the user has no category preferences.
func (u *User) NextCategory() string {
	if len(u.Categories) == 0 {
		return ""
	}
	return u.Categories[u.CategoryCursor%len(u.Categories)]
}
