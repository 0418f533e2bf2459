package question

import "time"

// Question is immutable trivia content. The scheduler only reads questions
// and bumps TimesUsed when one goes out.
type Question struct {
	ID            int64
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string // "A".."D"
	Explanation   string
	Category      string
	Difficulty    string
	TimesUsed     int
	CreatedAt     time.Time
}

// Option returns the option text for an answer letter, or "" for an
// unrecognized letter.
func (q *Question) Option(letter string) string {
	switch letter {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}
