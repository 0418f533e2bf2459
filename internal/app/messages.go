package app

import (
	"fmt"
	"strings"

	"daily_trivia_bot/internal/domain/question"
	"daily_trivia_bot/internal/domain/user"
)

// FormatQuestion renders a question as one outbound SMS body.
func FormatQuestion(q *question.Question) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("A) %s\n", q.OptionA))
	b.WriteString(fmt.Sprintf("B) %s\n", q.OptionB))
	b.WriteString(fmt.Sprintf("C) %s\n", q.OptionC))
	b.WriteString(fmt.Sprintf("D) %s\n", q.OptionD))
	b.WriteString("\nReply with A, B, C or D.")
	return b.String()
}

// FormatOutcome renders the reconciler's result as the reply SMS body.
func FormatOutcome(o *Outcome) string {
	switch o.Kind {
	case OutcomeNothingPending:
		return "You have no question waiting for an answer right now. Your next one arrives at your usual time."
	case OutcomeAlreadyAnswered:
		return "That question has already been answered. Your next one arrives at your usual time."
	}

	var b strings.Builder
	if o.IsCorrect {
		b.WriteString(fmt.Sprintf("Correct! +%d points.", o.Points))
	} else {
		b.WriteString(fmt.Sprintf("Not quite - the answer was %s) %s. +%d points for playing.",
			o.CorrectOption, o.CorrectText, o.Points))
	}
	if o.Explanation != "" {
		b.WriteString("\n\n")
		b.WriteString(o.Explanation)
	}
	b.WriteString(fmt.Sprintf("\n\nScore: %d | Win streak: %d | Play streak: %d",
		o.TotalScore, o.WinningStreak, o.PlayStreak))
	return b.String()
}

// FormatScore renders the SCORE command reply.
func FormatScore(u *user.User) string {
	return fmt.Sprintf("Score: %d points\nAnswered: %d (%d correct)\nWin streak: %d | Play streak: %d",
		u.TotalScore, u.QuestionsAnswered, u.CorrectAnswers, u.WinningStreak, u.PlayStreak)
}

const helpMessage = "Daily Trivia: one question a day at your chosen time. " +
	"Reply A, B, C or D to answer. SCORE for your stats, STOP to pause, RESTART to resume."

const unknownMessage = "Sorry, I didn't understand that. Reply A, B, C or D to answer, or HELP for options."

const notSignedUpMessage = "This number isn't signed up for Daily Trivia yet."

const stoppedMessage = "You're paused - no more daily questions. Text RESTART any time to resume."

const restartedMessage = "Welcome back! Your daily questions resume tomorrow."
