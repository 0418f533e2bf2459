// Package scoring holds the pure scoring rules. No I/O, no state.
package scoring

const (
	// ParticipationPoints is awarded for a wrong answer. Answering at all
	// keeps the play streak alive, so it still pays a little.
	ParticipationPoints = 10
	// BasePoints is the reward for a correct answer before streak bonuses.
	BasePoints = 100
	// PerWinBonus multiplies the winning streak the answer extends into.
	PerWinBonus = 20
	// PerPlayBonus multiplies the play streak the answer extends into.
	PerPlayBonus = 1
)

// Points computes the award for one answer. winningStreak and playStreak are
// the user's counters BEFORE this answer is applied: a user on a 7-day
// winning streak answering correctly scores 100 + 7*20 + playStreak*1.
func Points(isCorrect bool, winningStreak, playStreak int) int {
	if !isCorrect {
		return ParticipationPoints
	}
	return BasePoints + winningStreak*PerWinBonus + playStreak*PerPlayBonus
}

// NextStreaks returns the streak counters after one answered question.
// The play streak always advances (the user engaged today); the winning
// streak advances on a correct answer and resets to zero otherwise.
func NextStreaks(isCorrect bool, winningStreak, playStreak int) (nextWinning, nextPlay int) {
	nextPlay = playStreak + 1
	if isCorrect {
		nextWinning = winningStreak + 1
	} else {
		nextWinning = 0
	}
	return nextWinning, nextPlay
}
