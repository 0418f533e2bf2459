package question

import "context"

// Store defines the operations for retrieving and managing trivia questions.
type Store interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, id int64) (*Question, error)
	// PickUnseen returns one question from the given category that is not in
	// excludeIDs, preferring the least-used ones. Falls back to any of the
	// given categories when category is empty.
	PickUnseen(ctx context.Context, categories []string, excludeIDs []int64) (*Question, error)
	IncrementTimesUsed(ctx context.Context, id int64) error
	ListByCategory(ctx context.Context, category string) ([]*Question, error) // For admin purposes
}

// Generator produces a new question for a category when the store is
// exhausted. Generation may be slow (it is typically an AI call), so callers
// must bound it with a context deadline.
type Generator interface {
	Generate(ctx context.Context, category string) (*Question, error)
}
