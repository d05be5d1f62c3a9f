package app

import (
	"context"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

// QuestionStore is the document-store collaborator owning quiz questions.
type QuestionStore interface {
	// Find returns every question, priority questions first.
	Find(ctx context.Context) ([]domain.Question, error)
	FindByID(ctx context.Context, id string) (domain.Question, error)
	FindByKey(ctx context.Context, key string) (domain.Question, error)
	// Upsert updates by id, upserts by key, or inserts when neither is set.
	// Implementations assign generated ids to new questions.
	Upsert(ctx context.Context, update domain.QuestionUpdate) (domain.Question, error)
	Remove(ctx context.Context, id string) error
}

// UserStore is the document-store collaborator owning participants and
// their persisted answers and scores.
type UserStore interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	Save(ctx context.Context, user domain.User) error
	// SaveAnswer records (or overwrites) one answer record on a user.
	SaveAnswer(ctx context.Context, userID string, record domain.AnswerRecord) error
	// Leaderboard returns the top opted-in, non-banned users by score.
	Leaderboard(ctx context.Context, limit int) ([]domain.User, error)
	// UpdateScores recomputes every user's score from their answer records
	// against the given question set.
	UpdateScores(ctx context.Context, questions []domain.Question) error
}

// Score computes a user's total score over the given questions: one point
// per scored question whose recorded choice set exactly matches the correct
// indices. Store implementations share this rule via UpdateScores.
func Score(user domain.User, questions []domain.Question) int {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	score := 0
	for _, record := range user.Answers {
		question, ok := byID[record.QuestionID]
		if !ok || !question.Scored {
			continue
		}
		if sameChoices(record.Choices, question.CorrectIndices()) {
			score++
		}
	}
	return score
}

func sameChoices(choices, correct []int) bool {
	if len(choices) != len(correct) {
		return false
	}
	seen := make(map[int]bool, len(choices))
	for _, c := range choices {
		seen[c] = true
	}
	if len(seen) != len(correct) {
		return false
	}
	for _, c := range correct {
		if !seen[c] {
			return false
		}
	}
	return true
}
