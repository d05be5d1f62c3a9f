package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

func TestUserStoreSaveAnswerReplaces(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	if err := store.Save(ctx, domain.User{ID: "u1", Name: "Ada"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveAnswer(ctx, "u1", domain.AnswerRecord{QuestionID: "q1", Choices: []int{1}}); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	if err := store.SaveAnswer(ctx, "u1", domain.AnswerRecord{QuestionID: "q2", Choices: []int{0}}); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	// Re-answering q1 overwrites, it does not append.
	if err := store.SaveAnswer(ctx, "u1", domain.AnswerRecord{QuestionID: "q1", Choices: []int{0}}); err != nil {
		t.Fatalf("save answer: %v", err)
	}

	user, err := store.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(user.Answers) != 2 {
		t.Fatalf("expected 2 records, got %+v", user.Answers)
	}
	if user.Answers[0].QuestionID != "q1" || user.Answers[0].Choices[0] != 0 {
		t.Fatalf("expected q1 overwritten, got %+v", user.Answers[0])
	}

	if err := store.SaveAnswer(ctx, "missing", domain.AnswerRecord{QuestionID: "q1"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserStoreLeaderboard(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	users := []domain.User{
		{ID: "u1", Name: "Ada", Score: 3, OptIntoLeaderboard: true},
		{ID: "u2", Name: "Grace", Score: 5, OptIntoLeaderboard: true},
		{ID: "u3", Name: "Linus", Score: 9},
		{ID: "u4", Name: "Mallory", Score: 9, OptIntoLeaderboard: true, BannedFromLeaderboard: true},
	}
	for _, user := range users {
		if err := store.Save(ctx, user); err != nil {
			t.Fatalf("save %s: %v", user.ID, err)
		}
	}

	top, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 2 || top[0].Name != "Grace" || top[1].Name != "Ada" {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}

	top, err = store.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("leaderboard limit: %v", err)
	}
	if len(top) != 1 || top[0].Name != "Grace" {
		t.Fatalf("expected top 1 Grace, got %+v", top)
	}
}

func TestUserStoreUpdateScores(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	questions := []domain.Question{
		{ID: "q1", Scored: true, Answers: []domain.Answer{{Text: "A", Correct: true}, {Text: "B"}}},
		{ID: "q2", Scored: false, Answers: []domain.Answer{{Text: "A", Correct: true}}},
		{ID: "q3", Scored: true, Multiple: true, Answers: []domain.Answer{{Text: "A", Correct: true}, {Text: "B", Correct: true}}},
	}

	if err := store.Save(ctx, domain.User{ID: "u1", Answers: []domain.AnswerRecord{
		{QuestionID: "q1", Choices: []int{0}}, // correct, scored
		{QuestionID: "q2", Choices: []int{0}}, // correct but unscored
		{QuestionID: "q3", Choices: []int{0}}, // partial match, no point
	}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, domain.User{ID: "u2", Answers: []domain.AnswerRecord{
		{QuestionID: "q1", Choices: []int{1}},
		{QuestionID: "q3", Choices: []int{1, 0}}, // order does not matter
	}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.UpdateScores(ctx, questions); err != nil {
		t.Fatalf("update scores: %v", err)
	}

	u1, _ := store.FindByID(ctx, "u1")
	if u1.Score != 1 {
		t.Fatalf("expected u1 score 1, got %d", u1.Score)
	}
	u2, _ := store.FindByID(ctx, "u2")
	if u2.Score != 1 {
		t.Fatalf("expected u2 score 1, got %d", u2.Score)
	}
}
