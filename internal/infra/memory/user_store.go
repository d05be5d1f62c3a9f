package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/poalrom/big-web-quiz/internal/app"
	"github.com/poalrom/big-web-quiz/internal/domain"
)

// UserStore is an in-memory implementation of app.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

func (s *UserStore) FindByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *UserStore) Save(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *UserStore) SaveAnswer(_ context.Context, userID string, record domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	replaced := false
	for i := range user.Answers {
		if user.Answers[i].QuestionID == record.QuestionID {
			user.Answers[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		user.Answers = append(user.Answers, record)
	}
	s.users[userID] = user
	return nil
}

func (s *UserStore) Leaderboard(_ context.Context, limit int) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eligible := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		if user.OptIntoLeaderboard && !user.BannedFromLeaderboard {
			eligible = append(eligible, user)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		return eligible[i].Name < eligible[j].Name
	})
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (s *UserStore) UpdateScores(_ context.Context, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, user := range s.users {
		user.Score = app.Score(user, questions)
		s.users[id] = user
	}
	return nil
}
