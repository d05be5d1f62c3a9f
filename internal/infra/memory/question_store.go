package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionStore, the
// default when no database is configured.
type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{questions: make(map[string]domain.Question)}
}

func (s *QuestionStore) Find(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	questions := make([]domain.Question, 0, len(s.questions))
	for _, question := range s.questions {
		questions = append(questions, question)
	}
	// Priority questions first, then stable by key for deterministic lists.
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Priority != questions[j].Priority {
			return questions[i].Priority
		}
		return questions[i].Key < questions[j].Key
	})
	return questions, nil
}

func (s *QuestionStore) FindByID(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if question, ok := s.questions[id]; ok {
		return question, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *QuestionStore) FindByKey(_ context.Context, key string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, question := range s.questions {
		if question.Key == key {
			return question, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *QuestionStore) Upsert(_ context.Context, update domain.QuestionUpdate) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target domain.Question
	switch {
	case update.ID != "":
		existing, ok := s.questions[update.ID]
		if !ok {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		target = existing
		if update.Key != "" {
			target.Key = update.Key
		}
	case update.Key != "":
		target = domain.Question{Key: update.Key}
		for _, question := range s.questions {
			if question.Key == update.Key {
				target = question
				break
			}
		}
	}
	if target.ID == "" {
		target.ID = uuid.NewString()
	}

	target.Title = update.Title
	target.Text = update.Text
	target.Code = update.Code
	target.CodeType = update.CodeType
	target.Multiple = update.Multiple
	target.Scored = update.Scored
	target.Priority = update.Priority
	target.Track = update.Track
	target.Answers = update.Answers

	s.questions[target.ID] = target
	return target, nil
}

func (s *QuestionStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}
