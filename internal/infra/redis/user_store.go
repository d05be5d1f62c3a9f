package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/poalrom/big-web-quiz/internal/app"
	"github.com/poalrom/big-web-quiz/internal/domain"
)

// UserStore is a Redis-backed implementation of app.UserStore.
// Layout:
//   - SET  user:{id}    {JSON user document}
//   - ZSET leaderboard  score -> user id (opted-in, non-banned users only)
//
// The sorted set is maintained on every write so Leaderboard is a single
// ZREVRANGE plus an MGET, not a full scan.
type UserStore struct {
	client *redis.Client
	sf     singleflight.Group
}

func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{client: client}
}

func (s *UserStore) FindByID(ctx context.Context, id string) (domain.User, error) {
	raw, err := s.client.Get(ctx, s.userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return user, nil
}

func (s *UserStore) Save(ctx context.Context, user domain.User) error {
	pipe := s.client.Pipeline()
	if err := s.queueSave(ctx, pipe, user); err != nil {
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *UserStore) SaveAnswer(ctx context.Context, userID string, record domain.AnswerRecord) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
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
	return s.Save(ctx, user)
}

func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]domain.User, error) {
	// Concurrent presentation refreshes collapse into one Redis round-trip.
	result, err, _ := s.sf.Do(fmt.Sprintf("leaderboard:%d", limit), func() (interface{}, error) {
		ids, err := s.client.ZRevRange(ctx, s.leaderboardKey(), 0, int64(limit)-1).Result()
		if err != nil {
			return nil, fmt.Errorf("leaderboard range: %w", err)
		}
		users := make([]domain.User, 0, len(ids))
		for _, id := range ids {
			user, err := s.FindByID(ctx, id)
			if errors.Is(err, domain.ErrUserNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			users = append(users, user)
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.User), nil
}

func (s *UserStore) UpdateScores(ctx context.Context, questions []domain.Question) error {
	var cursor uint64
	pipe := s.client.Pipeline()
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.userKey("*"), 100).Result()
		if err != nil {
			return fmt.Errorf("scan users: %w", err)
		}
		for _, key := range keys {
			raw, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			var user domain.User
			if err := json.Unmarshal(raw, &user); err != nil {
				return fmt.Errorf("unmarshal user: %w", err)
			}
			user.Score = app.Score(user, questions)
			if err := s.queueSave(ctx, pipe, user); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}

// queueSave queues the document write plus the leaderboard membership
// update on pipe; the caller executes the pipeline.
func (s *UserStore) queueSave(ctx context.Context, pipe redis.Pipeliner, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	pipe.Set(ctx, s.userKey(user.ID), raw, 0)
	if user.OptIntoLeaderboard && !user.BannedFromLeaderboard {
		pipe.ZAdd(ctx, s.leaderboardKey(), redis.Z{Score: float64(user.Score), Member: user.ID})
	} else {
		pipe.ZRem(ctx, s.leaderboardKey(), user.ID)
	}
	return nil
}

func (s *UserStore) userKey(id string) string {
	return "user:" + id
}

func (s *UserStore) leaderboardKey() string {
	return "leaderboard"
}
