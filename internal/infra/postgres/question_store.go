package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

// QuestionStore is a Postgres-backed implementation of app.QuestionStore.
// Answers live in a JSONB column; the rest of the document is flattened
// into plain columns so the key lookup and priority sort stay indexable.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, key, title, text, code, code_type, multiple, scored, priority, track, answers`

func (s *QuestionStore) Find(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY priority DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (s *QuestionStore) FindByID(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id=$1`, id)
	return scanQuestionRow(row)
}

func (s *QuestionStore) FindByKey(ctx context.Context, key string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE key=$1`, key)
	return scanQuestionRow(row)
}

func (s *QuestionStore) Upsert(ctx context.Context, update domain.QuestionUpdate) (domain.Question, error) {
	answers, err := json.Marshal(update.Answers)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal answers: %w", err)
	}

	if update.ID != "" {
		row := s.pool.QueryRow(ctx, `
			UPDATE questions
			SET key=COALESCE(NULLIF($11, ''), key),
			    title=$2, text=$3, code=$4, code_type=$5, multiple=$6,
			    scored=$7, priority=$8, track=$9, answers=$10
			WHERE id=$1
			RETURNING `+questionColumns,
			update.ID, update.Title, update.Text, update.Code, update.CodeType,
			update.Multiple, update.Scored, update.Priority, update.Track, answers,
			update.Key)
		return scanQuestionRow(row)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO questions (id, key, title, text, code, code_type, multiple, scored, priority, track, answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (key) DO UPDATE
		SET title=EXCLUDED.title, text=EXCLUDED.text, code=EXCLUDED.code,
		    code_type=EXCLUDED.code_type, multiple=EXCLUDED.multiple,
		    scored=EXCLUDED.scored, priority=EXCLUDED.priority,
		    track=EXCLUDED.track, answers=EXCLUDED.answers
		RETURNING `+questionColumns,
		uuid.NewString(), update.Key, update.Title, update.Text, update.Code,
		update.CodeType, update.Multiple, update.Scored, update.Priority,
		update.Track, answers)
	return scanQuestionRow(row)
}

func (s *QuestionStore) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestionRow(row pgx.Row) (domain.Question, error) {
	question, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, err
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var question domain.Question
	var answers []byte
	err := row.Scan(&question.ID, &question.Key, &question.Title, &question.Text,
		&question.Code, &question.CodeType, &question.Multiple, &question.Scored,
		&question.Priority, &question.Track, &answers)
	if err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(answers, &question.Answers); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return question, nil
}
