// AngelaMos | 2026
// repository.go

package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Repository interface {
	Create(ctx context.Context, quiz *Quiz) error
	Get(ctx context.Context, accountID, id string) (*Quiz, error)
	List(ctx context.Context, accountID string, page core.PageParams) ([]Quiz, int, error)
	CreateAttempt(ctx context.Context, attempt *Attempt) error
	ListAttempts(ctx context.Context, accountID, quizID string) ([]Attempt, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, quiz *Quiz) error {
	query := `
		INSERT INTO quizzes (id, account_id, topic, difficulty, questions, tokens_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &quiz.CreatedAt, query,
		quiz.ID,
		quiz.AccountID,
		quiz.Topic,
		quiz.Difficulty,
		quiz.Questions,
		quiz.TokensUsed,
	)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, accountID, id string) (*Quiz, error) {
	query := `
		SELECT id, account_id, topic, difficulty, questions, tokens_used, created_at
		FROM quizzes
		WHERE id = $1 AND account_id = $2`

	var quiz Quiz
	err := r.db.GetContext(ctx, &quiz, query, id, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get quiz: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	return &quiz, nil
}

func (r *repository) List(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]Quiz, int, error) {
	page.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM quizzes WHERE account_id = $1`, accountID); err != nil {
		return nil, 0, fmt.Errorf("count quizzes: %w", err)
	}

	query := `
		SELECT id, account_id, topic, difficulty, questions, tokens_used, created_at
		FROM quizzes
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var quizzes []Quiz
	err := r.db.SelectContext(ctx, &quizzes, query, accountID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list quizzes: %w", err)
	}

	return quizzes, total, nil
}

func (r *repository) CreateAttempt(ctx context.Context, attempt *Attempt) error {
	query := `
		INSERT INTO quiz_attempts (id, quiz_id, account_id, answers, score, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &attempt.CreatedAt, query,
		attempt.ID,
		attempt.QuizID,
		attempt.AccountID,
		attempt.Answers,
		attempt.Score,
		attempt.Total,
	)
	if err != nil {
		return fmt.Errorf("create quiz attempt: %w", err)
	}

	return nil
}

func (r *repository) ListAttempts(
	ctx context.Context,
	accountID, quizID string,
) ([]Attempt, error) {
	query := `
		SELECT id, quiz_id, account_id, answers, score, total, created_at
		FROM quiz_attempts
		WHERE quiz_id = $1 AND account_id = $2
		ORDER BY created_at DESC`

	var attempts []Attempt
	if err := r.db.SelectContext(ctx, &attempts, query, quizID, accountID); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}

	return attempts, nil
}
