// AngelaMos | 2026
// service.go

package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
)

const systemPrompt = `You write multiple-choice questions for medical licensing exam preparation.
Respond with a JSON object {"questions": [...]} where each question has
"question", "options" (exactly four strings), "answer" (index 0-3 of the correct
option) and "explanation". Questions must be clinically accurate.`

type Service struct {
	repo     Repository
	tx       core.Transactor
	pipeline *metering.Pipeline
}

func NewService(db core.DBTX, tx core.Transactor, pipeline *metering.Pipeline) *Service {
	return &Service{
		repo:     NewRepository(db),
		tx:       tx,
		pipeline: pipeline,
	}
}

// Generate produces a quiz and stores it with the charge.
func (s *Service) Generate(
	ctx context.Context,
	accountID string,
	req GenerateRequest,
) (*Quiz, metering.Usage, error) {
	req.applyDefaults()

	var payload generated
	quiz := &Quiz{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
	}

	outcome, err := s.pipeline.Run(ctx, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryQuiz,
		Description: fmt.Sprintf("Generated %s quiz: %s", req.Difficulty, req.Topic),
		Metadata: map[string]any{
			"quiz_id":    quiz.ID,
			"topic":      req.Topic,
			"difficulty": req.Difficulty,
		},
		Request: ai.Request{
			System: systemPrompt,
			Prompt: fmt.Sprintf(
				"Write %d %s-difficulty questions on: %s",
				req.Count, req.Difficulty, req.Topic,
			),
			Structured: true,
		},
		Validate: func(c *ai.Completion) error {
			if err := ai.Decode(c, &payload); err != nil {
				return err
			}
			if len(payload.Questions) > req.Count {
				payload.Questions = payload.Questions[:req.Count]
			}
			return nil
		},
		Persist: func(ctx context.Context, tx core.DBTX, _ *ai.Completion, units int) error {
			raw, err := json.Marshal(payload.Questions)
			if err != nil {
				return fmt.Errorf("marshal questions: %w", err)
			}
			quiz.Questions = types.JSONText(raw)
			quiz.TokensUsed = units

			return NewRepository(tx).Create(ctx, quiz)
		},
	})
	if err != nil {
		return nil, metering.Usage{}, err
	}

	return quiz, outcome.Usage, nil
}

func (s *Service) Get(ctx context.Context, accountID, id string) (*Quiz, error) {
	return s.repo.Get(ctx, accountID, id)
}

func (s *Service) List(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]Quiz, int, error) {
	return s.repo.List(ctx, accountID, page)
}

// SubmitAttempt grades answers and records the attempt with its activity
// entry. Grading calls no model, so nothing is charged.
func (s *Service) SubmitAttempt(
	ctx context.Context,
	accountID, quizID string,
	req SubmitAttemptRequest,
) (*Attempt, []Result, error) {
	quiz, err := s.repo.Get(ctx, accountID, quizID)
	if err != nil {
		return nil, nil, err
	}

	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, nil, err
	}

	if len(req.Answers) != len(questions) {
		return nil, nil, fmt.Errorf(
			"submit attempt: expected %d answers, got %d: %w",
			len(questions), len(req.Answers), core.ErrInvalidInput,
		)
	}

	score, results := Score(questions, req.Answers)

	raw, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal answers: %w", err)
	}

	attempt := &Attempt{
		ID:        uuid.New().String(),
		QuizID:    quiz.ID,
		AccountID: accountID,
		Answers:   types.JSONText(raw),
		Score:     score,
		Total:     len(questions),
	}

	err = s.tx.Transact(ctx, func(tx core.DBTX) error {
		if err := NewRepository(tx).CreateAttempt(ctx, attempt); err != nil {
			return err
		}

		_, err := activity.NewService(activity.NewRepository(tx)).Record(
			ctx,
			accountID,
			activity.CategoryQuiz,
			fmt.Sprintf("Completed quiz: %s (%d/%d)", quiz.Topic, score, len(questions)),
			map[string]any{
				"quiz_id":    quiz.ID,
				"attempt_id": attempt.ID,
				"score":      score,
				"total":      len(questions),
			},
		)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("submit attempt: %w", err)
	}

	return attempt, results, nil
}

func (s *Service) ListAttempts(
	ctx context.Context,
	accountID, quizID string,
) ([]Attempt, error) {
	if _, err := s.repo.Get(ctx, accountID, quizID); err != nil {
		return nil, err
	}
	return s.repo.ListAttempts(ctx, accountID, quizID)
}
