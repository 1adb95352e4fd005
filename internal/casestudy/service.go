// AngelaMos | 2026
// service.go

package casestudy

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

const systemPrompt = `You write realistic clinical case studies for medical students.
Respond with a JSON object with keys "title", "presentation", "history",
"examination", "investigations" (array of strings), "diagnosis", "management",
"questions" (array of {"question","answer"}) and "teaching_points" (array of strings).`

type Service struct {
	repo     Repository
	pipeline *metering.Pipeline
}

func NewService(db core.DBTX, pipeline *metering.Pipeline) *Service {
	return &Service{
		repo:     NewRepository(db),
		pipeline: pipeline,
	}
}

func (s *Service) Generate(
	ctx context.Context,
	accountID string,
	req GenerateRequest,
) (*CaseStudy, metering.Usage, error) {
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}

	prompt := fmt.Sprintf("Write a %s-difficulty %s case.", req.Difficulty, req.Specialty)
	if req.Focus != "" {
		prompt += " Focus on: " + req.Focus
	}

	var content Content
	study := &CaseStudy{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		Specialty:  req.Specialty,
		Difficulty: req.Difficulty,
	}

	outcome, err := s.pipeline.Run(ctx, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryCase,
		Description: "Generated case study: " + req.Specialty,
		Metadata: map[string]any{
			"case_id":    study.ID,
			"specialty":  req.Specialty,
			"difficulty": req.Difficulty,
		},
		Request: ai.Request{
			System:      systemPrompt,
			Prompt:      prompt,
			Temperature: 0.7,
			MaxTokens:   2500,
			Structured:  true,
		},
		Validate: func(c *ai.Completion) error {
			return ai.Decode(c, &content)
		},
		Persist: func(ctx context.Context, tx core.DBTX, _ *ai.Completion, units int) error {
			raw, err := json.Marshal(content)
			if err != nil {
				return fmt.Errorf("marshal case content: %w", err)
			}
			study.Content = types.JSONText(raw)
			study.TokensUsed = units

			return NewRepository(tx).Create(ctx, study)
		},
	})
	if err != nil {
		return nil, metering.Usage{}, err
	}

	return study, outcome.Usage, nil
}

func (s *Service) Get(ctx context.Context, accountID, id string) (*CaseStudy, error) {
	return s.repo.Get(ctx, accountID, id)
}

func (s *Service) List(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]CaseStudy, int, error) {
	return s.repo.List(ctx, accountID, page)
}
