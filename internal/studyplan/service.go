// AngelaMos | 2026
// service.go

package studyplan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
)

const systemPrompt = `You build week-by-week study schedules for medical licensing exams.
Respond with a JSON object {"summary": string, "weeks": [{"week": int,
"focus": string, "topics": [string], "goals": [string], "hours": int}],
"tips": [string]}. Prioritize the student's weak topics early and leave the
final week for review and practice exams.`

type Service struct {
	repo     Repository
	pipeline *metering.Pipeline
	now      func() time.Time
}

func NewService(db core.DBTX, pipeline *metering.Pipeline) *Service {
	return &Service{
		repo:     NewRepository(db),
		pipeline: pipeline,
		now:      time.Now,
	}
}

func (s *Service) Generate(
	ctx context.Context,
	accountID string,
	req GenerateRequest,
) (*StudyPlan, metering.Usage, error) {
	examDate, err := time.Parse(dateLayout, req.ExamDate)
	if err != nil {
		return nil, metering.Usage{}, fmt.Errorf("exam_date: %w", core.ErrInvalidInput)
	}
	if !examDate.After(s.now()) {
		return nil, metering.Usage{}, fmt.Errorf(
			"exam_date must be in the future: %w", core.ErrInvalidInput,
		)
	}

	weeks := WeeksUntil(s.now(), examDate)
	exam := req.ExamName
	if exam == "" {
		exam = "the licensing exam"
	}

	weakTopics := req.WeakTopics
	if weakTopics == nil {
		weakTopics = []string{}
	}
	rawTopics, err := json.Marshal(weakTopics)
	if err != nil {
		return nil, metering.Usage{}, fmt.Errorf("marshal weak topics: %w", err)
	}

	prompt := fmt.Sprintf(
		"Plan %d weeks of study for %s at %d hours per week.",
		weeks, exam, req.HoursPerWeek,
	)
	if len(weakTopics) > 0 {
		prompt += " Weak topics: " + strings.Join(weakTopics, ", ") + "."
	}

	var schedule Schedule
	plan := &StudyPlan{
		ID:           uuid.New().String(),
		AccountID:    accountID,
		ExamDate:     examDate,
		HoursPerWeek: req.HoursPerWeek,
		WeakTopics:   types.JSONText(rawTopics),
	}

	outcome, err := s.pipeline.Run(ctx, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryStudyPlan,
		Description: fmt.Sprintf("Created %d-week study plan", weeks),
		Metadata: map[string]any{
			"study_plan_id": plan.ID,
			"weeks":         weeks,
			"exam_date":     req.ExamDate,
		},
		Request: ai.Request{
			System:     systemPrompt,
			Prompt:     prompt,
			MaxTokens:  3000,
			Structured: true,
		},
		Validate: func(c *ai.Completion) error {
			return ai.Decode(c, &schedule)
		},
		Persist: func(ctx context.Context, tx core.DBTX, _ *ai.Completion, units int) error {
			raw, err := json.Marshal(schedule)
			if err != nil {
				return fmt.Errorf("marshal schedule: %w", err)
			}
			plan.Plan = types.JSONText(raw)
			plan.TokensUsed = units

			return NewRepository(tx).Create(ctx, plan)
		},
	})
	if err != nil {
		return nil, metering.Usage{}, err
	}

	return plan, outcome.Usage, nil
}

func (s *Service) Get(ctx context.Context, accountID, id string) (*StudyPlan, error) {
	return s.repo.Get(ctx, accountID, id)
}

func (s *Service) List(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]StudyPlan, int, error) {
	return s.repo.List(ctx, accountID, page)
}
