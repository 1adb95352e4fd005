// AngelaMos | 2026
// dto.go

package studyplan

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/metering"
)

const dateLayout = "2006-01-02"

type GenerateRequest struct {
	ExamName     string   `json:"exam_name"      validate:"omitempty,max=100"`
	ExamDate     string   `json:"exam_date"      validate:"required,datetime=2006-01-02"`
	HoursPerWeek int      `json:"hours_per_week" validate:"required,min=1,max=80"`
	WeakTopics   []string `json:"weak_topics"    validate:"max=20,dive,min=1,max=100"`
}

type StudyPlanResponse struct {
	ID           string    `json:"id"`
	ExamDate     string    `json:"exam_date"`
	HoursPerWeek int       `json:"hours_per_week"`
	WeakTopics   []string  `json:"weak_topics"`
	Plan         *Schedule `json:"plan"`
	TokensUsed   int       `json:"tokens_used"`
	CreatedAt    time.Time `json:"created_at"`
}

type GenerateResponse struct {
	StudyPlan StudyPlanResponse      `json:"study_plan"`
	Usage     metering.UsageResponse `json:"usage"`
}

func ToStudyPlanResponse(p *StudyPlan) StudyPlanResponse {
	//nolint:errcheck // stored plans were validated on insert
	schedule, _ := p.DecodeSchedule()

	return StudyPlanResponse{
		ID:           p.ID,
		ExamDate:     p.ExamDate.Format(dateLayout),
		HoursPerWeek: p.HoursPerWeek,
		WeakTopics:   p.DecodeWeakTopics(),
		Plan:         schedule,
		TokensUsed:   p.TokensUsed,
		CreatedAt:    p.CreatedAt,
	}
}

func ToStudyPlanResponseList(plans []StudyPlan) []StudyPlanResponse {
	responses := make([]StudyPlanResponse, 0, len(plans))
	for i := range plans {
		responses = append(responses, ToStudyPlanResponse(&plans[i]))
	}
	return responses
}
