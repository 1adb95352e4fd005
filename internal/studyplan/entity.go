// AngelaMos | 2026
// entity.go

package studyplan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

const maxPlanWeeks = 52

type Week struct {
	Week   int      `json:"week"   validate:"min=1"`
	Focus  string   `json:"focus"  validate:"required"`
	Topics []string `json:"topics" validate:"required,min=1,dive,required"`
	Goals  []string `json:"goals"`
	Hours  int      `json:"hours"  validate:"min=0"`
}

type Schedule struct {
	Summary string   `json:"summary" validate:"required"`
	Weeks   []Week   `json:"weeks"   validate:"required,min=1,dive"`
	Tips    []string `json:"tips"`
}

type StudyPlan struct {
	ID           string         `db:"id"`
	AccountID    string         `db:"account_id"`
	ExamDate     time.Time      `db:"exam_date"`
	HoursPerWeek int            `db:"hours_per_week"`
	WeakTopics   types.JSONText `db:"weak_topics"`
	Plan         types.JSONText `db:"plan"`
	TokensUsed   int            `db:"tokens_used"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (p *StudyPlan) DecodeSchedule() (*Schedule, error) {
	var s Schedule
	if err := json.Unmarshal(p.Plan, &s); err != nil {
		return nil, fmt.Errorf("decode study plan: %w", err)
	}
	return &s, nil
}

func (p *StudyPlan) DecodeWeakTopics() []string {
	var topics []string
	if err := json.Unmarshal(p.WeakTopics, &topics); err != nil {
		return []string{}
	}
	return topics
}

// WeeksUntil counts whole weeks from now to the exam, at least one and at
// most a year.
func WeeksUntil(now, exam time.Time) int {
	days := int(exam.Sub(now).Hours() / 24)
	weeks := (days + 6) / 7
	return min(max(weeks, 1), maxPlanWeeks)
}
