// AngelaMos | 2026
// entity.go

package casestudy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

type CaseQuestion struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"   validate:"required"`
}

// Content is the generated case as stored and returned.
type Content struct {
	Title          string         `json:"title"           validate:"required"`
	Presentation   string         `json:"presentation"    validate:"required"`
	History        string         `json:"history"`
	Examination    string         `json:"examination"     validate:"required"`
	Investigations []string       `json:"investigations"`
	Diagnosis      string         `json:"diagnosis"       validate:"required"`
	Management     string         `json:"management"      validate:"required"`
	Questions      []CaseQuestion `json:"questions"       validate:"required,min=1,dive"`
	TeachingPoints []string       `json:"teaching_points"`
}

type CaseStudy struct {
	ID         string         `db:"id"`
	AccountID  string         `db:"account_id"`
	Specialty  string         `db:"specialty"`
	Difficulty string         `db:"difficulty"`
	Content    types.JSONText `db:"content"`
	TokensUsed int            `db:"tokens_used"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (c *CaseStudy) DecodeContent() (*Content, error) {
	var content Content
	if err := json.Unmarshal(c.Content, &content); err != nil {
		return nil, fmt.Errorf("decode case content: %w", err)
	}
	return &content, nil
}
