// AngelaMos | 2026
// dto.go

package casestudy

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/metering"
)

type GenerateRequest struct {
	Specialty  string `json:"specialty"  validate:"required,min=2,max=100"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Focus      string `json:"focus"      validate:"omitempty,max=300"`
}

type CaseResponse struct {
	ID         string    `json:"id"`
	Specialty  string    `json:"specialty"`
	Difficulty string    `json:"difficulty"`
	Content    *Content  `json:"content"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
}

type GenerateResponse struct {
	Case  CaseResponse           `json:"case"`
	Usage metering.UsageResponse `json:"usage"`
}

func ToCaseResponse(c *CaseStudy) CaseResponse {
	//nolint:errcheck // stored content was validated on insert
	content, _ := c.DecodeContent()

	return CaseResponse{
		ID:         c.ID,
		Specialty:  c.Specialty,
		Difficulty: c.Difficulty,
		Content:    content,
		TokensUsed: c.TokensUsed,
		CreatedAt:  c.CreatedAt,
	}
}

func ToCaseResponseList(cases []CaseStudy) []CaseResponse {
	responses := make([]CaseResponse, 0, len(cases))
	for i := range cases {
		responses = append(responses, ToCaseResponse(&cases[i]))
	}
	return responses
}
