// AngelaMos | 2026
// dto.go

package quiz

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/metering"
)

const DefaultQuestionCount = 5

type GenerateRequest struct {
	Topic      string `json:"topic"      validate:"required,min=2,max=200"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Count      int    `json:"count"      validate:"omitempty,min=1,max=20"`
}

func (r *GenerateRequest) applyDefaults() {
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
	if r.Count == 0 {
		r.Count = DefaultQuestionCount
	}
}

type SubmitAttemptRequest struct {
	Answers []int `json:"answers" validate:"required,min=1,dive,min=-1,max=3"`
}

// generated is the shape the provider must return.
type generated struct {
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// QuestionView hides the answer key until an attempt is submitted.
type QuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type QuizResponse struct {
	ID         string         `json:"id"`
	Topic      string         `json:"topic"`
	Difficulty string         `json:"difficulty"`
	Questions  []QuestionView `json:"questions"`
	TokensUsed int            `json:"tokens_used"`
	CreatedAt  time.Time      `json:"created_at"`
}

type GenerateResponse struct {
	Quiz  QuizResponse           `json:"quiz"`
	Usage metering.UsageResponse `json:"usage"`
}

type AttemptResponse struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quiz_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Results   []Result  `json:"results,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func ToQuizResponse(q *Quiz) QuizResponse {
	resp := QuizResponse{
		ID:         q.ID,
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
		Questions:  []QuestionView{},
		TokensUsed: q.TokensUsed,
		CreatedAt:  q.CreatedAt,
	}

	questions, err := q.DecodeQuestions()
	if err != nil {
		return resp
	}

	for _, question := range questions {
		resp.Questions = append(resp.Questions, QuestionView{
			Question: question.Question,
			Options:  question.Options,
		})
	}
	return resp
}

func ToQuizResponseList(quizzes []Quiz) []QuizResponse {
	responses := make([]QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		responses = append(responses, ToQuizResponse(&quizzes[i]))
	}
	return responses
}

func ToAttemptResponse(a *Attempt, results []Result) AttemptResponse {
	return AttemptResponse{
		ID:        a.ID,
		QuizID:    a.QuizID,
		Score:     a.Score,
		Total:     a.Total,
		Results:   results,
		CreatedAt: a.CreatedAt,
	}
}

func ToAttemptResponseList(attempts []Attempt) []AttemptResponse {
	responses := make([]AttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, ToAttemptResponse(&attempts[i], nil))
	}
	return responses
}
