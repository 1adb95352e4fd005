// AngelaMos | 2026
// entity.go

package quiz

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

const Unanswered = -1

type Question struct {
	Question    string   `json:"question"    validate:"required"`
	Options     []string `json:"options"     validate:"len=4,dive,required"`
	Answer      int      `json:"answer"      validate:"min=0,max=3"`
	Explanation string   `json:"explanation" validate:"required"`
}

// Quiz is immutable once generated.
type Quiz struct {
	ID         string         `db:"id"`
	AccountID  string         `db:"account_id"`
	Topic      string         `db:"topic"`
	Difficulty string         `db:"difficulty"`
	Questions  types.JSONText `db:"questions"`
	TokensUsed int            `db:"tokens_used"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (q *Quiz) DecodeQuestions() ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, fmt.Errorf("decode quiz questions: %w", err)
	}
	return questions, nil
}

type Attempt struct {
	ID        string         `db:"id"`
	QuizID    string         `db:"quiz_id"`
	AccountID string         `db:"account_id"`
	Answers   types.JSONText `db:"answers"`
	Score     int            `db:"score"`
	Total     int            `db:"total"`
	CreatedAt time.Time      `db:"created_at"`
}

// Result is the per-question outcome of an attempt.
type Result struct {
	Index       int    `json:"index"`
	Selected    int    `json:"selected"`
	Correct     bool   `json:"correct"`
	Answer      int    `json:"answer"`
	Explanation string `json:"explanation"`
}

// Score grades answers against questions. Missing trailing answers count as
// unanswered.
func Score(questions []Question, answers []int) (int, []Result) {
	score := 0
	results := make([]Result, 0, len(questions))

	for i, q := range questions {
		selected := Unanswered
		if i < len(answers) {
			selected = answers[i]
		}

		correct := selected == q.Answer
		if correct {
			score++
		}

		results = append(results, Result{
			Index:       i,
			Selected:    selected,
			Correct:     correct,
			Answer:      q.Answer,
			Explanation: q.Explanation,
		})
	}

	return score, results
}
