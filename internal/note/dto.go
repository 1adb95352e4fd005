// AngelaMos | 2026
// dto.go

package note

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
)

type CreateNoteRequest struct {
	Title   string `json:"title"   validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,max=50000"`
	Topic   string `json:"topic"   validate:"omitempty,max=100"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title"   validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,max=50000"`
	Topic   *string `json:"topic"   validate:"omitempty,max=100"`
}

type GenerateNoteRequest struct {
	Topic  string `json:"topic"  validate:"required,min=2,max=200"`
	Title  string `json:"title"  validate:"omitempty,max=200"`
	Format string `json:"format" validate:"omitempty,oneof=summary outline flashcards"`
	Source string `json:"source" validate:"omitempty,max=20000"`
}

type ListParams struct {
	core.PageParams
	Topic  string
	Search string
}

type NoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GenerateResponse struct {
	Note  NoteResponse           `json:"note"`
	Usage metering.UsageResponse `json:"usage"`
}

func ToNoteResponse(n *Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Topic:     n.Topic,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func ToNoteResponseList(notes []Note) []NoteResponse {
	responses := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		responses = append(responses, ToNoteResponse(&notes[i]))
	}
	return responses
}
