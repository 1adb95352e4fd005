// AngelaMos | 2026
// dto.go

package chat

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/metering"
)

type CreateThreadRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type RenameThreadRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=8000"`
}

type ThreadResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
}

type ThreadDetailResponse struct {
	ThreadResponse
	Messages []MessageResponse `json:"messages"`
}

type ReplyResponse struct {
	UserMessage      MessageResponse        `json:"user_message"`
	Message          MessageResponse        `json:"message"`
	Usage            metering.UsageResponse `json:"usage"`
	ContextTruncated bool                   `json:"context_truncated"`
}

func ToThreadResponse(t *Thread) ThreadResponse {
	return ThreadResponse{
		ID:         t.ID,
		Title:      t.Title,
		TokensUsed: t.TokensUsed,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func ToThreadResponseList(threads []Thread) []ThreadResponse {
	responses := make([]ThreadResponse, 0, len(threads))
	for i := range threads {
		responses = append(responses, ToThreadResponse(&threads[i]))
	}
	return responses
}

func ToMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		Role:       m.Role,
		Content:    m.Content,
		TokensUsed: m.TokensUsed,
		CreatedAt:  m.CreatedAt,
	}
}

func ToMessageResponseList(messages []Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, ToMessageResponse(&messages[i]))
	}
	return responses
}

func ToReplyResponse(r *Reply) ReplyResponse {
	return ReplyResponse{
		UserMessage:      ToMessageResponse(&r.UserMessage),
		Message:          ToMessageResponse(&r.Assistant),
		Usage:            r.Usage.Response(),
		ContextTruncated: r.ContextTruncated,
	}
}
