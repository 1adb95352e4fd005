// AngelaMos | 2026
// service.go

package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
)

const (
	DefaultContextWindow = 10

	tutorPrompt = `You are a medical education tutor for students preparing for board exams.
Answer accurately and concisely, explain the underlying physiology or pharmacology,
and point out high-yield facts. You do not give personal medical advice.`

	chatTemperature = 0.4
)

type Service struct {
	repo     Repository
	pipeline *metering.Pipeline
	gate     *metering.Gate
	window   int
}

func NewService(
	db core.DBTX,
	pipeline *metering.Pipeline,
	gate *metering.Gate,
	window int,
) *Service {
	if window < 1 {
		window = DefaultContextWindow
	}

	return &Service{
		repo:     NewRepository(db),
		pipeline: pipeline,
		gate:     gate,
		window:   window,
	}
}

func (s *Service) CreateThread(
	ctx context.Context,
	accountID string,
	req CreateThreadRequest,
) (*Thread, error) {
	title := req.Title
	if title == "" {
		title = DefaultThreadTitle
	}

	thread := &Thread{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Title:     title,
	}

	if err := s.repo.CreateThread(ctx, thread); err != nil {
		return nil, err
	}

	return thread, nil
}

func (s *Service) GetThread(
	ctx context.Context,
	accountID, threadID string,
) (*Thread, []Message, error) {
	thread, err := s.repo.GetThread(ctx, accountID, threadID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.repo.ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, nil, err
	}

	return thread, messages, nil
}

func (s *Service) ListThreads(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]Thread, int, error) {
	return s.repo.ListThreads(ctx, accountID, page)
}

func (s *Service) RenameThread(
	ctx context.Context,
	accountID, threadID string,
	req RenameThreadRequest,
) (*Thread, error) {
	if err := s.repo.RenameThread(ctx, accountID, threadID, req.Title); err != nil {
		return nil, err
	}

	return s.repo.GetThread(ctx, accountID, threadID)
}

func (s *Service) DeleteThread(ctx context.Context, accountID, threadID string) error {
	return s.repo.DeleteThread(ctx, accountID, threadID)
}

// Reply is the outcome of one chat turn.
type Reply struct {
	UserMessage      Message
	Assistant        Message
	Usage            metering.Usage
	ContextTruncated bool
}

// SendMessage reserves quota, appends the user's message, asks the tutor
// with the most recent messages as context, and stores the reply. The user
// message stays in the thread when generation fails; a quota rejection
// stores nothing.
func (s *Service) SendMessage(
	ctx context.Context,
	accountID, threadID string,
	req SendMessageRequest,
) (*Reply, error) {
	thread, err := s.repo.GetThread(ctx, accountID, threadID)
	if err != nil {
		return nil, err
	}

	prior, err := s.repo.RecentMessages(ctx, thread.ID, s.window)
	if err != nil {
		return nil, err
	}

	history, truncated := contextWindow(prior, s.window)
	request := ai.Request{
		System:      tutorPrompt,
		History:     history,
		Prompt:      req.Content,
		Temperature: chatTemperature,
	}

	if _, err := s.gate.Check(ctx, accountID, s.pipeline.Estimate(request)); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	userMsg := &Message{
		ID:       uuid.New().String(),
		ThreadID: thread.ID,
		Role:     string(ai.RoleUser),
		Content:  req.Content,
	}

	assistant := &Message{
		ID:       uuid.New().String(),
		ThreadID: thread.ID,
		Role:     string(ai.RoleAssistant),
	}

	outcome, err := s.pipeline.Run(ctx, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryChat,
		Description: "Chat: " + thread.Title,
		Metadata:    map[string]any{"thread_id": thread.ID},
		Request:     request,
		Reserved: func(ctx context.Context) error {
			return s.repo.AppendMessage(ctx, userMsg)
		},
		Persist: func(ctx context.Context, tx core.DBTX, c *ai.Completion, units int) error {
			assistant.Content = c.Text
			assistant.TokensUsed = units

			repo := NewRepository(tx)
			if err := repo.AppendMessage(ctx, assistant); err != nil {
				return err
			}
			return repo.AddThreadUsage(ctx, thread.ID, units)
		},
	})
	if err != nil {
		return nil, err
	}

	return &Reply{
		UserMessage:      *userMsg,
		Assistant:        *assistant,
		Usage:            outcome.Usage,
		ContextTruncated: truncated,
	}, nil
}

// contextWindow keeps the newest window-1 stored messages so that, with the
// new prompt, at most window messages go to the provider.
func contextWindow(prior []Message, window int) ([]ai.Message, bool) {
	keep := max(window-1, 0)

	truncated := len(prior) > keep
	if truncated {
		prior = prior[len(prior)-keep:]
	}

	history := make([]ai.Message, 0, len(prior))
	for _, m := range prior {
		history = append(history, m.toAI())
	}
	return history, truncated
}
