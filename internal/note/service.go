// AngelaMos | 2026
// service.go

package note

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
)

const systemPrompt = `You write study notes for medical students in Markdown.
Be accurate, prefer high-yield facts, and use headings and bullet points.`

var formatInstructions = map[string]string{
	"summary":    "Write a concise summary with the key concepts.",
	"outline":    "Write a hierarchical outline.",
	"flashcards": "Write question/answer flashcards, one per bullet, formatted 'Q: ... A: ...'.",
}

type Service struct {
	repo     Repository
	tx       core.Transactor
	pipeline *metering.Pipeline
}

func NewService(db core.DBTX, tx core.Transactor, pipeline *metering.Pipeline) *Service {
	return &Service{
		repo:     NewRepository(db),
		tx:       tx,
		pipeline: pipeline,
	}
}

// save runs write against a transaction and logs the note activity in it.
func (s *Service) save(
	ctx context.Context,
	note *Note,
	description string,
	write func(repo Repository) error,
) error {
	return s.tx.Transact(ctx, func(tx core.DBTX) error {
		if err := write(NewRepository(tx)); err != nil {
			return err
		}

		_, err := activity.NewService(activity.NewRepository(tx)).Record(
			ctx,
			note.AccountID,
			activity.CategoryNotes,
			description,
			map[string]any{"note_id": note.ID, "topic": note.Topic},
		)
		return err
	})
}

func (s *Service) Create(
	ctx context.Context,
	accountID string,
	req CreateNoteRequest,
) (*Note, error) {
	note := &Note{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Title:     req.Title,
		Content:   req.Content,
		Topic:     req.Topic,
	}

	err := s.save(ctx, note, "Created note: "+note.Title, func(repo Repository) error {
		return repo.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	return note, nil
}

func (s *Service) Get(ctx context.Context, accountID, id string) (*Note, error) {
	return s.repo.Get(ctx, accountID, id)
}

func (s *Service) List(
	ctx context.Context,
	accountID string,
	params ListParams,
) ([]Note, int, error) {
	return s.repo.List(ctx, accountID, params)
}

func (s *Service) Update(
	ctx context.Context,
	accountID, id string,
	req UpdateNoteRequest,
) (*Note, error) {
	note, err := s.repo.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Topic != nil {
		note.Topic = *req.Topic
	}

	err = s.save(ctx, note, "Updated note: "+note.Title, func(repo Repository) error {
		return repo.Update(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	return note, nil
}

func (s *Service) Delete(ctx context.Context, accountID, id string) error {
	return s.repo.Delete(ctx, accountID, id)
}

// Generate writes a note with the model and saves it with the charge.
func (s *Service) Generate(
	ctx context.Context,
	accountID string,
	req GenerateNoteRequest,
) (*Note, metering.Usage, error) {
	format := req.Format
	if format == "" {
		format = "summary"
	}

	title := req.Title
	if title == "" {
		title = req.Topic
	}

	prompt := fmt.Sprintf("Topic: %s\n%s", req.Topic, formatInstructions[format])
	if req.Source != "" {
		prompt += "\nBase the notes on this material:\n" + req.Source
	}

	note := &Note{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Title:     title,
		Topic:     req.Topic,
	}

	outcome, err := s.pipeline.Run(ctx, metering.Job{
		AccountID:   accountID,
		Category:    activity.CategoryNotes,
		Description: "Generated notes: " + req.Topic,
		Metadata: map[string]any{
			"note_id": note.ID,
			"format":  format,
		},
		Request: ai.Request{
			System:    systemPrompt,
			Prompt:    prompt,
			MaxTokens: 2000,
		},
		Persist: func(ctx context.Context, tx core.DBTX, c *ai.Completion, _ int) error {
			note.Content = c.Text
			return NewRepository(tx).Create(ctx, note)
		},
	})
	if err != nil {
		return nil, metering.Usage{}, err
	}

	return note, outcome.Usage, nil
}
