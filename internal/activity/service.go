// AngelaMos | 2026
// service.go

package activity

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends a log entry for an unmetered action. Build the service on
// a transaction to commit the entry together with the action. Metered
// features record through the pipeline instead.
func (s *Service) Record(
	ctx context.Context,
	accountID string,
	category Category,
	description string,
	metadata map[string]any,
) (*Record, error) {
	if accountID == "" {
		return nil, fmt.Errorf("record activity: %w", core.ErrUnauthorized)
	}

	record, err := NewRecord(accountID, category, description, metadata)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

func (s *Service) Recent(
	ctx context.Context,
	accountID string,
	limit int,
) ([]Record, error) {
	if accountID == "" {
		return nil, fmt.Errorf("recent activity: %w", core.ErrUnauthorized)
	}

	return s.repo.ListRecent(ctx, accountID, clampLimit(limit))
}

func (s *Service) Counts(
	ctx context.Context,
	accountID string,
) (map[Category]int, error) {
	return s.repo.CountByCategory(ctx, accountID)
}
