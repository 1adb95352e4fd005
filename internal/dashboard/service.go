// AngelaMos | 2026
// service.go

package dashboard

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/metering"
)

const recentActivityLimit = 10

type Overview struct {
	Usage  metering.Usage
	Recent []activity.Record
	Counts map[activity.Category]int
}

type Service struct {
	meter      *metering.Meter
	activities *activity.Service
}

func NewService(meter *metering.Meter, activities *activity.Service) *Service {
	return &Service{meter: meter, activities: activities}
}

func (s *Service) Usage(ctx context.Context, accountID string) (metering.Usage, error) {
	usage, err := s.meter.Usage(ctx, accountID)
	if err != nil {
		return metering.Usage{}, fmt.Errorf("dashboard usage: %w", err)
	}
	return usage, nil
}

func (s *Service) Overview(ctx context.Context, accountID string) (*Overview, error) {
	usage, err := s.Usage(ctx, accountID)
	if err != nil {
		return nil, err
	}

	recent, err := s.activities.Recent(ctx, accountID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	counts, err := s.activities.Counts(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &Overview{Usage: usage, Recent: recent, Counts: counts}, nil
}
