// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/medprep/internal/core"
)

type PlanTotals struct {
	Plan       string `db:"plan"        json:"plan"`
	Accounts   int    `db:"accounts"    json:"accounts"`
	TokensUsed int64  `db:"tokens_used" json:"tokens_used"`
	Exhausted  int    `db:"exhausted"   json:"exhausted"`
}

type CategoryTotals struct {
	Category string `db:"category" json:"category"`
	Records  int    `db:"records"  json:"records"`
	Units    int64  `db:"units"    json:"units"`
}

// Repository reads platform-wide usage aggregates.
type Repository interface {
	PlanTotals(ctx context.Context) ([]PlanTotals, error)
	CategoryTotals(ctx context.Context, since time.Time) ([]CategoryTotals, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) PlanTotals(ctx context.Context) ([]PlanTotals, error) {
	query := `
		SELECT plan,
		       COUNT(*) AS accounts,
		       COALESCE(SUM(tokens_used), 0) AS tokens_used,
		       COUNT(*) FILTER (WHERE plan = 'trial' AND tokens_used >= token_limit) AS exhausted
		FROM accounts
		WHERE deleted_at IS NULL
		GROUP BY plan
		ORDER BY plan`

	var totals []PlanTotals
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("plan totals: %w", err)
	}
	return totals, nil
}

func (r *repository) CategoryTotals(
	ctx context.Context,
	since time.Time,
) ([]CategoryTotals, error) {
	query := `
		SELECT category,
		       COUNT(*) AS records,
		       COALESCE(SUM((metadata->>'units')::bigint), 0) AS units
		FROM activity_records
		WHERE created_at >= $1
		GROUP BY category
		ORDER BY category`

	var totals []CategoryTotals
	if err := r.db.SelectContext(ctx, &totals, query, since); err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return totals, nil
}
