// AngelaMos | 2026
// repository.go

package casestudy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *CaseStudy) error
	Get(ctx context.Context, accountID, id string) (*CaseStudy, error)
	List(ctx context.Context, accountID string, page core.PageParams) ([]CaseStudy, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *CaseStudy) error {
	query := `
		INSERT INTO case_studies (id, account_id, specialty, difficulty, content, tokens_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &c.CreatedAt, query,
		c.ID,
		c.AccountID,
		c.Specialty,
		c.Difficulty,
		c.Content,
		c.TokensUsed,
	)
	if err != nil {
		return fmt.Errorf("create case study: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, accountID, id string) (*CaseStudy, error) {
	query := `
		SELECT id, account_id, specialty, difficulty, content, tokens_used, created_at
		FROM case_studies
		WHERE id = $1 AND account_id = $2`

	var c CaseStudy
	err := r.db.GetContext(ctx, &c, query, id, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get case study: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case study: %w", err)
	}

	return &c, nil
}

func (r *repository) List(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]CaseStudy, int, error) {
	page.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM case_studies WHERE account_id = $1`, accountID); err != nil {
		return nil, 0, fmt.Errorf("count case studies: %w", err)
	}

	query := `
		SELECT id, account_id, specialty, difficulty, content, tokens_used, created_at
		FROM case_studies
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var cases []CaseStudy
	err := r.db.SelectContext(ctx, &cases, query, accountID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list case studies: %w", err)
	}

	return cases, total, nil
}
