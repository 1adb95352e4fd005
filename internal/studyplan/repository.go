// AngelaMos | 2026
// repository.go

package studyplan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Repository interface {
	Create(ctx context.Context, plan *StudyPlan) error
	Get(ctx context.Context, accountID, id string) (*StudyPlan, error)
	List(ctx context.Context, accountID string, page core.PageParams) ([]StudyPlan, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const planColumns = `id, account_id, exam_date, hours_per_week, weak_topics, plan, tokens_used, created_at`

func (r *repository) Create(ctx context.Context, plan *StudyPlan) error {
	query := `
		INSERT INTO study_plans (id, account_id, exam_date, hours_per_week, weak_topics, plan, tokens_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &plan.CreatedAt, query,
		plan.ID,
		plan.AccountID,
		plan.ExamDate,
		plan.HoursPerWeek,
		plan.WeakTopics,
		plan.Plan,
		plan.TokensUsed,
	)
	if err != nil {
		return fmt.Errorf("create study plan: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, accountID, id string) (*StudyPlan, error) {
	query := `SELECT ` + planColumns + `
		FROM study_plans
		WHERE id = $1 AND account_id = $2`

	var plan StudyPlan
	err := r.db.GetContext(ctx, &plan, query, id, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get study plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get study plan: %w", err)
	}

	return &plan, nil
}

func (r *repository) List(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]StudyPlan, int, error) {
	page.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM study_plans WHERE account_id = $1`, accountID); err != nil {
		return nil, 0, fmt.Errorf("count study plans: %w", err)
	}

	query := `SELECT ` + planColumns + `
		FROM study_plans
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var plans []StudyPlan
	err := r.db.SelectContext(ctx, &plans, query, accountID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list study plans: %w", err)
	}

	return plans, total, nil
}
