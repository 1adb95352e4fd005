// AngelaMos | 2026
// repository.go

package activity

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Repository interface {
	Create(ctx context.Context, record *Record) error
	ListRecent(ctx context.Context, accountID string, limit int) ([]Record, error)
	CountByCategory(ctx context.Context, accountID string) (map[Category]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO activity_records (id, account_id, category, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &record.CreatedAt, query,
		record.ID,
		record.AccountID,
		record.Category,
		record.Description,
		record.Metadata,
	)
	if err != nil {
		return fmt.Errorf("create activity record: %w", err)
	}

	return nil
}

func (r *repository) ListRecent(
	ctx context.Context,
	accountID string,
	limit int,
) ([]Record, error) {
	query := `
		SELECT id, account_id, category, description, metadata, created_at
		FROM activity_records
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	var records []Record
	if err := r.db.SelectContext(ctx, &records, query, accountID, limit); err != nil {
		return nil, fmt.Errorf("list activity records: %w", err)
	}

	return records, nil
}

func (r *repository) CountByCategory(
	ctx context.Context,
	accountID string,
) (map[Category]int, error) {
	query := `
		SELECT category, COUNT(*) AS total
		FROM activity_records
		WHERE account_id = $1
		GROUP BY category`

	var rows []struct {
		Category Category `db:"category"`
		Total    int      `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, accountID); err != nil {
		return nil, fmt.Errorf("count activity records: %w", err)
	}

	counts := make(map[Category]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}

	return counts, nil
}
