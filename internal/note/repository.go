// AngelaMos | 2026
// repository.go

package note

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Repository interface {
	Create(ctx context.Context, note *Note) error
	Get(ctx context.Context, accountID, id string) (*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, accountID, id string) error
	List(ctx context.Context, accountID string, params ListParams) ([]Note, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const noteColumns = `id, account_id, title, content, topic, created_at, updated_at`

func (r *repository) Create(ctx context.Context, note *Note) error {
	query := `
		INSERT INTO notes (id, account_id, title, content, topic)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		note.ID,
		note.AccountID,
		note.Title,
		note.Content,
		note.Topic,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, accountID, id string) (*Note, error) {
	query := `SELECT ` + noteColumns + `
		FROM notes
		WHERE id = $1 AND account_id = $2`

	var note Note
	err := r.db.GetContext(ctx, &note, query, id, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get note: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	return &note, nil
}

func (r *repository) Update(ctx context.Context, note *Note) error {
	query := `
		UPDATE notes
		SET title = $3, content = $4, topic = $5, updated_at = NOW()
		WHERE id = $1 AND account_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &note.UpdatedAt, query,
		note.ID,
		note.AccountID,
		note.Title,
		note.Content,
		note.Topic,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update note: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, accountID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete note: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	accountID string,
	params ListParams,
) ([]Note, int, error) {
	params.Normalize()

	conditions := []string{"account_id = $1"}
	args := []any{accountID}
	argIdx := 2

	if params.Topic != "" {
		conditions = append(conditions, fmt.Sprintf("topic = $%d", argIdx))
		args = append(args, params.Topic)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR content ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notes WHERE %s", whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM notes
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d`,
		noteColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var notes []Note
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}

	return notes, total, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
