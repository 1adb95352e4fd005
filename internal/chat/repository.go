// AngelaMos | 2026
// repository.go

package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Repository interface {
	CreateThread(ctx context.Context, thread *Thread) error
	GetThread(ctx context.Context, accountID, id string) (*Thread, error)
	ListThreads(ctx context.Context, accountID string, page core.PageParams) ([]Thread, int, error)
	RenameThread(ctx context.Context, accountID, id, title string) error
	DeleteThread(ctx context.Context, accountID, id string) error
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
	// RecentMessages returns at most limit of the newest messages, oldest
	// first.
	RecentMessages(ctx context.Context, threadID string, limit int) ([]Message, error)
	AddThreadUsage(ctx context.Context, threadID string, units int) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) CreateThread(ctx context.Context, thread *Thread) error {
	query := `
		INSERT INTO chat_threads (id, account_id, title)
		VALUES ($1, $2, $3)
		RETURNING tokens_used, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		thread.ID,
		thread.AccountID,
		thread.Title,
	).Scan(&thread.TokensUsed, &thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}

	return nil
}

// GetThread is scoped to the owner; another account's thread is not found.
func (r *repository) GetThread(
	ctx context.Context,
	accountID, id string,
) (*Thread, error) {
	query := `
		SELECT id, account_id, title, tokens_used, created_at, updated_at
		FROM chat_threads
		WHERE id = $1 AND account_id = $2`

	var thread Thread
	err := r.db.GetContext(ctx, &thread, query, id, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get thread: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}

	return &thread, nil
}

func (r *repository) ListThreads(
	ctx context.Context,
	accountID string,
	page core.PageParams,
) ([]Thread, int, error) {
	page.Normalize()

	var total int
	countQuery := `SELECT COUNT(*) FROM chat_threads WHERE account_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, accountID); err != nil {
		return nil, 0, fmt.Errorf("count threads: %w", err)
	}

	query := `
		SELECT id, account_id, title, tokens_used, created_at, updated_at
		FROM chat_threads
		WHERE account_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`

	var threads []Thread
	err := r.db.SelectContext(ctx, &threads, query, accountID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list threads: %w", err)
	}

	return threads, total, nil
}

func (r *repository) RenameThread(
	ctx context.Context,
	accountID, id, title string,
) error {
	query := `
		UPDATE chat_threads
		SET title = $3, updated_at = NOW()
		WHERE id = $1 AND account_id = $2`

	return execOne(ctx, r.db, "rename thread", query, id, accountID, title)
}

func (r *repository) DeleteThread(
	ctx context.Context,
	accountID, id string,
) error {
	query := `DELETE FROM chat_threads WHERE id = $1 AND account_id = $2`

	return execOne(ctx, r.db, "delete thread", query, id, accountID)
}

func (r *repository) AppendMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO chat_messages (id, thread_id, role, content, tokens_used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &msg.CreatedAt, query,
		msg.ID,
		msg.ThreadID,
		msg.Role,
		msg.Content,
		msg.TokensUsed,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	return nil
}

func (r *repository) ListMessages(
	ctx context.Context,
	threadID string,
) ([]Message, error) {
	query := `
		SELECT id, thread_id, role, content, tokens_used, created_at
		FROM chat_messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC`

	var messages []Message
	if err := r.db.SelectContext(ctx, &messages, query, threadID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

func (r *repository) RecentMessages(
	ctx context.Context,
	threadID string,
	limit int,
) ([]Message, error) {
	query := `
		SELECT id, thread_id, role, content, tokens_used, created_at
		FROM (
			SELECT id, thread_id, role, content, tokens_used, created_at
			FROM chat_messages
			WHERE thread_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`

	var messages []Message
	if err := r.db.SelectContext(ctx, &messages, query, threadID, limit); err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}

	return messages, nil
}

func (r *repository) AddThreadUsage(
	ctx context.Context,
	threadID string,
	units int,
) error {
	query := `
		UPDATE chat_threads
		SET tokens_used = tokens_used + $2, updated_at = NOW()
		WHERE id = $1`

	return execOne(ctx, r.db, "add thread usage", query, threadID, units)
}

func execOne(
	ctx context.Context,
	db core.DBTX,
	op, query string,
	args ...any,
) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
