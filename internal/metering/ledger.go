// AngelaMos | 2026
// ledger.go

package metering

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

// Ledger stores per-account consumption on the accounts table.
type Ledger interface {
	Usage(ctx context.Context, accountID string) (Usage, error)
	// Reserve adds amount only if the gate rule holds at write time. A denied
	// reservation returns *core.QuotaError and changes nothing.
	Reserve(ctx context.Context, accountID string, amount int) (Usage, error)
	// Adjust adds delta unconditionally, flooring the counter at zero.
	Adjust(ctx context.Context, accountID string, delta int) (Usage, error)
}

// LedgerFactory binds a ledger to a connection or transaction.
type LedgerFactory func(db core.DBTX) Ledger

type ledger struct {
	db core.DBTX
}

func NewLedger(db core.DBTX) Ledger {
	return &ledger{db: db}
}

func (l *ledger) Usage(ctx context.Context, accountID string) (Usage, error) {
	query := `
		SELECT plan, tokens_used, token_limit
		FROM accounts
		WHERE id = $1 AND deleted_at IS NULL`

	var usage Usage
	err := l.db.GetContext(ctx, &usage, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return Usage{}, fmt.Errorf("get usage: %w", core.ErrNotFound)
	}
	if err != nil {
		return Usage{}, fmt.Errorf("get usage: %w", err)
	}

	return usage, nil
}

func (l *ledger) Reserve(
	ctx context.Context,
	accountID string,
	amount int,
) (Usage, error) {
	query := `
		UPDATE accounts
		SET tokens_used = tokens_used + $2, updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND (plan = 'subscribed' OR tokens_used + $2 <= token_limit)
		RETURNING plan, tokens_used, token_limit`

	var usage Usage
	err := l.db.GetContext(ctx, &usage, query, accountID, amount)
	if err == nil {
		return usage, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Usage{}, fmt.Errorf("reserve units: %w", err)
	}

	current, err := l.Usage(ctx, accountID)
	if errors.Is(err, core.ErrNotFound) {
		return Usage{}, &core.QuotaError{Requested: amount}
	}
	if err != nil {
		return Usage{}, fmt.Errorf("reserve units: %w", err)
	}

	return current, quotaError(current, amount)
}

func (l *ledger) Adjust(
	ctx context.Context,
	accountID string,
	delta int,
) (Usage, error) {
	query := `
		UPDATE accounts
		SET tokens_used = GREATEST(tokens_used + $2, 0), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING plan, tokens_used, token_limit`

	var usage Usage
	err := l.db.GetContext(ctx, &usage, query, accountID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return Usage{}, fmt.Errorf("adjust usage: %w", core.ErrNotFound)
	}
	if err != nil {
		return Usage{}, fmt.Errorf("adjust usage: %w", err)
	}

	return usage, nil
}

func quotaError(u Usage, requested int) *core.QuotaError {
	return &core.QuotaError{
		Plan:      u.Plan,
		Used:      u.Consumed,
		Limit:     u.Limit,
		Remaining: u.Remaining(),
		Requested: requested,
	}
}
