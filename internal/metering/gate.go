// AngelaMos | 2026
// gate.go

package metering

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/medprep/internal/core"
)

// Gate answers whether an account may spend an estimate without writing
// anything. Admission inside the pipeline uses Ledger.Reserve.
type Gate struct {
	ledger Ledger
}

func NewGate(ledger Ledger) *Gate {
	return &Gate{ledger: ledger}
}

// Permit is the read-only admission query for previews and pre-flight
// checks. It reserves nothing, so a true answer can go stale before the
// call; spending always goes through Pipeline.Run.
func (g *Gate) Permit(
	ctx context.Context,
	accountID string,
	estimate int,
) (bool, error) {
	usage, err := g.ledger.Usage(ctx, accountID)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("permit: %w", err)
	}

	return usage.Allows(estimate), nil
}

// Check is Permit returning the figures a 403 response carries.
func (g *Gate) Check(
	ctx context.Context,
	accountID string,
	estimate int,
) (Usage, error) {
	usage, err := g.ledger.Usage(ctx, accountID)
	if errors.Is(err, core.ErrNotFound) {
		return Usage{}, &core.QuotaError{Requested: estimate}
	}
	if err != nil {
		return Usage{}, fmt.Errorf("check quota: %w", err)
	}

	if !usage.Allows(estimate) {
		return usage, quotaError(usage, estimate)
	}

	return usage, nil
}
