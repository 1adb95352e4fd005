// AngelaMos | 2026
// meter.go

package metering

import (
	"context"
	"fmt"
)

type Meter struct {
	ledger Ledger
}

func NewMeter(ledger Ledger) *Meter {
	return &Meter{ledger: ledger}
}

// Apply adds amount to the account's counter with no quota check. A trial
// account may end above its limit; Remaining clamps that to zero.
func (m *Meter) Apply(
	ctx context.Context,
	accountID string,
	amount int,
) (Usage, error) {
	usage, err := m.ledger.Adjust(ctx, accountID, amount)
	if err != nil {
		return Usage{}, fmt.Errorf("apply usage: %w", err)
	}
	return usage, nil
}

func (m *Meter) Usage(ctx context.Context, accountID string) (Usage, error) {
	return m.ledger.Usage(ctx, accountID)
}
