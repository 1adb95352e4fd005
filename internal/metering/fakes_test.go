// AngelaMos | 2026
// fakes_test.go

package metering

import (
	"context"
	"fmt"
	"sync"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/core"
)

// memLedger applies the same conditional rule as the SQL ledger under a
// mutex, which stands in for the row lock of the UPDATE.
type memLedger struct {
	mu       sync.Mutex
	accounts map[string]Usage
}

func newMemLedger() *memLedger {
	return &memLedger{accounts: make(map[string]Usage)}
}

func (m *memLedger) set(id string, u Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[id] = u
}

func (m *memLedger) get(id string) Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

func (m *memLedger) Usage(_ context.Context, id string) (Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.accounts[id]
	if !ok {
		return Usage{}, fmt.Errorf("get usage: %w", core.ErrNotFound)
	}
	return u, nil
}

func (m *memLedger) Reserve(_ context.Context, id string, amount int) (Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.accounts[id]
	if !ok {
		return Usage{}, &core.QuotaError{Requested: amount}
	}
	if !u.Allows(amount) {
		return u, quotaError(u, amount)
	}

	u.Consumed += amount
	m.accounts[id] = u
	return u, nil
}

func (m *memLedger) Adjust(_ context.Context, id string, delta int) (Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.accounts[id]
	if !ok {
		return Usage{}, fmt.Errorf("adjust usage: %w", core.ErrNotFound)
	}

	u.Consumed = max(u.Consumed+delta, 0)
	m.accounts[id] = u
	return u, nil
}

func (m *memLedger) snapshot() map[string]Usage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Usage, len(m.accounts))
	for k, v := range m.accounts {
		out[k] = v
	}
	return out
}

func (m *memLedger) restore(s map[string]Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = s
}

type memActivities struct {
	mu      sync.Mutex
	records []activity.Record
	failOn  error
}

func (m *memActivities) Create(_ context.Context, r *activity.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn != nil {
		return m.failOn
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *memActivities) ListRecent(_ context.Context, accountID string, limit int) ([]activity.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []activity.Record
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.records[i].AccountID == accountID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *memActivities) CountByCategory(_ context.Context, accountID string) (map[activity.Category]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[activity.Category]int)
	for _, r := range m.records {
		if r.AccountID == accountID {
			out[r.Category]++
		}
	}
	return out, nil
}

func (m *memActivities) snapshot() []activity.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]activity.Record(nil), m.records...)
}

func (m *memActivities) restore(s []activity.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = s
}

// memTransactor rolls the in-memory stores back when fn fails.
type memTransactor struct {
	ledger     *memLedger
	activities *memActivities
}

func (t *memTransactor) Transact(_ context.Context, fn func(tx core.DBTX) error) error {
	ledgerState := t.ledger.snapshot()
	activityState := t.activities.snapshot()

	if err := fn(nil); err != nil {
		t.ledger.restore(ledgerState)
		t.activities.restore(activityState)
		return err
	}
	return nil
}
