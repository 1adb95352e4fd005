// AngelaMos | 2026
// meteringtest.go

// Package meteringtest drives a real metering pipeline against sqlmock so
// feature services can be tested with the statements they actually issue.
package meteringtest

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
)

var usageColumns = []string{"plan", "tokens_used", "token_limit"}

type DB struct {
	SQL      *sqlx.DB
	Mock     sqlmock.Sqlmock
	Database *core.Database
}

func New(t testing.TB) *DB {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sqlDB := sqlx.NewDb(db, "sqlmock")
	return &DB{SQL: sqlDB, Mock: mock, Database: &core.Database{DB: sqlDB}}
}

// Pipeline builds a pipeline bound to the mock with the given provider.
func (d *DB) Pipeline(client ai.Client) *metering.Pipeline {
	return metering.NewPipeline(metering.PipelineDeps{
		Tx:           d.Database,
		DB:           d.SQL,
		Client:       client,
		CharsPerUnit: metering.DefaultCharsPerUnit,
	})
}

func UsageRows(plan string, used, limit int) *sqlmock.Rows {
	return sqlmock.NewRows(usageColumns).AddRow(plan, used, limit)
}

func (d *DB) ExpectUsage(accountID, plan string, used, limit int) {
	d.Mock.ExpectQuery(regexp.QuoteMeta("SELECT plan, tokens_used, token_limit")).
		WithArgs(accountID).
		WillReturnRows(UsageRows(plan, used, limit))
}

func (d *DB) ExpectReserve(accountID, plan string, usedAfter, limit int) {
	d.Mock.ExpectQuery(regexp.QuoteMeta("tokens_used + $2 <= token_limit")).
		WithArgs(accountID, sqlmock.AnyArg()).
		WillReturnRows(UsageRows(plan, usedAfter, limit))
}

// ExpectReserveDenied models the conditional UPDATE matching no row and the
// follow-up read that fills in the 403 figures.
func (d *DB) ExpectReserveDenied(accountID, plan string, used, limit int) {
	d.Mock.ExpectQuery(regexp.QuoteMeta("tokens_used + $2 <= token_limit")).
		WithArgs(accountID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(usageColumns))
	d.ExpectUsage(accountID, plan, used, limit)
}

func (d *DB) ExpectAdjust(accountID, plan string, usedAfter, limit int) {
	d.Mock.ExpectQuery(regexp.QuoteMeta("GREATEST(tokens_used + $2, 0)")).
		WithArgs(accountID, sqlmock.AnyArg()).
		WillReturnRows(UsageRows(plan, usedAfter, limit))
}

func (d *DB) ExpectActivity(accountID string) {
	d.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO activity_records")).
		WithArgs(sqlmock.AnyArg(), accountID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
}

// Client returns a provider that always answers with text and units.
func Client(text string, units int) ai.Client {
	return ai.ClientFunc(func(context.Context, ai.Request) (*ai.Completion, error) {
		return &ai.Completion{Text: text, Units: units}, nil
	})
}

// Recorder is a provider that remembers every request it served.
type Recorder struct {
	Text     string
	Units    int
	Err      error
	Requests []ai.Request
}

func (r *Recorder) Complete(_ context.Context, req ai.Request) (*ai.Completion, error) {
	r.Requests = append(r.Requests, req)
	if r.Err != nil {
		return nil, r.Err
	}
	return &ai.Completion{Text: r.Text, Units: r.Units}, nil
}
