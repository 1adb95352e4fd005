// AngelaMos | 2026
// pipeline.go

package metering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
)

// Job describes one metered feature call.
type Job struct {
	AccountID   string
	Category    activity.Category
	Description string
	Metadata    map[string]any
	Request     ai.Request

	// Reserved runs once the reservation is held and before the provider
	// call. A failure releases the reservation.
	Reserved func(ctx context.Context) error

	// Validate runs on the completion before anything is charged. Structured
	// features decode and schema-check here.
	Validate func(c *ai.Completion) error

	// Persist stores the feature artifact inside the charging transaction.
	Persist func(ctx context.Context, tx core.DBTX, c *ai.Completion, units int) error
}

type Outcome struct {
	Completion *ai.Completion
	Estimate   int
	Units      int
	Usage      Usage
	Activity   *activity.Record
}

type PipelineDeps struct {
	Tx           core.Transactor
	DB           core.DBTX
	Ledgers      LedgerFactory
	Activities   func(db core.DBTX) activity.Repository
	Client       ai.Client
	CharsPerUnit int
	Logger       *slog.Logger
}

// Pipeline runs reserve, generate, then one transaction that trues up the
// ledger, persists the artifact, and records the activity. A failure after
// the reservation releases it.
type Pipeline struct {
	tx           core.Transactor
	ledger       Ledger
	ledgers      LedgerFactory
	activities   func(db core.DBTX) activity.Repository
	client       ai.Client
	charsPerUnit int
	logger       *slog.Logger
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Ledgers == nil {
		deps.Ledgers = NewLedger
	}
	if deps.Activities == nil {
		deps.Activities = activity.NewRepository
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Pipeline{
		tx:           deps.Tx,
		ledger:       deps.Ledgers(deps.DB),
		ledgers:      deps.Ledgers,
		activities:   deps.Activities,
		client:       deps.Client,
		charsPerUnit: deps.CharsPerUnit,
		logger:       deps.Logger,
	}
}

// Estimate is the reservation a request would make.
func (p *Pipeline) Estimate(req ai.Request) int {
	return EstimateUnitsWith(req.InputText(), p.charsPerUnit)
}

func (p *Pipeline) Run(ctx context.Context, job Job) (*Outcome, error) {
	category := string(job.Category)

	ctx, span := core.StartSpan(ctx, "metering.run",
		attribute.String("account.id", job.AccountID),
		attribute.String("activity.category", category),
	)
	defer span.End()

	if job.AccountID == "" {
		return nil, fmt.Errorf("%s: %w", category, core.ErrUnauthorized)
	}

	estimate := p.Estimate(job.Request)
	span.SetAttributes(attribute.Int("metering.estimate", estimate))

	if _, err := p.ledger.Reserve(ctx, job.AccountID, estimate); err != nil {
		if errors.Is(err, core.ErrQuotaExceeded) {
			core.QuotaRejectionsTotal.WithLabelValues(category).Inc()
			p.logger.InfoContext(ctx, "quota exceeded",
				"account_id", job.AccountID,
				"category", category,
				"estimate", estimate,
			)
		}
		return nil, fmt.Errorf("%s: %w", category, err)
	}

	if job.Reserved != nil {
		if err := job.Reserved(ctx); err != nil {
			p.release(ctx, job.AccountID, estimate)
			core.SetSpanError(ctx, err)
			return nil, fmt.Errorf("%s: %w", category, err)
		}
	}

	completion, err := p.generate(ctx, job)
	if err != nil {
		p.release(ctx, job.AccountID, estimate)
		core.GenerationFailuresTotal.WithLabelValues(category, failureReason(err)).Inc()
		core.SetSpanError(ctx, err)
		p.logger.WarnContext(ctx, "generation failed",
			"account_id", job.AccountID,
			"category", category,
			"error", err,
		)
		return nil, fmt.Errorf("%s: %w", category, err)
	}

	units := ActualUnits(completion.Units, estimate)
	outcome := &Outcome{
		Completion: completion,
		Estimate:   estimate,
		Units:      units,
	}

	err = p.tx.Transact(ctx, func(tx core.DBTX) error {
		usage, err := NewMeter(p.ledgers(tx)).Apply(ctx, job.AccountID, units-estimate)
		if err != nil {
			return err
		}
		outcome.Usage = usage

		if job.Persist != nil {
			if err := job.Persist(ctx, tx, completion, units); err != nil {
				return fmt.Errorf("persist: %w", err)
			}
		}

		record, err := activity.NewRecord(
			job.AccountID,
			job.Category,
			job.Description,
			withUnits(job.Metadata, units),
		)
		if err != nil {
			return err
		}
		if err := p.activities(tx).Create(ctx, record); err != nil {
			return err
		}
		outcome.Activity = record

		return nil
	})
	if err != nil {
		p.release(ctx, job.AccountID, estimate)
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("%s: commit: %w", category, err)
	}

	core.UsageUnitsTotal.WithLabelValues(category).Add(float64(units))
	span.SetAttributes(attribute.Int("metering.units", units))

	return outcome, nil
}

func (p *Pipeline) generate(ctx context.Context, job Job) (*ai.Completion, error) {
	start := time.Now()
	completion, err := p.client.Complete(ctx, job.Request)
	core.GenerationDuration.WithLabelValues(string(job.Category)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if job.Validate != nil {
		if err := job.Validate(completion); err != nil {
			return nil, err
		}
	}

	return completion, nil
}

// release returns a reservation. It runs detached from the request context
// so a disconnected client still gets its units back.
func (p *Pipeline) release(ctx context.Context, accountID string, amount int) {
	if amount == 0 {
		return
	}

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := p.ledger.Adjust(releaseCtx, accountID, -amount); err != nil {
		p.logger.ErrorContext(ctx, "release reservation failed",
			"account_id", accountID,
			"amount", amount,
			"error", err,
		)
	}
}

func withUnits(metadata map[string]any, units int) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["units"] = units
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, core.ErrMalformedGeneration):
		return "malformed"
	case errors.Is(err, core.ErrAIUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "provider"
	}
}
