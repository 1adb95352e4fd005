// AngelaMos | 2026
// pipeline_test.go

package metering

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
)

type pipelineFixture struct {
	ledger     *memLedger
	activities *memActivities
	calls      atomic.Int32
	pipeline   *Pipeline
}

func newFixture(client func(ctx context.Context, req ai.Request) (*ai.Completion, error)) *pipelineFixture {
	f := &pipelineFixture{
		ledger:     newMemLedger(),
		activities: &memActivities{},
	}

	f.pipeline = NewPipeline(PipelineDeps{
		Tx:         &memTransactor{ledger: f.ledger, activities: f.activities},
		Ledgers:    func(core.DBTX) Ledger { return f.ledger },
		Activities: func(core.DBTX) activity.Repository { return f.activities },
		Client: ai.ClientFunc(func(ctx context.Context, req ai.Request) (*ai.Completion, error) {
			f.calls.Add(1)
			return client(ctx, req)
		}),
		CharsPerUnit: DefaultCharsPerUnit,
	})

	return f
}

func fixedCompletion(text string, units int) func(context.Context, ai.Request) (*ai.Completion, error) {
	return func(context.Context, ai.Request) (*ai.Completion, error) {
		return &ai.Completion{Text: text, Units: units}, nil
	}
}

type quizPayload struct {
	Questions []struct {
		Question string   `json:"question" validate:"required"`
		Options  []string `json:"options"  validate:"len=4"`
		Answer   int      `json:"answer"   validate:"min=0,max=3"`
	} `json:"questions" validate:"required,min=1,dive"`
}

func quizJob(prompt string, persisted *int) Job {
	var payload quizPayload
	return Job{
		AccountID:   "acct",
		Category:    activity.CategoryQuiz,
		Description: "Generated quiz: cardiology",
		Metadata:    map[string]any{"topic": "cardiology"},
		Request:     ai.Request{Prompt: prompt, Structured: true},
		Validate: func(c *ai.Completion) error {
			return ai.Decode(c, &payload)
		},
		Persist: func(_ context.Context, _ core.DBTX, _ *ai.Completion, units int) error {
			if persisted != nil {
				*persisted = units
			}
			return nil
		},
	}
}

const validQuiz = `{"questions":[{"question":"First-line for stable angina?","options":["A","B","C","D"],"answer":1}]}`

func TestRunQuizSuccessChargesReportedUnits(t *testing.T) {
	f := newFixture(fixedCompletion(validQuiz, 1200))
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 0, Limit: 20000})

	var persisted int
	outcome, err := f.pipeline.Run(context.Background(), quizJob(strings.Repeat("q", 80), &persisted))
	require.NoError(t, err)

	assert.Equal(t, 20, outcome.Estimate)
	assert.Equal(t, 1200, outcome.Units)
	assert.Equal(t, 1200, persisted)
	assert.Equal(t, 1200, outcome.Usage.Consumed)
	assert.Equal(t, 18800, outcome.Usage.Remaining())
	assert.Equal(t, 1200, f.ledger.get("acct").Consumed)

	records := f.activities.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, activity.CategoryQuiz, records[0].Category)
	assert.Equal(t, "acct", records[0].AccountID)
	assert.JSONEq(t, `{"topic":"cardiology","units":1200}`, string(records[0].Metadata))
}

func TestRunRejectsWhenEstimateExceedsQuota(t *testing.T) {
	f := newFixture(fixedCompletion("unused", 99))
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 19995, Limit: 20000})

	job := quizJob(strings.Repeat("x", 40), nil)
	require.Equal(t, 10, f.pipeline.Estimate(job.Request))

	_, err := f.pipeline.Run(context.Background(), job)
	require.ErrorIs(t, err, core.ErrQuotaExceeded)

	var quota *core.QuotaError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, 19995, quota.Used)
	assert.Equal(t, 5, quota.Remaining)

	assert.Zero(t, f.calls.Load(), "provider must not be called")
	assert.Equal(t, 19995, f.ledger.get("acct").Consumed)
	assert.Empty(t, f.activities.snapshot())
}

func TestRunUnknownAccountFailsClosed(t *testing.T) {
	f := newFixture(fixedCompletion("unused", 1))

	_, err := f.pipeline.Run(context.Background(), quizJob("hello", nil))
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Zero(t, f.calls.Load())
}

func TestRunSubscribedIgnoresLimit(t *testing.T) {
	f := newFixture(fixedCompletion(validQuiz, 900))
	f.ledger.set("acct", Usage{Plan: PlanSubscribed, Consumed: 50000, Limit: 20000})

	outcome, err := f.pipeline.Run(context.Background(), quizJob(strings.Repeat("x", 4000), nil))
	require.NoError(t, err)
	assert.Equal(t, 50900, outcome.Usage.Consumed)
	assert.True(t, outcome.Usage.Unlimited())
}

func TestRunMalformedLeavesLedgerAndActivityUntouched(t *testing.T) {
	f := newFixture(fixedCompletion(`{"questions":[{"question":"","options":["A"]}]}`, 700))
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 300, Limit: 20000})

	persisted := -1
	_, err := f.pipeline.Run(context.Background(), quizJob(strings.Repeat("y", 100), &persisted))
	require.ErrorIs(t, err, core.ErrMalformedGeneration)

	assert.Equal(t, 300, f.ledger.get("acct").Consumed)
	assert.Empty(t, f.activities.snapshot())
	assert.Equal(t, -1, persisted)
}

func TestRunProviderFailureReleasesReservation(t *testing.T) {
	f := newFixture(func(context.Context, ai.Request) (*ai.Completion, error) {
		return nil, errors.Join(core.ErrGenerationFailed, errors.New("upstream 502"))
	})
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 100, Limit: 20000})

	_, err := f.pipeline.Run(context.Background(), quizJob(strings.Repeat("z", 64), nil))
	require.ErrorIs(t, err, core.ErrGenerationFailed)

	assert.Equal(t, 100, f.ledger.get("acct").Consumed)
	assert.Empty(t, f.activities.snapshot())
}

func TestRunReservedHook(t *testing.T) {
	t.Run("skipped when quota is denied", func(t *testing.T) {
		f := newFixture(fixedCompletion(validQuiz, 10))
		f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 20000, Limit: 20000})

		job := quizJob("denied", nil)
		ran := false
		job.Reserved = func(context.Context) error {
			ran = true
			return nil
		}

		_, err := f.pipeline.Run(context.Background(), job)
		require.ErrorIs(t, err, core.ErrQuotaExceeded)
		assert.False(t, ran)
	})

	t.Run("failure releases without calling the provider", func(t *testing.T) {
		f := newFixture(fixedCompletion(validQuiz, 10))
		f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 300, Limit: 20000})

		job := quizJob(strings.Repeat("r", 40), nil)
		job.Reserved = func(context.Context) error {
			assert.Equal(t, 310, f.ledger.get("acct").Consumed)
			return errors.New("append failed")
		}

		_, err := f.pipeline.Run(context.Background(), job)
		require.Error(t, err)
		assert.Equal(t, 300, f.ledger.get("acct").Consumed)
		assert.Zero(t, f.calls.Load())
		assert.Empty(t, f.activities.snapshot())
	})
}

func TestRunCommitFailureRollsBackAndReleases(t *testing.T) {
	f := newFixture(fixedCompletion(validQuiz, 500))
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 100, Limit: 20000})
	f.activities.failOn = errors.New("insert failed")

	_, err := f.pipeline.Run(context.Background(), quizJob(strings.Repeat("z", 64), nil))
	require.Error(t, err)

	assert.Equal(t, 100, f.ledger.get("acct").Consumed)
	assert.Empty(t, f.activities.snapshot())
}

func TestRunPersistFailureRollsBack(t *testing.T) {
	f := newFixture(fixedCompletion(validQuiz, 500))
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 100, Limit: 20000})

	job := quizJob(strings.Repeat("z", 64), nil)
	job.Persist = func(context.Context, core.DBTX, *ai.Completion, int) error {
		return errors.New("disk full")
	}

	_, err := f.pipeline.Run(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, 100, f.ledger.get("acct").Consumed)
	assert.Empty(t, f.activities.snapshot())
}

func TestRunFallsBackToEstimateWhenUnitsMissing(t *testing.T) {
	f := newFixture(fixedCompletion(validQuiz, 0))
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 0, Limit: 20000})

	outcome, err := f.pipeline.Run(context.Background(), quizJob(strings.Repeat("a", 41), nil))
	require.NoError(t, err)
	assert.Equal(t, 11, outcome.Units)
	assert.Equal(t, 11, f.ledger.get("acct").Consumed)
}

func TestRunConcurrentReservationsAdmitOne(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(func(ctx context.Context, _ ai.Request) (*ai.Completion, error) {
		<-release
		return &ai.Completion{Text: "ok", Units: 8}, nil
	})
	f.ledger.set("acct", Usage{Plan: PlanTrial, Consumed: 19990, Limit: 20000})

	job := Job{
		AccountID:   "acct",
		Category:    activity.CategoryChat,
		Description: "Chat message",
		Request:     ai.Request{Prompt: strings.Repeat("c", 32)},
	}
	require.Equal(t, 8, f.pipeline.Estimate(job.Request))

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
		rejected atomic.Int32
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.pipeline.Run(context.Background(), job)
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, core.ErrQuotaExceeded):
				rejected.Add(1)
			}
		}()
	}

	require.Eventually(t, func() bool {
		return rejected.Load() == 1
	}, testTimeout, testTick)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
	assert.Equal(t, int32(1), rejected.Load())
	assert.Equal(t, 19998, f.ledger.get("acct").Consumed)
	assert.Len(t, f.activities.snapshot(), 1)
}
