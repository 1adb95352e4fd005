// AngelaMos | 2026
// casestudy_test.go

package casestudy

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
	"github.com/carterperez-dev/medprep/internal/metering/meteringtest"
)

const accountID = "acct-1"

const generatedCase = `{
	"title": "Crushing chest pain",
	"presentation": "58-year-old man with 2 hours of substernal pain.",
	"history": "Hypertension, smoker.",
	"examination": "Diaphoretic, BP 150/90.",
	"investigations": ["ECG: ST elevation V1-V4", "Troponin elevated"],
	"diagnosis": "Anterior STEMI",
	"management": "Aspirin, heparin, primary PCI.",
	"questions": [{"question": "Which artery?", "answer": "LAD"}],
	"teaching_points": ["Door-to-balloon under 90 minutes"]
}`

func TestGenerateStoresCase(t *testing.T) {
	db := meteringtest.New(t)
	provider := &meteringtest.Recorder{Text: generatedCase, Units: 850}
	svc := NewService(db.SQL, db.Pipeline(provider))

	db.ExpectReserve(accountID, metering.PlanTrial, 100, 20000)
	db.Mock.ExpectBegin()
	db.ExpectAdjust(accountID, metering.PlanTrial, 850, 20000)
	db.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO case_studies")).
		WithArgs(sqlmock.AnyArg(), accountID, "cardiology", "medium", sqlmock.AnyArg(), 850).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	db.ExpectActivity(accountID)
	db.Mock.ExpectCommit()

	study, usage, err := svc.Generate(context.Background(), accountID, GenerateRequest{
		Specialty: "cardiology",
		Focus:     "acute coronary syndrome",
	})
	require.NoError(t, err)

	assert.Equal(t, 850, usage.Consumed)
	require.Len(t, provider.Requests, 1)
	assert.True(t, provider.Requests[0].Structured)
	assert.Contains(t, provider.Requests[0].Prompt, "acute coronary syndrome")

	resp := ToCaseResponse(study)
	require.NotNil(t, resp.Content)
	assert.Equal(t, "Anterior STEMI", resp.Content.Diagnosis)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestGenerateQuotaDenied(t *testing.T) {
	db := meteringtest.New(t)
	provider := &meteringtest.Recorder{Text: generatedCase}
	svc := NewService(db.SQL, db.Pipeline(provider))

	db.ExpectReserveDenied(accountID, metering.PlanTrial, 19995, 20000)

	_, _, err := svc.Generate(context.Background(), accountID, GenerateRequest{Specialty: "neurology"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)

	var quotaErr *core.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 5, quotaErr.Remaining)
	assert.Empty(t, provider.Requests)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestGetForeignCase(t *testing.T) {
	db := meteringtest.New(t)
	svc := NewService(db.SQL, db.Pipeline(meteringtest.Client("", 0)))

	db.Mock.ExpectQuery(regexp.QuoteMeta("FROM case_studies")).
		WithArgs("case-1", accountID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Get(context.Background(), accountID, "case-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
