// AngelaMos | 2026
// quiz_test.go

package quiz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
	"github.com/carterperez-dev/medprep/internal/metering/meteringtest"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

const accountID = "acct-1"

const twoQuestions = `{"questions":[
	{"question":"First-line for anaphylaxis?","options":["Epinephrine","Diphenhydramine","Prednisone","Albuterol"],"answer":0,"explanation":"IM epinephrine."},
	{"question":"Antidote for heparin?","options":["Vitamin K","Protamine","Idarucizumab","FFP"],"answer":1,"explanation":"Protamine sulfate."}
]}`

const storedQuestions = `[
	{"question":"First-line for anaphylaxis?","options":["Epinephrine","Diphenhydramine","Prednisone","Albuterol"],"answer":0,"explanation":"IM epinephrine."},
	{"question":"Antidote for heparin?","options":["Vitamin K","Protamine","Idarucizumab","FFP"],"answer":1,"explanation":"Protamine sulfate."}
]`

var quizColumns = []string{"id", "account_id", "topic", "difficulty", "questions", "tokens_used", "created_at"}

func newService(db *meteringtest.DB, client ai.Client) *Service {
	return NewService(db.SQL, db.Database, db.Pipeline(client))
}

func TestGenerateChargesActualUnits(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client(twoQuestions, 1200))

	db.ExpectReserve(accountID, metering.PlanTrial, 40, 20000)
	db.Mock.ExpectBegin()
	db.ExpectAdjust(accountID, metering.PlanTrial, 1200, 20000)
	db.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quizzes")).
		WithArgs(sqlmock.AnyArg(), accountID, "pharmacology", "hard", sqlmock.AnyArg(), 1200).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	db.ExpectActivity(accountID)
	db.Mock.ExpectCommit()

	quiz, usage, err := svc.Generate(context.Background(), accountID, GenerateRequest{
		Topic:      "pharmacology",
		Difficulty: "hard",
		Count:      2,
	})
	require.NoError(t, err)

	assert.Equal(t, 18800, usage.Remaining())
	assert.Equal(t, 1200, quiz.TokensUsed)

	questions, err := quiz.DecodeQuestions()
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	view := ToQuizResponse(quiz)
	require.Len(t, view.Questions, 2)
	assert.Len(t, view.Questions[0].Options, 4)

	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestGenerateMalformedReleasesReservation(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client("Here are some great questions!", 300))

	db.ExpectReserve(accountID, metering.PlanTrial, 540, 20000)
	db.ExpectAdjust(accountID, metering.PlanTrial, 500, 20000)

	_, _, err := svc.Generate(context.Background(), accountID, GenerateRequest{Topic: "renal"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedGeneration)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestGenerateTrimsExtraQuestions(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client(twoQuestions, 100))

	db.ExpectReserve(accountID, metering.PlanSubscribed, 40, 20000)
	db.Mock.ExpectBegin()
	db.ExpectAdjust(accountID, metering.PlanSubscribed, 100, 20000)
	db.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quizzes")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	db.ExpectActivity(accountID)
	db.Mock.ExpectCommit()

	quiz, _, err := svc.Generate(context.Background(), accountID, GenerateRequest{Topic: "cardio", Count: 1})
	require.NoError(t, err)

	questions, err := quiz.DecodeQuestions()
	require.NoError(t, err)
	assert.Len(t, questions, 1)
	assert.Equal(t, "medium", quiz.Difficulty)
}

func TestScore(t *testing.T) {
	questions := []Question{{Answer: 0}, {Answer: 1}, {Answer: 2}}

	score, results := Score(questions, []int{0, 3})
	assert.Equal(t, 1, score)
	require.Len(t, results, 3)
	assert.True(t, results[0].Correct)
	assert.False(t, results[1].Correct)
	assert.Equal(t, Unanswered, results[2].Selected)
}

func TestSubmitAttempt(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client("unused", 1))

	db.Mock.ExpectQuery(regexp.QuoteMeta("FROM quizzes")).
		WithArgs("quiz-1", accountID).
		WillReturnRows(sqlmock.NewRows(quizColumns).
			AddRow("quiz-1", accountID, "emergency", "easy", storedQuestions, 900, time.Now()))
	db.Mock.ExpectBegin()
	db.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quiz_attempts")).
		WithArgs(sqlmock.AnyArg(), "quiz-1", accountID, sqlmock.AnyArg(), 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	db.ExpectActivity(accountID)
	db.Mock.ExpectCommit()

	attempt, results, err := svc.SubmitAttempt(context.Background(), accountID, "quiz-1", SubmitAttemptRequest{
		Answers: []int{0, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, attempt.Score)
	assert.Equal(t, 2, attempt.Total)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[1].Answer)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestSubmitAttemptWrongAnswerCount(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client("unused", 1))

	db.Mock.ExpectQuery(regexp.QuoteMeta("FROM quizzes")).
		WillReturnRows(sqlmock.NewRows(quizColumns).
			AddRow("quiz-1", accountID, "emergency", "easy", storedQuestions, 900, time.Now()))

	_, _, err := svc.SubmitAttempt(context.Background(), accountID, "quiz-1", SubmitAttemptRequest{
		Answers: []int{0},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestGenerateHandlerValidation(t *testing.T) {
	db := meteringtest.New(t)

	r := chi.NewRouter()
	NewHandler(newService(db, meteringtest.Client("unused", 1))).RegisterRoutes(r,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := middleware.WithPrincipal(req.Context(), &middleware.Principal{AccountID: accountID})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})

	req := httptest.NewRequest(http.MethodPost, "/quizzes",
		strings.NewReader(`{"topic":"renal","difficulty":"impossible"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "difficulty")
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}
