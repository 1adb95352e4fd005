// AngelaMos | 2026
// account_test.go

package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

var columns = []string{
	"id", "email", "password_hash", "name", "role", "plan",
	"tokens_used", "token_limit", "stripe_customer_id",
	"created_at", "updated_at", "deleted_at",
}

func newMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func accountRow(id, plan string, used, limit int) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(columns).AddRow(
		id, "student@example.com", "hash", "Student", RoleUser, plan,
		used, limit, nil, now, now, nil,
	)
}

func TestCreateAssignsTrialQuota(t *testing.T) {
	repo, mock := newMock(t)
	svc := NewService(repo, 20000)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(sqlmock.AnyArg(), "student@example.com", "hash", "Student", RoleUser, PlanTrial, 20000).
		WillReturnRows(sqlmock.NewRows([]string{"tokens_used", "created_at", "updated_at"}).AddRow(0, now, now))

	info, err := svc.Create(context.Background(), "Student@Example.com", "hash", "Student")
	require.NoError(t, err)
	assert.Equal(t, PlanTrial, info.Plan)
	assert.Equal(t, "student@example.com", info.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := NewService(repo, 20000).Create(context.Background(), "a@example.com", "hash", "A")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestSetPlanUpgradeResetsUsage(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHEN $2::text = 'subscribed' AND plan <> 'subscribed' THEN 0")).
		WithArgs("acct-1", PlanSubscribed).
		WillReturnRows(accountRow("acct-1", PlanSubscribed, 0, 20000))

	account, err := NewService(repo, 20000).UpdatePlan(context.Background(), "acct-1", PlanSubscribed)
	require.NoError(t, err)

	usage := account.Usage()
	assert.True(t, usage.Unlimited())
	assert.Zero(t, usage.Consumed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePlanRejectsUnknownPlan(t *testing.T) {
	repo, _ := newMock(t)

	_, err := NewService(repo, 20000).UpdatePlan(context.Background(), "acct-1", "enterprise")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSoftDeleteMissing(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("SET deleted_at = NOW()")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SoftDelete(context.Background(), "gone"), core.ErrNotFound)
}

func TestCanDelete(t *testing.T) {
	repo, mock := newMock(t)
	svc := NewService(repo, 20000)
	ctx := context.Background()

	assert.NoError(t, svc.CanDelete(ctx, "self", "self"))

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("requester").
		WillReturnRows(accountRow("requester", PlanTrial, 0, 20000))

	assert.ErrorIs(t, svc.CanDelete(ctx, "requester", "other"), core.ErrForbidden)
}

func TestGetMeHandler(t *testing.T) {
	repo, mock := newMock(t)
	h := NewHandler(NewService(repo, 20000))

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("acct-1").
		WillReturnRows(accountRow("acct-1", PlanTrial, 20450, 20000))

	authed := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &middleware.Principal{AccountID: "acct-1", Role: RoleUser}
			next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), p)))
		})
	}

	r := chi.NewRouter()
	h.RegisterRoutes(r, authed)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data AccountResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 0, body.Data.Usage.Remaining)
	assert.Equal(t, 20450, body.Data.Usage.Used)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateMeValidation(t *testing.T) {
	repo, _ := newMock(t)
	h := NewHandler(NewService(repo, 20000))

	req := httptest.NewRequest(http.MethodPut, "/accounts/me", strings.NewReader(`{"name":"`+strings.Repeat("n", 101)+`"}`))
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &middleware.Principal{AccountID: "acct-1"}))
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
