// AngelaMos | 2026
// dashboard_test.go

package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/metering"
	"github.com/carterperez-dev/medprep/internal/metering/meteringtest"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

const accountID = "acct-1"

func newRouter(db *meteringtest.DB) http.Handler {
	svc := NewService(
		metering.NewMeter(metering.NewLedger(db.SQL)),
		activity.NewService(activity.NewRepository(db.SQL)),
	)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithPrincipal(req.Context(), &middleware.Principal{AccountID: accountID})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	return r
}

func TestOverviewClampsRemaining(t *testing.T) {
	db := meteringtest.New(t)
	router := newRouter(db)
	now := time.Now()

	db.ExpectUsage(accountID, metering.PlanTrial, 20500, 20000)
	db.Mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs(accountID, recentActivityLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "category", "description", "metadata", "created_at"}).
			AddRow("a-2", accountID, "quiz", "Generated quiz", `{"units":1200}`, now).
			AddRow("a-1", accountID, "chat", "Chat: Renal", `{"units":300}`, now.Add(-time.Minute)))
	db.Mock.ExpectQuery(regexp.QuoteMeta("GROUP BY category")).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total"}).
			AddRow("quiz", 3).
			AddRow("chat", 7))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Usage          metering.UsageResponse    `json:"usage"`
			RecentActivity []activity.RecordResponse `json:"recent_activity"`
			ActivityCounts map[string]int            `json:"activity_counts"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, 0, resp.Data.Usage.Remaining)
	assert.Equal(t, 20500, resp.Data.Usage.Used)
	assert.False(t, resp.Data.Usage.Unlimited)
	require.Len(t, resp.Data.RecentActivity, 2)
	assert.Equal(t, activity.CategoryQuiz, resp.Data.RecentActivity[0].Category)
	assert.Equal(t, 7, resp.Data.ActivityCounts["chat"])
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestUsageSubscribed(t *testing.T) {
	db := meteringtest.New(t)
	router := newRouter(db)

	db.ExpectUsage(accountID, metering.PlanSubscribed, 50000, 20000)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usage", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data metering.UsageResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Data.Unlimited)
	assert.Equal(t, metering.PlanSubscribed, resp.Data.Plan)
}

func TestUsageUnknownAccount(t *testing.T) {
	db := meteringtest.New(t)
	router := newRouter(db)

	db.Mock.ExpectQuery(regexp.QuoteMeta("SELECT plan, tokens_used, token_limit")).
		WillReturnRows(sqlmock.NewRows([]string{"plan", "tokens_used", "token_limit"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usage", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
