// AngelaMos | 2026
// assist_test.go

package assist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/metering"
	"github.com/carterperez-dev/medprep/internal/metering/meteringtest"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

const accountID = "acct-1"

func newRouter(db *meteringtest.DB, client ai.Client) http.Handler {
	r := chi.NewRouter()
	NewHandler(NewService(db.Pipeline(client))).RegisterRoutes(r, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithPrincipal(req.Context(), &middleware.Principal{AccountID: accountID})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	return r
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestMnemonic(t *testing.T) {
	db := meteringtest.New(t)
	router := newRouter(db, meteringtest.Client(
		`{"mnemonic":"MUDPILES","explanation":"Causes of anion gap metabolic acidosis",
		  "letters":[{"letter":"M","meaning":"Methanol"},{"letter":"U","meaning":"Uremia"}]}`, 150))

	db.ExpectReserve(accountID, metering.PlanTrial, 50, 20000)
	db.Mock.ExpectBegin()
	db.ExpectAdjust(accountID, metering.PlanTrial, 150, 20000)
	db.ExpectActivity(accountID)
	db.Mock.ExpectCommit()

	rec := post(router, "/mnemonics", `{"topic":"anion gap acidosis"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data Result[Mnemonic] `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "MUDPILES", resp.Data.Result.Mnemonic)
	assert.Len(t, resp.Data.Result.Letters, 2)
	assert.Equal(t, 150, resp.Data.Usage.Used)
	assert.Equal(t, 19850, resp.Data.Usage.Remaining)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestDiagnosisMalformed(t *testing.T) {
	db := meteringtest.New(t)
	router := newRouter(db, meteringtest.Client(`{"differentials":[],"summary":"unclear"}`, 90))

	db.ExpectReserve(accountID, metering.PlanTrial, 120, 20000)
	db.ExpectAdjust(accountID, metering.PlanTrial, 0, 20000)

	rec := post(router, "/diagnosis", `{"symptoms":["fever","neck stiffness"],"age":19}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "MALFORMED_GENERATION")
	assert.NotContains(t, rec.Body.String(), "unclear")
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestDrugLookupQuotaExceeded(t *testing.T) {
	db := meteringtest.New(t)
	provider := &meteringtest.Recorder{Text: "{}"}
	router := newRouter(db, provider)

	db.ExpectReserveDenied(accountID, metering.PlanTrial, 19995, 20000)

	rec := post(router, "/drugs/lookup", `{"name":"metoprolol"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "QUOTA_EXCEEDED", resp.Code)
	assert.InDelta(t, 19995, resp.Details["used"], 0)
	assert.InDelta(t, 5, resp.Details["remaining"], 0)
	assert.Empty(t, provider.Requests)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestDiagnosisValidation(t *testing.T) {
	db := meteringtest.New(t)
	router := newRouter(db, meteringtest.Client("{}", 1))

	rec := post(router, "/diagnosis", `{"symptoms":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "symptoms")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
