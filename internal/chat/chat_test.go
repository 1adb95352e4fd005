// AngelaMos | 2026
// chat_test.go

package chat

import (
	"context"
	"errors"
	"fmt"
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

const (
	accountID = "acct-1"
	threadID  = "thread-1"
)

var (
	threadColumns  = []string{"id", "account_id", "title", "tokens_used", "created_at", "updated_at"}
	messageColumns = []string{"id", "thread_id", "role", "content", "tokens_used", "created_at"}
)

func newService(db *meteringtest.DB, client ai.Client) *Service {
	return NewService(
		db.SQL,
		db.Pipeline(client),
		metering.NewGate(metering.NewLedger(db.SQL)),
		DefaultContextWindow,
	)
}

func expectThread(db *meteringtest.DB) {
	now := time.Now()
	db.Mock.ExpectQuery(regexp.QuoteMeta("FROM chat_threads")).
		WithArgs(threadID, accountID).
		WillReturnRows(sqlmock.NewRows(threadColumns).
			AddRow(threadID, accountID, "Cardiology", 0, now, now))
}

func messageRows(n int) *sqlmock.Rows {
	rows := sqlmock.NewRows(messageColumns)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range n {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		rows.AddRow(fmt.Sprintf("m-%02d", i), threadID, role, fmt.Sprintf("message %d", i), 0, base.Add(time.Duration(i)*time.Minute))
	}
	return rows
}

func TestContextWindow(t *testing.T) {
	tests := []struct {
		name      string
		prior     int
		window    int
		wantLen   int
		truncated bool
	}{
		{name: "empty thread", prior: 0, window: 10, wantLen: 0},
		{name: "fits", prior: 9, window: 10, wantLen: 9},
		{name: "one over", prior: 10, window: 10, wantLen: 9, truncated: true},
		{name: "window of one", prior: 4, window: 1, wantLen: 0, truncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := make([]Message, tt.prior)
			for i := range prior {
				prior[i] = Message{ID: fmt.Sprint(i), Role: "user", Content: fmt.Sprint(i)}
			}

			history, truncated := contextWindow(prior, tt.window)
			assert.Len(t, history, tt.wantLen)
			assert.Equal(t, tt.truncated, truncated)
			assert.LessOrEqual(t, len(history)+1, max(tt.window, 1))

			if tt.wantLen > 0 {
				assert.Equal(t, fmt.Sprint(tt.prior-1), history[len(history)-1].Text)
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	db := meteringtest.New(t)
	provider := &meteringtest.Recorder{Text: "Loop diuretics act on the thick ascending limb.", Units: 180}
	svc := newService(db, provider)

	expectThread(db)
	db.Mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WithArgs(threadID, DefaultContextWindow).
		WillReturnRows(messageRows(DefaultContextWindow))
	db.ExpectUsage(accountID, metering.PlanTrial, 1000, 20000)
	db.ExpectReserve(accountID, metering.PlanTrial, 1100, 20000)
	db.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_messages")).
		WithArgs(sqlmock.AnyArg(), threadID, "user", "Where does furosemide act?", 0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	db.Mock.ExpectBegin()
	db.ExpectAdjust(accountID, metering.PlanTrial, 1180, 20000)
	db.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_messages")).
		WithArgs(sqlmock.AnyArg(), threadID, "assistant", provider.Text, 180).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	db.Mock.ExpectExec(regexp.QuoteMeta("UPDATE chat_threads")).
		WithArgs(threadID, 180).
		WillReturnResult(sqlmock.NewResult(0, 1))
	db.ExpectActivity(accountID)
	db.Mock.ExpectCommit()

	reply, err := svc.SendMessage(context.Background(), accountID, threadID, SendMessageRequest{
		Content: "Where does furosemide act?",
	})
	require.NoError(t, err)

	assert.True(t, reply.ContextTruncated)
	assert.Equal(t, provider.Text, reply.Assistant.Content)
	assert.Equal(t, 180, reply.Assistant.TokensUsed)
	assert.Equal(t, 1180, reply.Usage.Consumed)

	require.Len(t, provider.Requests, 1)
	sent := provider.Requests[0]
	assert.Len(t, sent.History, DefaultContextWindow-1)
	assert.Equal(t, "message 1", sent.History[0].Text)
	assert.Equal(t, "message 9", sent.History[len(sent.History)-1].Text)
	assert.Equal(t, "Where does furosemide act?", sent.Prompt)

	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestSendMessageQuotaExceededStoresNothing(t *testing.T) {
	db := meteringtest.New(t)
	provider := &meteringtest.Recorder{Text: "unused"}
	svc := newService(db, provider)

	expectThread(db)
	db.Mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WillReturnRows(messageRows(2))
	db.ExpectUsage(accountID, metering.PlanTrial, 19995, 20000)

	_, err := svc.SendMessage(context.Background(), accountID, threadID, SendMessageRequest{
		Content: strings.Repeat("a", 40),
	})
	require.Error(t, err)

	var quotaErr *core.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 19995, quotaErr.Used)
	assert.Equal(t, 5, quotaErr.Remaining)
	assert.Empty(t, provider.Requests)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestSendMessageLosesReservationRaceStoresNothing(t *testing.T) {
	db := meteringtest.New(t)
	provider := &meteringtest.Recorder{Text: "unused"}
	svc := newService(db, provider)

	expectThread(db)
	db.Mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WillReturnRows(messageRows(2))
	db.ExpectUsage(accountID, metering.PlanTrial, 0, 20000)
	db.ExpectReserveDenied(accountID, metering.PlanTrial, 20000, 20000)

	_, err := svc.SendMessage(context.Background(), accountID, threadID, SendMessageRequest{
		Content: "Spent elsewhere in the meantime",
	})
	require.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Empty(t, provider.Requests)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestSendMessageProviderFailureKeepsUserMessage(t *testing.T) {
	db := meteringtest.New(t)
	provider := &meteringtest.Recorder{Err: fmt.Errorf("upstream: %w", core.ErrGenerationFailed)}
	svc := newService(db, provider)

	expectThread(db)
	db.Mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WillReturnRows(messageRows(0))
	db.ExpectUsage(accountID, metering.PlanTrial, 0, 20000)
	db.ExpectReserve(accountID, metering.PlanTrial, 90, 20000)
	db.Mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_messages")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	db.ExpectAdjust(accountID, metering.PlanTrial, 0, 20000)

	_, err := svc.SendMessage(context.Background(), accountID, threadID, SendMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, core.ErrGenerationFailed)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestForeignThreadIsNotFound(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client("unused", 1))

	db.Mock.ExpectQuery(regexp.QuoteMeta("FROM chat_threads")).
		WithArgs(threadID, "acct-2").
		WillReturnRows(sqlmock.NewRows(threadColumns))

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithPrincipal(req.Context(), &middleware.Principal{AccountID: "acct-2"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/chat/threads/"+threadID+"/messages", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestListMessagesOrdered(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client("unused", 1))

	expectThread(db)
	db.Mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC")).
		WithArgs(threadID).
		WillReturnRows(messageRows(4))

	_, messages, err := svc.GetThread(context.Background(), accountID, threadID)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	for i := 1; i < len(messages); i++ {
		assert.True(t, messages[i-1].CreatedAt.Before(messages[i].CreatedAt))
	}
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestDeleteMissingThread(t *testing.T) {
	db := meteringtest.New(t)
	svc := newService(db, meteringtest.Client("unused", 1))

	db.Mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chat_threads")).
		WithArgs(threadID, accountID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteThread(context.Background(), accountID, threadID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
