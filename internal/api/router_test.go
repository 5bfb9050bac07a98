package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"flowinsight/internal/api/handlers"
	"flowinsight/internal/auth"
	"flowinsight/internal/collector"
	"flowinsight/internal/indicator"
	"flowinsight/internal/market"
	"flowinsight/internal/storage"
	"flowinsight/pkg/logger"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if token == "good-token" {
		return "alice", nil
	}
	return "", errors.New("bad token")
}

type stubUsers struct{}

func (stubUsers) Create(_ context.Context, username, hash string) (*storage.User, error) {
	return &storage.User{ID: 1, Username: username, PasswordHash: hash}, nil
}

func (stubUsers) GetByUsername(context.Context, string) (*storage.User, error) {
	return nil, pgx.ErrNoRows
}

type stubStocks struct{}

func (stubStocks) List(context.Context, int, int, string) ([]*market.Stock, int, error) {
	return nil, 0, nil
}

type stubFlows struct{}

func (stubFlows) RecentFlows(context.Context, string, time.Time, int) ([]market.CapitalFlow, error) {
	return nil, nil
}

func (stubFlows) RangeFlows(context.Context, string, time.Time, time.Time) ([]market.CapitalFlow, error) {
	return nil, nil
}

type stubScorer struct{}

func (stubScorer) Score(_ context.Context, secid string, _ time.Time) (*market.HealthScore, error) {
	return &market.HealthScore{Secid: secid}, nil
}

type stubProvider struct{}

func (stubProvider) FetchFlowRanking(context.Context, int) ([]market.RealtimeFlow, error) {
	return nil, nil
}

func (stubProvider) FetchIndexQuotes(context.Context) ([]market.IndexQuote, error) {
	return nil, nil
}

type stubRecs struct{}

func (stubRecs) ListByDate(context.Context, time.Time) ([]market.Recommendation, error) {
	return nil, nil
}

func (stubRecs) LatestDate(context.Context) (time.Time, error) {
	return time.Time{}, nil
}

type stubSyncer struct{}

func (stubSyncer) SyncStockList(context.Context) (*collector.SyncStats, error) {
	return &collector.SyncStats{}, nil
}

func (stubSyncer) SyncFlowHistory(context.Context, string, int) (int, error) { return 0, nil }

func (stubSyncer) SyncAllFlowHistory(context.Context, int) (*collector.SyncStats, error) {
	return &collector.SyncStats{}, nil
}

func (stubSyncer) SyncIndexes(context.Context) error { return nil }

func newTestRouter() http.Handler {
	log := logger.NewWriter(io.Discard)
	authSvc := auth.New(stubUsers{}, "secret", time.Hour, log)
	return NewRouter(
		handlers.NewAuthHandler(authSvc, log),
		handlers.NewStockHandler(stubStocks{}, stubFlows{}, stubScorer{}, indicator.New(log), log),
		handlers.NewRealtimeHandler(stubProvider{}, log),
		handlers.NewRecommendationHandler(stubRecs{}, log),
		handlers.NewSyncHandler(stubSyncer{}, log),
		stubVerifier{},
		log,
	)
}

func TestHealthEndpointIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestProtectedEndpointRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int64(-1), gjson.Get(rec.Body.String(), "code").Int())
}

func TestProtectedEndpointRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/stocks", nil)
	req.Header.Set("Authorization", "Bearer forged")

	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedEndpointAcceptsBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/stocks", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedEndpointAcceptsQueryToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks?token=good-token", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyEchoesUsername(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "alice", gjson.Get(body, "data.username").String())
	assert.True(t, gjson.Get(body, "data.valid").Bool())
}
