package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/soddle/internal/api"
	"github.com/mcoot/soddle/internal/api/apierr"
	"github.com/mcoot/soddle/internal/api/request"
	"github.com/mcoot/soddle/internal/api/response"
	"github.com/mcoot/soddle/internal/factory"
	"github.com/mcoot/soddle/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app := factory.NewTestApp()
	require.NoError(t, app.LoadTestProfiles())
	t.Cleanup(app.Anchor.Wait)

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Metrics:            app.Metrics,
		SessionController:  app.SessionController,
		CatalogService:     app.CatalogService,
		LeaderboardService: app.LeaderboardService,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) start(t *testing.T, key string, stage int) response.Session {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/sessions", request.StartSessionRequest{PublicKey: key, Stage: stage})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func (ts *testServer) guess(t *testing.T, key string, stage int, profileID string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.request(http.MethodPost, "/api/v1/players/"+key+"/guesses", request.GuessRequest{Stage: stage, ProfileID: profileID})
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","profiles":4}`, rr.Body.String())
}

func TestStartSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.start(t, "alice", 1)
	assert.Equal(t, "session-1", resp.ID)
	assert.Equal(t, "alice", resp.Player)
	assert.Equal(t, 1000, resp.StageOne.Score)
	assert.Equal(t, 2000, resp.TotalScore)
	assert.Empty(t, resp.StageOne.Guesses)
	assert.Nil(t, resp.Secret)

	again := ts.start(t, "alice", 1)
	assert.Equal(t, resp.ID, again.ID)
}

func TestStartSessionValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"missing key", request.StartSessionRequest{Stage: 1}, apierr.CodeInvalidRequest},
		{"bad stage", request.StartSessionRequest{PublicKey: "alice", Stage: 3}, apierr.CodeInvalidStage},
		{"bad body", "not an object", apierr.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
		})
	}
}

func TestGuessFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.start(t, "alice", 1)

	// The first test profile is the secret; toly differs on several attributes
	ts.app.MockClock.Advance(2 * time.Second)
	rr := ts.guess(t, "alice", 1, "toly")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.StageOne.Guesses, 1)
	result := resp.StageOne.Guesses[0].Result
	require.NotNil(t, result.Attributes)
	assert.Equal(t, "Lower", result.Attributes.Age)
	assert.Equal(t, "Correct", result.Attributes.Country)
	assert.Equal(t, 1000-10-50, resp.StageOne.Score)

	rr = ts.guess(t, "alice", 1, "ansem")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.StageOne.Completed)
	assert.Nil(t, resp.Secret)

	// Guessing again on a solved stage conflicts
	rr = ts.guess(t, "alice", 1, "ansem")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeStageCompleted, decodeError(t, rr).Code)

	// Stage two completes the session and reveals the secret
	ts.start(t, "alice", 2)
	rr = ts.guess(t, "alice", 2, "ansem")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Completed)
	require.NotNil(t, resp.Secret)
	assert.Equal(t, "ansem", resp.Secret.ID)
	require.NotNil(t, resp.StageTwo.Guesses[0].Result.Match)
	assert.True(t, *resp.StageTwo.Guesses[0].Result.Match)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/session", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNoActiveSession, decodeError(t, rr).Code)
}

func TestGuessInline(t *testing.T) {
	ts := newTestServer(t)
	ts.start(t, "alice", 1)

	rr := ts.request(http.MethodPost, "/api/v1/players/alice/guesses", request.GuessRequest{
		Stage: 1,
		Guess: &request.Profile{Name: "Nobody", Age: 10},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Higher", resp.StageOne.Guesses[0].Result.Attributes.Age)
	assert.Equal(t, "Incorrect", resp.StageOne.Guesses[0].Result.Attributes.PfpType)
}

func TestGuessErrors(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.guess(t, "nobody", 1, "ansem")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	ts.start(t, "alice", 1)

	rr = ts.guess(t, "alice", 1, "missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeProfileNotFound, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/players/alice/guesses", request.GuessRequest{Stage: 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidGuess, decodeError(t, rr).Code)

	rr = ts.guess(t, "alice", 0, "ansem")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/alice", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, decodeError(t, rr).Code)

	ts.start(t, "alice", 1)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	var resp response.Player
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.PublicKey)
	require.NotNil(t, resp.CurrentSessionID)
	assert.Equal(t, "session-1", *resp.CurrentSessionID)
	assert.Empty(t, resp.History)
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)

	for _, key := range []string{"alice", "bob"} {
		ts.start(t, key, 1)
	}
	ts.app.MockClock.Advance(10 * time.Second)
	require.Equal(t, http.StatusOK, ts.guess(t, "bob", 1, "ansem").Code)
	require.Equal(t, http.StatusOK, ts.guess(t, "alice", 1, "toly").Code)
	require.Equal(t, http.StatusOK, ts.guess(t, "alice", 1, "ansem").Code)

	rr := ts.request(http.MethodGet, "/api/v1/leaderboard?window=alltime&stage=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Leaderboard
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "alltime", resp.Window)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "bob", resp.Entries[0].Player)
	assert.Equal(t, 1, resp.Entries[0].Rank)
	assert.Equal(t, 950, resp.Entries[0].TotalScore)
	assert.Equal(t, "alice", resp.Entries[1].Player)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "daily", resp.Window)
	assert.Equal(t, 1, resp.Stage)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?window=hourly", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidWindow, decodeError(t, rr).Code)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?stage=two", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfiles(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/profiles", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []response.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Len(t, list, len(factory.TestProfiles))

	rr = ts.request(http.MethodGet, "/api/v1/profiles/toly", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var profile response.Profile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
	assert.Equal(t, "Toly", profile.Name)

	rr = ts.request(http.MethodGet, "/api/v1/profiles/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalogNotLoaded(t *testing.T) {
	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:             app.Logger,
		Metrics:            app.Metrics,
		SessionController:  app.SessionController,
		CatalogService:     app.CatalogService,
		LeaderboardService: app.LeaderboardService,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"public_key":"alice","stage":1}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","profiles":0}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.start(t, "alice", 1)

	rr := ts.request(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "soddle_engine_sessions_started_total")
	assert.Contains(t, body, `route="/api/v1/sessions"`)
}

func TestRequestsAreLogged(t *testing.T) {
	logger, logs := testutil.NewRecordingLogger()
	app := factory.NewTestApp()
	require.NoError(t, app.LoadTestProfiles())
	t.Cleanup(app.Anchor.Wait)

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Metrics:            app.Metrics,
		SessionController:  app.SessionController,
		CatalogService:     app.CatalogService,
		LeaderboardService: app.LeaderboardService,
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/players/nobody", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	ok := logs.Find(slog.LevelInfo, "http request")
	require.Len(t, ok, 1)
	assert.Equal(t, "/api/v1/health", ok[0].Attrs["path"])
	assert.Equal(t, "200", ok[0].Attrs["status"])

	missing := logs.Find(slog.LevelWarn, "http request")
	require.Len(t, missing, 1)
	assert.Equal(t, "/api/v1/players/nobody", missing[0].Attrs["path"])
	assert.Equal(t, "404", missing[0].Attrs["status"])
}
