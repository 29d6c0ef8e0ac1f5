package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/anonto42/walltribe/backend/pkg/metrics"
	"github.com/anonto42/walltribe/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t        *testing.T
	e        *echo.Echo
	verifier *middleware.JWTVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	metrics.Init()

	verifier, err := middleware.NewJWTVerifier("test-secret")
	require.NoError(t, err)

	e := echo.New()
	e.Validator = validators.NewValidator()
	svc := NewServices(NewMemoryRepositories(), services.ReactionConfig{CounterRetries: 1, RetryInterval: time.Millisecond}, zap.NewNop())
	SetupRoutes(e, svc, verifier, zap.NewNop())
	return &testServer{t: t, e: e, verifier: verifier}
}

func (s *testServer) do(principal, method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if principal != "" {
		token, err := s.verifier.Sign(principal, time.Minute)
		require.NoError(s.t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(name string) {
	s.t.Helper()
	rec := s.do("uid-"+name, http.MethodPost, "/api/v1/auth/register", echo.Map{"username": name, "email": name + "@example.com"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do("", http.MethodGet, "/health", nil).Code)

	rec := s.do("", http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "walltribe_counter_update_retries_total")
}

func TestRegisterAndProfile(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do("uid-alice", http.MethodGet, "/api/v1/profile", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do("", http.MethodPost, "/api/v1/auth/register", nil).Code)

	s.register("alice")
	again := s.do("uid-alice", http.MethodPost, "/api/v1/auth/register", echo.Map{"username": "alice", "email": "alice@example.com"})
	assert.Equal(t, http.StatusOK, again.Code)

	bad := s.do("uid-bob", http.MethodPost, "/api/v1/auth/register", echo.Map{"username": "bob", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rec := s.do("uid-alice", http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[models.User](t, rec).Username)
}

func TestFriendshipFlow(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")
	s.register("bob")

	rec := s.do("uid-alice", http.MethodPost, "/api/v1/friends/requests", echo.Map{"username": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, services.OutcomeRequestSent, decode[struct{ Status services.Outcome }](t, rec).Status)

	rec = s.do("uid-bob", http.MethodPost, "/api/v1/friends/requests", echo.Map{"username": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.OutcomeAlreadyPending, decode[struct{ Status services.Outcome }](t, rec).Status)

	rec = s.do("uid-bob", http.MethodGet, "/api/v1/friends/requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	incoming := decode[[]models.FriendRequestView](t, rec)
	require.Len(t, incoming, 1)
	assert.Equal(t, "alice", incoming[0].Username)

	assert.Equal(t, http.StatusBadRequest, s.do("uid-alice", http.MethodPost, "/api/v1/friends/requests/accept", echo.Map{"username": "bob"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do("uid-alice", http.MethodPost, "/api/v1/friends/requests", echo.Map{"username": "alice"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do("uid-alice", http.MethodPost, "/api/v1/friends/requests", echo.Map{"username": "ghost"}).Code)

	rec = s.do("uid-bob", http.MethodPost, "/api/v1/friends/requests/accept", echo.Map{"username": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.OutcomeFriendshipCreated, decode[struct{ Status services.Outcome }](t, rec).Status)

	rec = s.do("uid-alice", http.MethodGet, "/api/v1/friends", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	friends := decode[[]models.UserCompact](t, rec)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)

	assert.Equal(t, http.StatusOK, s.do("uid-alice", http.MethodDelete, "/api/v1/friends/bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do("uid-alice", http.MethodDelete, "/api/v1/friends/bob", nil).Code)
}

func TestImageReactionsAndFeed(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")
	s.register("bob")

	rec := s.do("uid-alice", http.MethodPost, "/api/v1/images", echo.Map{"url": "https://cdn.example.com/a.png", "file_id": "a"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	imageID := decode[struct {
		ID string `json:"id"`
	}](t, rec).ID
	require.NotEmpty(t, imageID)

	// bob is not a friend yet, but reactions only need the image id
	rec = s.do("uid-bob", http.MethodPost, "/api/v1/images/"+imageID+"/reaction", echo.Map{"action": "like"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do("uid-bob", http.MethodPost, "/api/v1/images/"+imageID+"/reaction", echo.Map{"action": "dislike"})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[models.ReactionState](t, rec)
	assert.False(t, state.Liked)
	assert.True(t, state.Disliked)
	assert.Equal(t, models.Counters{Dislikes: 1}, state.Counters)

	assert.Equal(t, http.StatusBadRequest, s.do("uid-bob", http.MethodPost, "/api/v1/images/"+imageID+"/reaction", echo.Map{"action": "love"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do("uid-bob", http.MethodPost, "/api/v1/images/bogus/favorite", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do("uid-bob", http.MethodPost, "/api/v1/images/65f1c0ffee65f1c0ffee65f1/favorite", nil).Code)

	rec = s.do("uid-alice", http.MethodPost, "/api/v1/images/"+imageID+"/favorite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.ReactionState](t, rec).Favorited)

	rec = s.do("uid-bob", http.MethodPost, "/api/v1/images/"+imageID+"/comments", echo.Map{"content": "cool"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Not friends: bob does not see alice's image
	rec = s.do("uid-bob", http.MethodGet, "/api/v1/feed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.FeedImage](t, rec))

	rec = s.do("uid-alice", http.MethodGet, "/api/v1/feed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[[]models.FeedImage](t, rec)
	require.Len(t, feed, 1)
	assert.Equal(t, imageID, feed[0].ID)
	assert.Equal(t, int64(1), feed[0].Dislikes)
	assert.True(t, feed[0].IsFavorited)
	assert.Equal(t, 1, feed[0].CommentCount)
	assert.Equal(t, "bob", feed[0].Comments[0].User.Username)

	assert.Equal(t, http.StatusForbidden, s.do("uid-bob", http.MethodDelete, "/api/v1/images/"+imageID, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do("uid-alice", http.MethodDelete, "/api/v1/images/"+imageID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do("uid-alice", http.MethodGet, "/api/v1/images/"+imageID+"/comments", nil).Code)
}
