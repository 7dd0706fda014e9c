package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories/memrepo"
	"github.com/Dosada05/pickup-hoops/services"
)

const testSecret = "handler-test-secret"

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	submitted []int
	changed   []models.ParticipantStatus
	messages  []int
}

func (n *recordingNotifier) ApplicationSubmitted(_ context.Context, p *models.Participant) {
	n.submitted = append(n.submitted, p.ID)
}

func (n *recordingNotifier) ApplicationStatusChanged(_ context.Context, p *models.Participant) {
	n.changed = append(n.changed, p.Status)
}

func (n *recordingNotifier) MessageSent(_ context.Context, m *models.Message) {
	n.messages = append(n.messages, m.ID)
}

type testServer struct {
	t        *testing.T
	store    *memrepo.Store
	router   *chi.Mux
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memrepo.New()
	clock := services.Clock{Location: time.UTC, Now: func() time.Time { return testNow }}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}

	auth := NewAuthHandler(services.NewAuthService(store.Users()), testSecret)
	games := NewGameHandler(services.NewGameService(store.Games(), store.Participants(), store.Gyms(), nil, clock, 2))
	participants := NewParticipantHandler(
		services.NewParticipantService(store.Participants(), store.Games(), store.Profiles(), clock, nil), notifier)
	profiles := NewProfileHandler(services.NewProfileService(store.Profiles(), nil, clock, logger))
	messages := NewMessageHandler(services.NewMessageService(store.Messages(), store.Users()), notifier)

	authenticate := middleware.Authenticate(testSecret)
	r := chi.NewRouter()
	r.Use(middleware.OptionalAuthenticate(testSecret))
	r.Post("/auth/register", auth.Register)
	r.Post("/auth/login", auth.Login)
	r.With(authenticate).Get("/me", auth.Me)
	r.Get("/games", games.ListGames)
	r.With(authenticate).Post("/games", games.CreateGame)
	r.Get("/games/{gameID}", games.GetGame)
	r.Get("/games/{gameID}/participants", participants.ListApplications)
	r.With(authenticate).Post("/games/{gameID}/apply", participants.Apply)
	r.With(authenticate).Patch("/games/{gameID}/participants/{participantID}", participants.UpdateApplicationStatus)
	r.With(authenticate).Delete("/participants/{participantID}", participants.Withdraw)
	r.With(authenticate).Get("/participants/mine", participants.ListMyApplications)
	r.With(authenticate).Put("/profiles/me", profiles.UpsertMyProfile)
	r.With(authenticate).Post("/profiles/me/avatar", profiles.UploadMyAvatar)
	r.With(authenticate).Post("/messages/{userID}", messages.Send)

	return &testServer{t: t, store: store, router: r, notifier: notifier}
}

func (s *testServer) token(userID int) string {
	s.t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    models.RolePlayer,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(s.t, err)
	return signed
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(js)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) user(nickname string, complete bool) *models.User {
	s.t.Helper()
	u := &models.User{Email: nickname + "@example.com", Nickname: nickname, Role: models.RolePlayer, PasswordHash: "x"}
	require.NoError(s.t, s.store.Users().Create(context.Background(), u))
	if complete {
		birth := models.NewDate(1996, time.June, 1)
		height := 180
		require.NoError(s.t, s.store.Profiles().Upsert(context.Background(), &models.Profile{
			UserID:      u.ID,
			DisplayName: nickname,
			BirthDate:   &birth,
			HeightCM:    &height,
			Positions:   []models.Position{models.PositionCenter},
		}))
	}
	return u
}

func (s *testServer) createGame(ownerID, max int) int {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/games", s.token(ownerID), map[string]interface{}{
		"title":            "Evening run",
		"game_date":        models.DateOf(testNow).AddDays(2).String(),
		"start_time":       "19:00",
		"end_time":         "21:00",
		"min_participants": 1,
		"max_participants": max,
		"region":           "Seoul",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	game := decode(s.t, rec)["game"].(map[string]interface{})
	return int(game["id"].(float64))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "kobe@example.com", "nickname": "mamba", "password": "fadeaway24",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "kobe@example.com", "nickname": "other", "password": "fadeaway24",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "kobe@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "kobe@example.com", "password": "fadeaway24"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = s.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "mamba", me["nickname"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodPost, "/auth/register", "", `{"email":"a@b.c","nickname":"xx","password":"12345678","admin":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyAndApproveFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", true)
	alice := s.user("alice", true)
	bob := s.user("bob", true)
	gameID := s.createGame(owner.ID, 1)

	rec := s.do(http.MethodPost, fmt.Sprintf("/games/%d/apply", gameID), s.token(alice.ID), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	aliceApp := int(body["participant"].(map[string]interface{})["id"].(float64))
	assert.Equal(t, []int{aliceApp}, s.notifier.submitted)

	rec = s.do(http.MethodPost, fmt.Sprintf("/games/%d/apply", gameID), s.token(alice.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "you have already applied to this game", body["message"])

	rec = s.do(http.MethodPost, fmt.Sprintf("/games/%d/apply", gameID), s.token(bob.ID), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	bobApp := int(decode(t, rec)["participant"].(map[string]interface{})["id"].(float64))

	path := fmt.Sprintf("/games/%d/participants/%d", gameID, aliceApp)
	rec = s.do(http.MethodPatch, path, s.token(alice.ID), map[string]interface{}{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "only the owner may decide")

	rec = s.do(http.MethodPatch, path, s.token(owner.ID), map[string]interface{}{"status": "maybe"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPatch, path, s.token(owner.ID), map[string]interface{}{"status": "approved", "applicant_id": alice.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["success"])
	assert.Equal(t, []models.ParticipantStatus{models.ParticipantApproved}, s.notifier.changed)

	rec = s.do(http.MethodPatch, fmt.Sprintf("/games/%d/participants/%d", gameID, bobApp), s.token(owner.ID),
		map[string]interface{}{"status": "approved"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "this game is already full", decode(t, rec)["message"])

	// Анонимный зритель видит только одобренных.
	rec = s.do(http.MethodGet, fmt.Sprintf("/games/%d/participants", gameID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["participants"], 1)

	rec = s.do(http.MethodGet, fmt.Sprintf("/games/%d/participants", gameID), s.token(owner.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["participants"], 2)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/participants/%d", aliceApp), s.token(alice.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodPatch, fmt.Sprintf("/games/%d/participants/%d", gameID, bobApp), s.token(owner.ID),
		map[string]interface{}{"status": "approved"})
	assert.Equal(t, http.StatusOK, rec.Code, "withdrawal frees the slot")

	rec = s.do(http.MethodGet, "/participants/mine", s.token(bob.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["participants"], 1)
}

func TestApplyFailures(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", true)
	incomplete := s.user("rookie", false)
	gameID := s.createGame(owner.ID, 4)

	cases := []struct {
		name    string
		path    string
		userID  int
		status  int
		message string
	}{
		{"own listing", fmt.Sprintf("/games/%d/apply", gameID), owner.ID, http.StatusForbidden, "you cannot apply to your own game"},
		{"incomplete profile", fmt.Sprintf("/games/%d/apply", gameID), incomplete.ID, http.StatusUnprocessableEntity, "complete your profile before applying"},
		{"missing listing", "/games/9999/apply", incomplete.ID, http.StatusNotFound, "game listing not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tc.path, s.token(tc.userID), nil)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}

	rec := s.do(http.MethodPost, "/games/abc/apply", s.token(owner.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, fmt.Sprintf("/games/%d/apply", gameID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListGamesQuery(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", true)
	s.createGame(owner.ID, 4)
	s.createGame(owner.ID, 6)
	s.createGame(owner.ID, 8)

	rec := s.do(http.MethodGet, "/games", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 3, pagination["total"])
	assert.EqualValues(t, 2, pagination["total_pages"])
	assert.Len(t, body["games"], 2)
	assert.Equal(t, models.DateOf(testNow).String(), body["from"])
	assert.Equal(t, models.DateOf(testNow).AddDays(services.DefaultListingWindowDays).String(), body["to"])

	rec = s.do(http.MethodGet, "/games?page=2&region=Busan,Seoul", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["games"], 1)

	rec = s.do(http.MethodGet, "/games?region=Busan", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["games"])

	for _, q := range []string{"from=2026-13-01", "page=-1", "to=tomorrow"} {
		rec = s.do(http.MethodGet, "/games?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	rec = s.do(http.MethodGet, "/games?gender=robots", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/games?from=2026-03-20&to=2026-03-01", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProfileAndMessages(t *testing.T) {
	s := newTestServer(t)
	alice := s.user("alice", false)
	bob := s.user("bob", false)

	rec := s.do(http.MethodPut, "/profiles/me", s.token(alice.ID), map[string]interface{}{
		"display_name": "Alice",
		"birth_date":   "1999-02-03",
		"height_cm":    168,
		"positions":    []string{"sg"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode(t, rec)["profile"].(map[string]interface{})
	assert.Equal(t, true, profile["complete"])

	rec = s.do(http.MethodPut, "/profiles/me", s.token(alice.ID), map[string]interface{}{"display_name": "A", "height_cm": 20})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/profiles/me/avatar", s.token(alice.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, fmt.Sprintf("/messages/%d", bob.ID), s.token(alice.ID), map[string]interface{}{"body": "run tonight?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, s.notifier.messages, 1)

	rec = s.do(http.MethodPost, fmt.Sprintf("/messages/%d", alice.ID), s.token(alice.ID), map[string]interface{}{"body": "me"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, s.notifier.messages, 1)
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrGameNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrGymNotFound), http.StatusNotFound},
		{services.ErrUserEmailConflict, http.StatusConflict},
		{services.ErrValidationFailed, http.StatusUnprocessableEntity},
		{services.ErrInvalidApplicationStatus, http.StatusUnprocessableEntity},
		{services.ErrGameCapacityBelowApproved, http.StatusUnprocessableEntity},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{services.ErrUploadsDisabled, http.StatusServiceUnavailable},
		{services.ErrCapacityFull, http.StatusConflict},
		{services.ErrAlreadyStarted, http.StatusConflict},
		{services.ErrApplicationNotFound, http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: secret detail"))
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestReadJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "body must not be empty"},
		{"syntax", `{"title":`, "badly-formed JSON"},
		{"unknown field", `{"nope":1}`, "unknown key"},
		{"wrong type", `{"title":5}`, "incorrect JSON type"},
		{"two values", `{"title":"a"}{"title":"b"}`, "single JSON value"},
		{"bad date", `{"game_date":"yesterday"}`, "invalid value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dst services.GameInput
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			err := readJSON(httptest.NewRecorder(), req, &dst)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
