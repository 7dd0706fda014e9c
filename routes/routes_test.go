package routes

import (
	"context"
	"errors"
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

	"github.com/Dosada05/pickup-hoops/handlers"
	"github.com/Dosada05/pickup-hoops/metrics"
	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/realtime"
	"github.com/Dosada05/pickup-hoops/repositories/memrepo"
	"github.com/Dosada05/pickup-hoops/services"
)

func newRouter(t *testing.T, health func(*http.Request) error) (*chi.Mux, *metrics.Registry) {
	t.Helper()
	store := memrepo.New()
	clock := services.SystemClock(time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := metrics.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:        handlers.NewAuthHandler(services.NewAuthService(store.Users()), "secret"),
		Game:        handlers.NewGameHandler(services.NewGameService(store.Games(), store.Participants(), store.Gyms(), nil, clock, 12)),
		Participant: handlers.NewParticipantHandler(services.NewParticipantService(store.Participants(), store.Games(), store.Profiles(), clock, registry), nil),
		Profile:     handlers.NewProfileHandler(services.NewProfileService(store.Profiles(), nil, clock, logger)),
		Gym:         handlers.NewGymHandler(services.NewGymService(store.Gyms(), nil, logger, 12)),
		Message:     handlers.NewMessageHandler(services.NewMessageService(store.Messages(), store.Users()), nil),
		WebSocket:   handlers.NewWebSocketHandler(hub, nil, logger),
		Dashboard:   handlers.NewDashboardHandler(services.NewDashboardService(store.Users(), store.Games(), store.Participants(), clock)),
	}, Options{
		JWTSecret:      "secret",
		AllowedOrigins: []string{"*"},
		RateLimiter:    middleware.NewRateLimiter(1000, 1000),
		Metrics:        registry,
		Health:         health,
	})
	return router, registry
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	router, _ := newRouter(t, nil)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/games", http.StatusOK},
		{http.MethodGet, "/api/v1/gyms", http.StatusOK},
		{http.MethodGet, "/api/v1/games/1", http.StatusNotFound},
		{http.MethodGet, "/api/v1/games/1/participants", http.StatusNotFound},
		{http.MethodGet, "/api/v1/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/games/mine", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/games/1/apply", http.StatusUnauthorized},
		{http.MethodDelete, "/api/v1/participants/1", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/messages", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/ws", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/admin/stats", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, tc.status, serve(router, tc.method, tc.path).Code)
		})
	}
}

func TestMetricsAndDocs(t *testing.T) {
	router, _ := newRouter(t, nil)
	serve(router, http.MethodGet, "/api/v1/games/7")

	rec := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `route="/api/v1/games/{gameID}/"`) ||
		strings.Contains(rec.Body.String(), `route="/api/v1/games/{gameID}"`), "requests are labelled by route pattern")

	rec = serve(router, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pickup Hoops API")
}

func TestHealthReportsDependencyFailure(t *testing.T) {
	router, _ := newRouter(t, func(*http.Request) error { return errors.New("db down") })
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, http.MethodGet, "/healthz").Code)
}

func TestAdminStatsRequiresAdminRole(t *testing.T) {
	router, _ := newRouter(t, nil)

	for role, want := range map[models.UserRole]int{
		models.RolePlayer: http.StatusForbidden,
		models.RoleAdmin:  http.StatusOK,
	} {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 1,
			"role":    role,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
		if want == http.StatusOK {
			assert.Contains(t, rec.Body.String(), "users_total")
		}
	}
}
