package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pickup-hoops/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID int, role models.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(strconv.Itoa(id)))
	})
}

func TestAuthenticate(t *testing.T) {
	handler := Authenticate(testSecret)(whoAmI())

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(7, models.RolePlayer), testSecret))
		}, http.StatusOK, "7"},
		{"query token", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("token", signToken(t, validClaims(9, models.RolePlayer), testSecret))
			r.URL.RawQuery = q.Encode()
		}, http.StatusOK, "9"},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized, ""},
		{"wrong secret", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(7, models.RolePlayer), "other"))
		}, http.StatusUnauthorized, ""},
		{"expired", func(r *http.Request) {
			claims := validClaims(7, models.RolePlayer)
			claims["exp"] = time.Now().Add(-time.Minute).Unix()
			r.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret))
		}, http.StatusUnauthorized, ""},
		{"missing user id", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"role": "player"}, testSecret))
		}, http.StatusUnauthorized, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	handler := OptionalAuthenticate(testSecret)(whoAmI())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(3, models.RolePlayer), testSecret))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "3", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorize(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := Authorize(models.RoleAdmin)(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), validClaims(1, models.RolePlayer)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(WithClaims(context.Background(), validClaims(1, models.RoleAdmin)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserIDFromContext(t *testing.T) {
	_, err := GetUserIDFromContext(context.Background())
	assert.Error(t, err)
	assert.Zero(t, GetOptionalUserID(context.Background()))

	ctx := WithClaims(context.Background(), jwt.MapClaims{"user_id": "42"})
	id, err := GetUserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	ctx = WithClaims(context.Background(), jwt.MapClaims{"user_id": 1.5})
	_, err = GetUserIDFromContext(ctx)
	assert.Error(t, err)

	ctx = WithClaims(context.Background(), jwt.MapClaims{"user_id": float64(5), "role": "organizer"})
	_, err = GetUserRoleFromContext(ctx)
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := rl.Limit(ok)

	do := func(remote string, userID int) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if userID > 0 {
			req = req.WithContext(WithClaims(req.Context(), validClaims(userID, models.RolePlayer)))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000", 0))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001", 0))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002", 0))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000", 0))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1003", 4))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1004", 0))

	now = now.Add(limiterIdleTTL + time.Second)
	rl.Cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}
