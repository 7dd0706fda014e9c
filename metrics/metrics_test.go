package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	reg := NewRegistry()
	router := chi.NewRouter()
	router.Use(reg.InstrumentHandler)
	router.Get("/games/{gameID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/games/1", "/games/2"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.httpRequests.WithLabelValues("GET", "/games/{gameID}", "404")))
}

func TestEngineOutcomesAndReminders(t *testing.T) {
	reg := NewRegistry()
	reg.EngineOutcome("apply", "success")
	reg.EngineOutcome("apply", "capacity_full")
	reg.EngineOutcome("apply", "success")
	reg.RemindersSent(3)
	reg.RemindersSent(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.engineResults.WithLabelValues("apply", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.engineResults.WithLabelValues("apply", "capacity_full")))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.remindersSent))

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "pickup_engine_outcomes_total"))
}
