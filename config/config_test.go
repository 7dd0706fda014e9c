package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"DATABASE_URL":   "postgres://localhost/hoops",
		"JWT_SECRET_KEY": "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 12, cfg.ListingPageSize)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.ReminderLead)
	assert.Equal(t, "*/10 * * * *", cfg.ReminderSchedule)
	assert.False(t, cfg.MigrateOnStart)
	assert.False(t, cfg.R2Enabled())
	assert.False(t, cfg.SMTPEnabled())
}

func TestFromEnvRequiresDatabaseAndSecret(t *testing.T) {
	_, err := FromEnv(lookup(map[string]string{"JWT_SECRET_KEY": "secret"}))
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = FromEnv(lookup(map[string]string{"DATABASE_URL": "postgres://localhost/hoops"}))
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"DATABASE_URL":         "postgres://localhost/hoops",
		"JWT_SECRET_KEY":       "secret",
		"SERVER_PORT":          "9000",
		"APP_TIMEZONE":         "Asia/Seoul",
		"LISTING_PAGE_SIZE":    "20",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"REMINDER_LEAD":        "90m",
		"MIGRATE_ON_START":     "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "Asia/Seoul", cfg.Location.String())
	assert.Equal(t, 20, cfg.ListingPageSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 90*time.Minute, cfg.ReminderLead)
	assert.True(t, cfg.MigrateOnStart)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	base := map[string]string{
		"DATABASE_URL":   "postgres://localhost/hoops",
		"JWT_SECRET_KEY": "secret",
	}
	cases := map[string]string{
		"SERVER_PORT":       "70000",
		"LISTING_PAGE_SIZE": "0",
		"APP_TIMEZONE":      "Mars/Olympus",
		"RATE_LIMIT_RPS":    "-1",
		"REMINDER_LEAD":     "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			env[key] = value
			_, err := FromEnv(lookup(env))
			assert.Error(t, err)
		})
	}
}
