package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 80, cfg.Registration.MinPasswordScore)
	assert.Equal(t, "advanced", cfg.Registration.Profile)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.OTP.ResendCooldown)
	assert.Equal(t, 720*time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.ExposeIssuedCodes())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REGISTRATION_PROFILE", "compact")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "compact", cfg.Registration.Profile)
	assert.Equal(t, 2*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, "localhost:9092", cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	t.Run("production requires a signing key", func(t *testing.T) {
		t.Setenv("CASHWALLET_ENV", "production")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("production hides issued codes", func(t *testing.T) {
		t.Setenv("CASHWALLET_ENV", "production")
		t.Setenv("JWT_SIGNING_KEY", "a-real-secret")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.False(t, cfg.ExposeIssuedCodes())
	})

	t.Run("unknown environment", func(t *testing.T) {
		t.Setenv("CASHWALLET_ENV", "staging")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("score out of range", func(t *testing.T) {
		t.Setenv("REGISTRATION_MIN_PASSWORD_SCORE", "120")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
