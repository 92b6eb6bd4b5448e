package tracking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/honeytracks/pkg/config"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

func TestConfigFromEnvironment(t *testing.T) {
	t.Parallel()

	var cfg tracking.Config
	err := config.Parse(&cfg,
		config.WithPrefix("TRACKS_"),
		config.WithEnvironment(map[string]string{
			"TRACKS_API_KEY":    validKey,
			"TRACKS_BATCH_SIZE": "10",
			"TRACKS_CLIENT_IP":  "10.0.0.9",
			"TRACKS_SPACE":      "eu-1",
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.ErrorPause)
	assert.Equal(t, tracking.DefaultSnapshotKey, cfg.SnapshotKey)
	assert.True(t, cfg.Enabled)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, validKey, s.APIKey())
	assert.Equal(t, "10.0.0.0", s.ClientIP())
	assert.Equal(t, "eu-1", s.Space)
}

func TestConfigDefaultsMatchEnvDefaults(t *testing.T) {
	t.Parallel()

	var cfg tracking.Config
	require.NoError(t, config.Parse(&cfg, config.WithEnvironment(map[string]string{})))
	assert.Equal(t, tracking.DefaultConfig(), cfg)
}

func TestConfigSettingsReportsEveryInvalidField(t *testing.T) {
	t.Parallel()

	cfg := tracking.DefaultConfig()
	cfg.APIKey = "zzz"
	cfg.ClientIP = "nope"
	cfg.Timestamp = 42

	_, err := cfg.Settings()
	require.Error(t, err)
	assert.ErrorIs(t, err, tracking.ErrInvalidAPIKey)
	assert.ErrorIs(t, err, tracking.ErrInvalidClientIP)
	assert.ErrorIs(t, err, tracking.ErrInvalidTimestamp)
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := tracking.DefaultConfig()
	opts, err := cfg.Options()
	require.NoError(t, err)

	p, err := tracking.New(tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""), opts...)
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	cfg.SnapshotKey = " "
	_, err = cfg.Options()
	assert.ErrorIs(t, err, tracking.ErrInvalidOption)

	cfg = tracking.DefaultConfig()
	cfg.BatchSize = 0
	opts, err = cfg.Options()
	require.NoError(t, err)
	_, err = tracking.New(tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""), opts...)
	assert.ErrorIs(t, err, tracking.ErrInvalidOption)
}
