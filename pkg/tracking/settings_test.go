package tracking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

const (
	validKey  = "0123456789abcdef0123456789abcdef"
	validKey2 = "fedcba9876543210fedcba9876543210abcd"
)

func TestSettingsDefaults(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	assert.Equal(t, tracking.DefaultTrackerURL, s.TrackerURL)
	assert.Equal(t, tracking.DefaultLanguage, s.Language())
	assert.Equal(t, tracking.DefaultSpace, s.Space)
	assert.Empty(t, s.APIKey())
	assert.Zero(t, s.Timestamp())
}

func TestSettingsSetAPIKey(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	require.NoError(t, s.SetAPIKey(validKey))
	assert.Equal(t, validKey, s.APIKey())

	for _, bad := range []string{"zzz", "", "0123456789ABCDEF0123456789ABCDEF", validKey + "0123456789"} {
		err := s.SetAPIKey(bad)
		require.Error(t, err, bad)
		assert.ErrorIs(t, err, tracking.ErrInvalidAPIKey)
		assert.True(t, tracking.IsConfigError(err))
		assert.Equal(t, validKey, s.APIKey(), "rejected key must keep the old value")
	}

	require.NoError(t, s.SetAPIKey(validKey2))
	assert.Equal(t, validKey2, s.APIKey())
}

func TestSettingsSetSecretKey(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	require.NoError(t, s.SetSecretKey(validKey))
	err := s.SetSecretKey("not-hex")
	assert.ErrorIs(t, err, tracking.ErrInvalidSecretKey)
	assert.Equal(t, validKey, s.SecretKey())
}

func TestSettingsSetTimestamp(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	require.NoError(t, s.SetTimestamp(1700000000))
	assert.Equal(t, int64(1700000000), s.Timestamp())

	err := s.SetTimestamp(tracking.MinTimestamp)
	assert.ErrorIs(t, err, tracking.ErrInvalidTimestamp)
	assert.Equal(t, int64(1700000000), s.Timestamp())

	require.NoError(t, s.SetTimestamp(0))
	assert.Zero(t, s.Timestamp())
}

func TestSettingsSetLanguage(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	for _, lang := range []string{"deu", "de", "de_DE", "en-US"} {
		require.NoError(t, s.SetLanguage(lang), lang)
		assert.Equal(t, lang, s.Language())
	}

	err := s.SetLanguage("not a language!")
	assert.ErrorIs(t, err, tracking.ErrInvalidLanguage)
	assert.Equal(t, "en-US", s.Language())
}

func TestSettingsSetClientIP(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	require.NoError(t, s.SetClientIP("192.168.10.77"))
	assert.Equal(t, "192.168.10.0", s.ClientIP())

	err := s.SetClientIP("300.1.1.1")
	assert.ErrorIs(t, err, tracking.ErrInvalidClientIP)
	assert.Equal(t, "192.168.10.0", s.ClientIP())

	require.NoError(t, s.SetClientIP(""))
	assert.Empty(t, s.ClientIP())
}

func TestMaskIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"10.1.2.3", "10.1.2.0"},
		{"::ffff:10.1.2.3", "10.1.2.0"},
		{"2001:db8:abcd:12:1:2:3:4", "2001:db8:abcd::"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tracking.MaskIP(tt.in), tt.in)
	}
}

func TestSettingsEventTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Unix(1800000000, 0)

	s := tracking.NewSettings()
	assert.Equal(t, now.Unix(), s.EventTimestamp(now))

	require.NoError(t, s.SetTimestamp(1700000000))
	assert.Equal(t, int64(1700000000), s.EventTimestamp(now))

	s.AutoTimestamp = true
	assert.Equal(t, now.Unix(), s.EventTimestamp(now))
	assert.Equal(t, int64(1700000000), s.Timestamp(), "resolving a timestamp must not modify settings")
}

func TestSettingsParams(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	s.UniqueCustomerIdentifier = "user-1"
	s.Version = "1.2.0"
	s.UniqueCustomerSubToken = "sub"
	require.NoError(t, s.SetClientIP("8.8.4.4"))

	params := s.Params(time.Unix(1800000000, 0))
	assert.Equal(t, []string{
		tracking.ParamUniqueCustomerIdentifier,
		tracking.ParamLanguage,
		tracking.ParamVersion,
		tracking.ParamClientIP,
		tracking.ParamSpace,
		tracking.ParamTimestamp,
		tracking.ParamUniqueCustomerSubToken,
	}, params.Keys())
	assert.Equal(t, map[string]string{
		"UniqueCustomerIdentifier": "user-1",
		"Language":                 "EN",
		"Version":                  "1.2.0",
		"ClientIP":                 "8.8.4.0",
		"Space":                    "Default",
		"Timestamp":                "1800000000",
		"UniqueCustomerSubToken":   "sub",
	}, params.Map())
}

func TestSettingsEndpoint(t *testing.T) {
	t.Parallel()

	s := tracking.NewSettings()
	require.NoError(t, s.SetAPIKey(validKey))
	assert.Equal(t, "http://tracker.honeytracks.com/?ApiKey="+validKey, s.Endpoint())

	s.TrackerURL = "https://collector.example.com/in?key=%1$s&v=2"
	assert.Equal(t, "https://collector.example.com/in?key="+validKey+"&v=2", s.Endpoint())
}
