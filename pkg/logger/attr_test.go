package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/honeytracks/pkg/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("batch", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "batch", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"action", logger.Action("User::Login"), "action", "User::Login"},
		{"space", logger.Space("Default"), "space", "Default"},
		{"batch size", logger.BatchSize(50), "batch_size", int64(50)},
		{"backlog len", logger.BacklogLen(7), "backlog_len", int64(7)},
		{"dropped", logger.Dropped(3), "dropped", int64(3)},
		{"state", logger.State("cooldown"), "state", "cooldown"},
		{"status code", logger.StatusCode(503), "status_code", int64(503)},
		{"store", logger.Store("redis"), "store", "redis"},
		{"component", logger.Component("tracking"), "component", "tracking"},
		{"duration", logger.Duration(5 * time.Second), "duration", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}

func TestOptionalIDs(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.PipelineID(nil).Equal(slog.Attr{}))
	assert.True(t, logger.BatchID("").Equal(slog.Attr{}))

	attr := logger.BatchID("b-1")
	assert.Equal(t, "batch_id", attr.Key)
	assert.Equal(t, "b-1", attr.Value.String())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	l, err := logger.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	l, err = logger.ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = logger.ParseLevel("loud")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := logger.ParseFormat("TEXT")
	require.NoError(t, err)
	assert.Equal(t, logger.FormatText, f)

	_, err = logger.ParseFormat("xml")
	assert.Error(t, err)
}
