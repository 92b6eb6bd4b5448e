package tracking_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

func TestEventFields(t *testing.T) {
	t.Parallel()

	e := tracking.NewEvent("User::Levelup",
		tracking.F("Level", "1"),
		tracking.F("Space", "a"),
		tracking.F("Level", "2"),
	)
	assert.Equal(t, []string{"Level", "Space"}, e.Fields().Keys())
	v, ok := e.Field("Level")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	fields := e.Fields()
	fields[0].Value = "changed"
	v, _ = e.Field("Level")
	assert.Equal(t, "2", v, "Fields must return a copy")

	with := e.With(tracking.F("Space", "b"), tracking.F("Extra", "x"))
	assert.Equal(t, map[string]string{"Level": "2", "Space": "b", "Extra": "x"}, with.Fields().Map())
	v, _ = e.Field("Space")
	assert.Equal(t, "a", v, "With must not modify the receiver")

	assert.ErrorIs(t, tracking.NewEvent("").Validate(), tracking.ErrEmptyAction)
	assert.NoError(t, e.Validate())
	assert.NoError(t, tracking.NewEvent("Custom", tracking.F("Name", "Zoë")).Validate())
	assert.ErrorIs(t, tracking.NewEvent("Custom\xff").Validate(), tracking.ErrInvalidUTF8)
	assert.ErrorIs(t, tracking.NewEvent("Custom", tracking.F("Name", "\xff")).Validate(), tracking.ErrInvalidUTF8)
	assert.ErrorIs(t, tracking.NewEvent("Custom", tracking.F("\xfe", "v")).Validate(), tracking.ErrInvalidUTF8)
}

func TestEventMarshalJSON(t *testing.T) {
	t.Parallel()

	e := tracking.NewEvent("User::Login",
		tracking.F("Space", "Default"),
		tracking.F("Quote", `a"b`),
	)
	b, err := e.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"action":"User::Login","eventData":{"Space":"Default","Quote":"a\"b"}}`, string(b))

	empty, err := tracking.NewEvent("User::Logout").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"action":"User::Logout","eventData":{}}`, string(empty))
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	events := []tracking.Event{
		tracking.NewEvent("User::Login", tracking.F("Space", "Default"), tracking.F("Timestamp", "1700000000")),
		tracking.NewEvent("User::Levelup", tracking.F("Level", "3")),
		tracking.NewEvent("User::Logout"),
	}

	blob, err := tracking.EncodeSnapshot(events)
	require.NoError(t, err)

	decoded, err := tracking.DecodeSnapshot(blob)
	require.NoError(t, err)
	require.Len(t, decoded, len(events))
	for i := range events {
		assert.Equal(t, events[i].Action(), decoded[i].Action())
		assert.Equal(t, events[i].Fields(), decoded[i].Fields())
	}
}

func TestEncodeSnapshotEmpty(t *testing.T) {
	t.Parallel()

	blob, err := tracking.EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, tracking.EmptySnapshot, blob)
}

func TestDecodeSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("empty values", func(t *testing.T) {
		t.Parallel()

		for _, blob := range []string{"", "  ", "[]"} {
			events, err := tracking.DecodeSnapshot(blob)
			assert.NoError(t, err)
			assert.Empty(t, events)
		}
	})

	t.Run("not an array", func(t *testing.T) {
		t.Parallel()

		events, err := tracking.DecodeSnapshot(`{"action":"User::Login"}`)
		assert.ErrorIs(t, err, tracking.ErrMalformedSnapshot)
		assert.Empty(t, events)
	})

	t.Run("skips malformed records", func(t *testing.T) {
		t.Parallel()

		blob := `[{"action":"User::Login","eventData":{"Space":"Default"}},{"eventData":{}},42]`
		events, err := tracking.DecodeSnapshot(blob)
		require.Error(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "User::Login", events[0].Action())

		assert.ErrorIs(t, err, tracking.ErrMalformedRecord)
		var decodeErr *tracking.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, 1, decodeErr.Index)
	})

	t.Run("string wrapped records", func(t *testing.T) {
		t.Parallel()

		blob := `["{\"action\":\"User::Login\",\"eventData\":{\"Space\":\"EU\"}}"]`
		events, err := tracking.DecodeSnapshot(blob)
		require.NoError(t, err)
		require.Len(t, events, 1)
		v, _ := events[0].Field("Space")
		assert.Equal(t, "EU", v)
	})

	t.Run("scalar values kept as text", func(t *testing.T) {
		t.Parallel()

		blob := `[{"action":"User::Levelup","eventData":{"Level":3,"IsFreeAction":true},"ignored":[1,2]}]`
		events, err := tracking.DecodeSnapshot(blob)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, map[string]string{"Level": "3", "IsFreeAction": "true"}, events[0].Fields().Map())
	})

	t.Run("null eventData", func(t *testing.T) {
		t.Parallel()

		events, err := tracking.DecodeSnapshot(`[{"action":"User::Logout","eventData":null}]`)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Nil(t, events[0].Fields())
	})
}
