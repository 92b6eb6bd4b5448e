package collector_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/honeytracks/pkg/collector"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

func TestEncodeForm(t *testing.T) {
	t.Parallel()

	batch := []tracking.Event{
		tracking.NewEvent("User::Login", tracking.F("Space", "Default"), tracking.F("Language", "EN")),
		tracking.NewEvent("User::Levelup", tracking.F("Level", "2"), tracking.F("Note", "a&b=c")),
	}

	body := string(collector.EncodeForm(batch))
	assert.Equal(t,
		"Packets%5B0%5D%5BAction%5D=User%3A%3ALogin"+
			"&Packets%5B0%5D%5BSpace%5D=Default"+
			"&Packets%5B0%5D%5BLanguage%5D=EN"+
			"&Packets%5B1%5D%5BAction%5D=User%3A%3ALevelup"+
			"&Packets%5B1%5D%5BLevel%5D=2"+
			"&Packets%5B1%5D%5BNote%5D=a%26b%3Dc",
		body)

	values, err := url.ParseQuery(body)
	require.NoError(t, err)
	assert.Equal(t, "User::Login", values.Get("Packets[0][Action]"))
	assert.Equal(t, "a&b=c", values.Get("Packets[1][Note]"))
}

func TestEncodeFormEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, collector.EncodeForm(nil))
}
