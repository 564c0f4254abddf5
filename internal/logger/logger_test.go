package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", false, &buf)
	t.Cleanup(func() { Log = zerolog.Nop() })

	Log.Info().Int64("playlist_id", 7).Msg("Video appended")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "playcast", entry["service"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Video appended", entry["message"])
	assert.Equal(t, float64(7), entry["playlist_id"])
}

func TestInitWithWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("error", false, &buf)
	t.Cleanup(func() {
		Log = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	Log.Info().Msg("dropped")

	assert.Zero(t, buf.Len())
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("debug", false, &buf)
	t.Cleanup(func() { Log = zerolog.Nop() })

	log := Component("device")
	log.Debug().Msg("Device registered")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "device", entry["component"])
	assert.Equal(t, "playcast", entry["service"])
}
