package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "json", &buf)
	log.Info().Str("component", "capture").Msg("captured")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "captured", line["message"])
	assert.Equal(t, "capture", line["component"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", "json", &buf)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "console", &buf)
	log.Warn().Msg("friendly fire abort")
	assert.Contains(t, buf.String(), "friendly fire abort")
	assert.Contains(t, buf.String(), "WRN")
}
