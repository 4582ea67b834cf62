package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "optimizer")
	l.Info().Int("lots", 3).Msg("planned")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "optimizer", line["component"])
	assert.Equal(t, "planned", line["message"])
	assert.Equal(t, float64(3), line["lots"])
}

func TestSetLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "x")
	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, SetLevel(""))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	assert.Error(t, SetLevel("loud"))
}
