package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "debug", "json")

	log.Debug().Str("parser", "circle").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "circle", entry["parser"])
	assert.Equal(t, "hello", entry["message"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "info", "text")

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, strings.HasPrefix(buf.String(), "{"), "console output should not be JSON")
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "bogus", "json")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log.Debug().Msg("dropped")
	assert.Empty(t, buf.String())

	log = NewLoggerTo(&buf, "WARN", "json")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.TextsParsed.Inc()
	m.ShapesExtracted.WithLabelValues("circle").Add(2)
	m.Diagnostics.WithLabelValues("invalid_radius").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TextsParsed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ShapesExtracted.WithLabelValues("circle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Diagnostics.WithLabelValues("invalid_radius")))

	// A second set must not collide with the first.
	assert.NotPanics(t, func() { NewMetricsForTesting() })
}
