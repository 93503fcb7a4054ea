package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Out: &buf})

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Console: true, Out: &buf})
	log.Info().Str("user", "42").Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), NewWithWriter(&buf))

	l := FromContext(ctx)
	l.Info().Msg("test")
	assert.NotZero(t, buf.Len())

	// No logger in context: output is discarded, not a panic.
	dropped := FromContext(context.Background())
	dropped.Info().Msg("dropped")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := WithFields(NewWithWriter(&buf), map[string]any{"flow": "rep", "user": 7})
	log.Info().Msg("x")

	assert.Contains(t, buf.String(), `"flow":"rep"`)
	assert.Contains(t, buf.String(), `"user":7`)
}
