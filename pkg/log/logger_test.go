package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{LogLevel: zerolog.InfoLevel, Type: JSONLogger, Out: &buf})

	Decode.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"decode"`)
	assert.Contains(t, buf.String(), `"hello"`)

	buf.Reset()
	Archive.Debug().Msg("dropped")
	assert.Empty(t, buf.String())
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	_, err = ParseLogLevel("shouty")
	assert.Error(t, err)
}
