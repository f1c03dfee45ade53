package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := output
	output = &buf
	t.Cleanup(func() {
		output = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	Init(Config{Format: "json", Level: "debug", Component: "discovery"})
	log.Debug().Str("device", "10.0.0.1").Msg("hello")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"component":"discovery"`)
	assert.Contains(t, out, `"device":"10.0.0.1"`)
	assert.Contains(t, out, `"message":"hello"`)
}

func TestSelectWriterAutoNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	prev := output
	output = &buf
	t.Cleanup(func() { output = prev })

	assert.Same(t, &buf, selectWriter("auto"))
	_, isConsole := selectWriter("console").(zerolog.ConsoleWriter)
	assert.True(t, isConsole)
}
