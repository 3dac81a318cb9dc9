package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LoggerType uint8

const (
	ConsoleLogger LoggerType = iota
	JSONLogger
)

// Component loggers, set by Init. They start as no-ops so library code can
// log before Init runs.
var (
	Root    = zerolog.Nop()
	Decode  = zerolog.Nop()
	Archive = zerolog.Nop()
	CLI     = zerolog.Nop()
)

// Options for Init.
type Options struct {
	// LogLevel below which events are dropped.
	LogLevel zerolog.Level
	Type     LoggerType
	// Out overrides the destination, default stdout.
	Out io.Writer
}

func ParseLogLevel(loglevel string) (zerolog.Level, error) {
	return zerolog.ParseLevel(loglevel)
}

func Init(opts Options) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	var w io.Writer = out
	if opts.Type == ConsoleLogger {
		w = newConsoleWriter(out)
	}

	Root = zerolog.New(w).Level(opts.LogLevel).With().Timestamp().Logger()
	Decode = Root.With().Str("component", "decode").Logger()
	Archive = Root.With().Str("component", "archive").Logger()
	CLI = Root.With().Str("component", "cli").Logger()
}

func newConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	cw.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s=", i)
	}

	return cw
}
