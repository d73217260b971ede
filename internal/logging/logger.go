package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the console logger used by the commands and installs it as the global zerolog logger.
func New(environment, level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, environment, level)
}

func NewWithWriter(out io.Writer, environment, level string) zerolog.Logger {
	production := strings.EqualFold(environment, "production")
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    production,
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("env", environment).
		Logger()

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
		if !production {
			lvl = zerolog.DebugLevel
		}
	}
	logger = logger.Level(lvl)
	log.Logger = logger
	return logger
}
