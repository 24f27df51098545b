package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the daemon logger. An empty file path logs to stderr in console
// form; a file path switches to JSON lines appended to that file.
func New(level, file string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var output io.Writer
	if file == "" {
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	} else {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("could not open log file: %w", err)
		}
		output = f
	}

	return zerolog.New(output).Level(lvl).With().Timestamp().Logger(), nil
}
