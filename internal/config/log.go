package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Log struct {
	Level string `fig:"level" default:"info"`
	JSON  bool   `fig:"json"`
}

// Logger builds the process logger and sets the global level.
func (l Log) Logger(out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stdout
	}
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	zerolog.SetGlobalLevel(level)

	if !l.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
