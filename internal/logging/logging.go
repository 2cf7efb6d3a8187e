// Package logging builds the zerolog loggers handed to the clients.
// Components take a zerolog.Logger at construction and default to
// zerolog.Nop(), so nothing is printed unless the caller asks for it.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0600

// Options configure New
type Options struct {
	// Debug lowers the level from warn to debug
	Debug bool
	// JSON writes structured lines instead of the console format
	JSON bool
	// Writer defaults to stderr
	Writer io.Writer
	// Path appends to a file instead of Writer
	Path string
}

// New creates a logger from opts. The returned close function releases the
// log file, if one was opened.
func New(opts Options) (zerolog.Logger, func() error, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	closer := func() error { return nil }

	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		w = zerolog.SyncWriter(f)
		closer = f.Close
	} else if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	}

	level := zerolog.WarnLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}
