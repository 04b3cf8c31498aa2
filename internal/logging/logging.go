// Package logging builds the process logger from config.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// New returns a logger writing to w with the named handler and level.
func New(w io.Writer, handler, level string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	var h log.Handler
	switch handler {
	case "", "text":
		h = text.New(w)
	case "json":
		h = json.New(w)
	case "cli":
		h = cli.New(w)
	case "discard":
		h = discard.New()
	default:
		return nil, fmt.Errorf("unknown log handler %q", handler)
	}

	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}

	return &log.Logger{Handler: h, Level: lvl}, nil
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return &log.Logger{Handler: discard.Default}
}
