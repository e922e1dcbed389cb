package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// consoleSink writes one line per log call, colorized by level when the
// target supports it. Errors go to stderr, everything else to stdout.
// Every event appears here in full regardless of the dedup outcome.
type consoleSink struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

var levelColors = map[LogLevel]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
}

func newConsoleSink() *consoleSink {
	return &consoleSink{
		out: os.Stdout,
		err: os.Stderr,
	}
}

func (s *consoleSink) write(ts time.Time, level LogLevel, message string) {
	w := s.out
	if level == LevelError {
		w = s.err
	}

	line := formatLine(ts, level, message)

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := levelColors[level]; ok {
		c.Fprintln(w, line)
		return
	}
	fmt.Fprintln(w, line)
}

// formatLine renders "[<timestamp>] <level>: <message>".
func formatLine(ts time.Time, level LogLevel, message string) string {
	return fmt.Sprintf("[%s] %s: %s", ts.Format(timestampLayout), level, message)
}
