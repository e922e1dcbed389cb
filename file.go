package logging

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// dailyWriter appends console lines to a file, optionally rotating it at
// each calendar day boundary.
type dailyWriter struct {
	mu       sync.Mutex
	basePath string
	rotate   bool
	current  string
	file     *os.File
}

func newDailyWriter(basePath string, rotate bool) (*dailyWriter, error) {
	w := &dailyWriter{
		basePath: basePath,
		rotate:   rotate,
	}
	if err := w.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *dailyWriter) writeLine(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return
	}
	_, _ = w.file.WriteString(line + "\n")
}

func (w *dailyWriter) rotateIfNeeded() error {
	if !w.rotate {
		if w.file != nil {
			return nil
		}
		return w.open(w.basePath + ".log")
	}

	today := time.Now().Format("2006-01-02")
	if w.file != nil && w.current == today {
		return nil
	}

	if w.file != nil {
		_ = w.file.Close()
	}
	if err := w.open(w.basePath + "-" + today + ".log"); err != nil {
		return err
	}
	w.current = today
	return nil
}

func (w *dailyWriter) open(name string) error {
	if err := os.MkdirAll(filepath.Dir(w.basePath), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w.file = file
	return nil
}

func (w *dailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
