package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

const spinnerInterval = 100 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner is a text spinner for indeterminate operations. Its message is
// fixed at construction, so the animating goroutine reads it unguarded.
type spinner struct {
	writer  io.Writer
	message string
	noColor bool
	done    chan struct{}
	stopped chan struct{}
}

func startSpinner(w io.Writer, message string, noColor bool) *spinner {
	s := &spinner{
		writer:  w,
		message: message,
		noColor: noColor,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.animate()
	return s
}

// stop ends the animation and clears the line
func (s *spinner) stop() {
	close(s.done)
	<-s.stopped
	fmt.Fprint(s.writer, "\r\033[K")
}

func (s *spinner) animate() {
	defer close(s.stopped)

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	cyan := color.New(color.FgCyan)
	if s.noColor {
		cyan.DisableColor()
	}

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			cyan.Fprintf(s.writer, "\r%s %s", spinnerFrames[frame], s.message)
		}
	}
}

// WithSpinner runs fn behind a spinner and reports its outcome
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	s := startSpinner(w, message, noColor)
	err := fn()
	s.stop()

	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		if noColor {
			red.DisableColor()
		}
		red.Fprintf(w, "❌ %s failed\n", message)
		return err
	}

	fmt.Fprintln(w, formatSuccess(message, noColor))
	return nil
}
