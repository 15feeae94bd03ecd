package event

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// ConsoleSink writes one line per event, colour-coded by phase.
type ConsoleSink struct {
	w          io.Writer
	timestamps bool
	palette    map[string]*color.Color
}

// NewConsoleSink creates a console sink writing to w. When colour is false
// lines are written without escape sequences. When timestamps is true each
// line is prefixed with the event's offset from the start of the run.
func NewConsoleSink(w io.Writer, colour, timestamps bool) *ConsoleSink {
	palette := map[string]*color.Color{
		PhaseAdmitted:     color.New(color.FgGreen),
		PhaseWokeProvider: color.New(color.FgGreen, color.Bold),
		PhaseRejected:     color.New(color.FgRed),
		PhaseIdle:         color.New(color.Faint),
		PhaseServicing:    color.New(color.FgCyan),
		PhaseServiced:     color.New(color.FgCyan),
		PhaseProviderDone: color.New(color.FgCyan, color.Bold),
		PhaseActive:       color.New(color.FgYellow),
		PhaseDone:         color.New(color.FgBlue),
	}
	for _, c := range palette {
		if colour {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return &ConsoleSink{w: w, timestamps: timestamps, palette: palette}
}

// Write implements Sink.
func (s *ConsoleSink) Write(e Event) {
	line := Describe(e)
	if c, ok := s.palette[e.Phase]; ok {
		line = c.Sprint(line)
	}
	if s.timestamps {
		fmt.Fprintf(s.w, "[%8s] %s\n", e.At.Truncate(time.Millisecond), line)
		return
	}
	fmt.Fprintln(s.w, line)
}
