package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// The following constants define the ANSI colors of status messages.
const (
	colorRed    = 31
	colorYellow = 33
	colorCyan   = 36
)

// status prints progress messages: cyan for the beginning and the end
// of the run, yellow for progress and red for fatal errors.
type status struct {
	w     io.Writer
	color bool
}

func newStatus(w io.Writer, noColor bool) *status {
	color := false
	if fp, ok := w.(*os.File); ok && !noColor {
		color = term.IsTerminal(int(fp.Fd()))
	}
	return &status{w: w, color: color}
}

func (s *status) colorize(text string, code int) string {
	if !s.color {
		return text
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, text)
}

func (s *status) println(text string, code int) {
	fmt.Fprintln(s.w, s.colorize(text, code))
}

func (s *status) begin() {
	s.println("DLXASM RUNNING", colorCyan)
	s.println("======================================== START", colorCyan)
}

func (s *status) end() {
	s.println("DLXASM FINISHED", colorCyan)
	s.println("======================================== END", colorCyan)
}

func (s *status) section(title string) {
	s.println(title, colorYellow)
	s.println("~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~", colorYellow)
}

func (s *status) info(text string) {
	s.println(text, colorYellow)
}

func (s *status) done() {
	s.println("---------------------------------------- DONE", colorYellow)
}

func (s *status) fail(text string) {
	s.println(text, colorRed)
	s.println("======================================== STOPPED", colorRed)
}
