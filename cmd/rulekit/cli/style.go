// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Status writes user-facing progress lines for long-running commands.
// It renders colored prefixes through a per-writer lipgloss renderer,
// which degrades to plain text when the writer is not a terminal.
type Status struct {
	w io.Writer

	step    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	errs    lipgloss.Style
	dim     lipgloss.Style
}

// NewStatus creates a Status writing to w. Styling adapts to the
// writer: colors on a TTY, plain text when piped.
func NewStatus(w io.Writer) *Status {
	renderer := lipgloss.NewRenderer(w)
	return &Status{
		w:       w,
		step:    renderer.NewStyle().Foreground(lipgloss.Color("6")),
		success: renderer.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    renderer.NewStyle().Foreground(lipgloss.Color("3")),
		errs:    renderer.NewStyle().Foreground(lipgloss.Color("1")),
		dim:     renderer.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Step reports the start of an install/migrate stage.
func (s *Status) Step(format string, args ...any) {
	fmt.Fprintf(s.w, "%s %s\n", s.step.Render("==>"), fmt.Sprintf(format, args...))
}

// Success reports a completed stage.
func (s *Status) Success(format string, args ...any) {
	fmt.Fprintf(s.w, "%s %s\n", s.success.Render(" ok"), fmt.Sprintf(format, args...))
}

// Warn reports a non-fatal condition.
func (s *Status) Warn(format string, args ...any) {
	fmt.Fprintf(s.w, "%s %s\n", s.warn.Render("warn"), fmt.Sprintf(format, args...))
}

// Error reports a stage failure.
func (s *Status) Error(format string, args ...any) {
	fmt.Fprintf(s.w, "%s %s\n", s.errs.Render("fail"), fmt.Sprintf(format, args...))
}

// Detail reports secondary information under a stage, indented and dimmed.
func (s *Status) Detail(format string, args ...any) {
	fmt.Fprintf(s.w, "    %s\n", s.dim.Render(fmt.Sprintf(format, args...)))
}
