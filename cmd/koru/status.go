// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/devblok/kore/asset"
	"github.com/devblok/kore/render"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// statusLine prints loading progress whenever it changes.
type statusLine struct {
	out  io.Writer
	last string
}

func newStatusLine() *statusLine {
	return &statusLine{out: os.Stderr}
}

func (s *statusLine) render(frame render.Frame, stats []asset.KindStats) string {
	var parts []string
	for _, k := range stats {
		if k.Slots == 0 {
			continue
		}
		style := readyStyle
		if k.Pending > 0 {
			style = pendingStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %d/%d", k.Kind, k.Slots-k.Pending, k.Slots)))
	}
	line := labelStyle.Render("kore") + " " + strings.Join(parts, " ") +
		fmt.Sprintf(" drawn %d waiting %d", frame.Drawn, frame.NotLoaded)
	if frame.Failed > 0 {
		line += " " + failedStyle.Render(fmt.Sprintf("failed %d", frame.Failed))
	}
	return line
}

func (s *statusLine) update(frame render.Frame, stats []asset.KindStats) {
	line := s.render(frame, stats)
	if line == s.last {
		return
	}
	s.last = line
	fmt.Fprintf(s.out, "\r%s\x1b[K", line)
}

func (s *statusLine) done() {
	if s.last != "" {
		fmt.Fprintln(s.out)
	}
}
