package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0")).Background(lipgloss.Color("#303030"))
	modeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#40A0FF"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4040"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0"))
)

var helpLines = []string{
	"smartview help",
	"==============",
	"",
	"Mouse:",
	"------",
	"  drag             Pan the tree",
	"  click            Select the node under the pointer",
	"  wheel            Zoom at the pointer",
	"  ctrl/alt+wheel   Zoom horizontally/vertically only (rectangular)",
	"  minimap click    Recenter on the clicked point",
	"  minimap drag     Move the visible area",
	"",
	"View:",
	"-----",
	"  h/←/j/↓/k/↑/l/→  Pan",
	"  Shift+h/j/k/l    Pan 2x faster",
	"  +/-              Zoom in/out at the centre",
	"  0                Fit the whole tree",
	"  C                Toggle rectangular/circular",
	"  m                Toggle the minimap",
	"  u                Undo view change",
	"  U                Redo view change",
	"",
	"Nodes:",
	"------",
	"  p                Select parent",
	"  c                Select first child",
	"  [ / ]            Select previous/next sibling",
	"  g                Select root",
	"  Esc              Clear selection",
	"  t                Tag selected node",
	"  x                Collapse/expand selected node",
	"  R                Reroot at selected node",
	"  o                Sort below selected node",
	"  D                Remove selected node",
	"",
	"Search:",
	"-------",
	"  /                Search (Enter to run, Esc to cancel)",
	"  \\                Clear all searches",
	"",
	"Share and export:",
	"-----------------",
	"  y                Copy view URL",
	"  Y                Copy newick",
	"  s                Export view as SVG",
	"  S                Export view as PNG",
	"",
	"General:",
	"  ?                Toggle this help screen",
	"  q/Ctrl+C         Quit",
}

func (m model) View() string {
	if m.help {
		return m.helpView()
	}
	rows := max(m.height-1, 1)
	cols := max(m.width, 1)

	var result strings.Builder
	if m.mode == ModeLoading {
		msg := "loading tree " + m.treeID + "..."
		if m.errorMessage != "" {
			msg = errorStyle.Render("ERROR: "+m.errorMessage) + " | q to quit"
		}
		result.WriteString(strings.Repeat("\n", rows))
		result.WriteString(msg)
		return result.String()
	}

	canvas := newTermCanvas(cols, rows, m.config.Cell)
	canvas.drawScene(m.viewer.scene, m.config.Colors, point{})
	if m.viewer.mini.show {
		canvas.drawMinimap(m.viewer.mini, m.viewer.miniPos, m.config.Colors)
	}
	result.WriteString(strings.Join(canvas.Render(), "\n"))
	result.WriteString("\n")
	result.WriteString(m.statusLine(cols))
	return result.String()
}

func (m model) statusLine(width int) string {
	mode := modeStyle.Render(" " + m.modeString() + " ")
	var status string
	switch m.mode {
	case ModeSearch:
		status = fmt.Sprintf(" search: %s█ | Enter=search, Esc=cancel", m.searchText)
	case ModeConfirm:
		switch m.confirmAction {
		case ConfirmRemoveNode:
			status = fmt.Sprintf(" Remove %s? (y/n)", m.viewer.selectedName())
		case ConfirmQuit:
			status = " Quit smartview? (y/n)"
		}
	default:
		vw := m.viewer
		status = fmt.Sprintf(" %s | %s | zoom %.3g", m.treeID, vw.view.Shape, vw.view.Zoom.X)
		if vw.view.Shape == ShapeRectangular && vw.view.Zoom.Y != vw.view.Zoom.X {
			status += fmt.Sprintf("x%.3g", vw.view.Zoom.Y)
		}
		if vw.scene != nil {
			status += fmt.Sprintf(" | nodes %d/%d", vw.scene.Nodes, m.totalNodes)
		}
		if name := vw.selectedName(); name != "" {
			status += " | selected: " + name
		}
		if n := len(vw.view.Searches); n > 0 {
			status += fmt.Sprintf(" | searches: %d", n)
		}
		if vw.debounce.Pending() || vw.pipe.issued > vw.pipe.installed {
			status += " | ..."
		}
		if m.statusMessage != "" {
			status += " | " + m.statusMessage
		}
		if m.errorMessage == "" && m.statusMessage == "" {
			status += " | ? for help"
		}
	}
	line := mode + statusStyle.Render(status)
	if m.errorMessage != "" {
		line += " " + errorStyle.Render("ERROR: "+m.errorMessage)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

func (m model) modeString() string {
	switch m.mode {
	case ModeLoading:
		return "LOADING"
	case ModeNormal:
		return "VIEW"
	case ModeSearch:
		return "SEARCH"
	case ModeConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

func (m model) helpView() string {
	visibleHeight := max(m.height-1, 1)
	startLine := min(m.helpScroll, max(len(helpLines)-visibleHeight, 0))
	endLine := min(startLine+visibleHeight, len(helpLines))

	result := helpStyle.Render(strings.Join(helpLines[startLine:endLine], "\n"))
	statusLine := fmt.Sprintf("Help (%d-%d of %d lines) | j/k to scroll, Esc to close",
		startLine+1, endLine, len(helpLines))
	return result + "\n" + statusLine
}
