package main

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// viewSize is the pixel size of the main view for the current terminal,
// leaving room for the status line.
func (m *model) viewSize() point {
	rows := max(m.height-1, 1)
	cols := max(m.width, 1)
	return point{float64(cols) * m.config.Cell.Width, float64(rows) * m.config.Cell.Height}
}

// cellToPixel maps a terminal cell to the pixel at its centre.
func (m *model) cellToPixel(col, row int) point {
	return point{
		(float64(col) + 0.5) * m.config.Cell.Width,
		(float64(row) + 0.5) * m.config.Cell.Height,
	}
}

func (m *model) shareURL() string {
	return shareURL(m.config.Server, m.treeID, m.viewer.view, m.viewer.size)
}

func writeClipboardText(text string) error {
	if runtime.GOOS == "darwin" {
		cmd := exec.Command("pbcopy")
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}
	return clipboard.WriteAll(text)
}

// cleanInput drops control characters from typed or pasted text.
func cleanInput(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
