package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// debouncer coalesces bursts of input into one action. Each Arm supersedes
// the previous one; only the token from the latest Arm fires. It keeps no
// timer of its own, the caller delivers tokens back after the delay.
type debouncer struct {
	delay time.Duration
	token uint64
	armed bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

func (d *debouncer) Arm() uint64 {
	d.token++
	d.armed = true
	return d.token
}

func (d *debouncer) Cancel() {
	d.armed = false
}

func (d *debouncer) Pending() bool {
	return d.armed
}

// Fire reports whether token is the live one, and disarms if so.
func (d *debouncer) Fire(token uint64) bool {
	if !d.armed || token != d.token {
		return false
	}
	d.armed = false
	return true
}

type debounceMsg struct {
	token uint64
}

// tick schedules token to come back as a debounceMsg after the delay.
func (d *debouncer) tick(token uint64) tea.Cmd {
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return debounceMsg{token: token}
	})
}
