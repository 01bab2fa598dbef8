package main

import (
	"testing"
	"time"
)

func TestDebouncerLatestTokenWins(t *testing.T) {
	d := newDebouncer(200 * time.Millisecond)
	first := d.Arm()
	second := d.Arm()
	if !d.Pending() {
		t.Fatal("armed debouncer not pending")
	}
	if d.Fire(first) {
		t.Error("superseded token fired")
	}
	if !d.Fire(second) {
		t.Error("latest token did not fire")
	}
	if d.Fire(second) || d.Pending() {
		t.Error("token fired twice")
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	tok := d.Arm()
	d.Cancel()
	if d.Pending() || d.Fire(tok) {
		t.Error("cancelled token fired")
	}
}

func TestDebouncerTick(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	tok := d.Arm()
	msg := d.tick(tok)()
	got, ok := msg.(debounceMsg)
	if !ok || got.token != tok {
		t.Errorf("tick delivered %#v", msg)
	}
}
