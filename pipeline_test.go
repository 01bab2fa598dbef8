package main

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

// fakeDrawer counts draw calls and returns a fixed node box.
type fakeDrawer struct {
	calls   int
	queries []url.Values
	err     error
}

func (d *fakeDrawer) Draw(_ context.Context, _ string, query url.Values) ([]DrawItem, error) {
	d.calls++
	d.queries = append(d.queries, query)
	if d.err != nil {
		return nil, d.err
	}
	return []DrawItem{BoxItem{Box: [4]float64{0, 0, 100, 100}, NodeID: "[0]"}}, nil
}

func TestPipelineDropsOutOfOrderResponses(t *testing.T) {
	var p pipeline
	v := newViewState(ShapeRectangular)
	first := p.request(v, point{10, 10})
	second := p.request(v, point{10, 10})

	if err := p.accept(drawnMsg{req: second, scene: &Scene{}}); err != nil {
		t.Fatalf("newest response rejected: %v", err)
	}
	if err := p.accept(drawnMsg{req: first, scene: &Scene{}}); !errors.Is(err, ErrStale) {
		t.Errorf("late old response: err = %v, want ErrStale", err)
	}
}

func TestPipelineAcceptsInOrderResponses(t *testing.T) {
	var p pipeline
	v := newViewState(ShapeRectangular)
	first := p.request(v, point{10, 10})
	second := p.request(v, point{10, 10})
	if err := p.accept(drawnMsg{req: first, scene: &Scene{}}); err != nil {
		t.Errorf("first: %v", err)
	}
	if err := p.accept(drawnMsg{req: second, scene: &Scene{}}); err != nil {
		t.Errorf("second: %v", err)
	}
	if err := p.accept(drawnMsg{req: second, scene: &Scene{}}); !errors.Is(err, ErrStale) {
		t.Errorf("duplicate: err = %v, want ErrStale", err)
	}
}

func TestPipelineErrors(t *testing.T) {
	var p pipeline
	v := newViewState(ShapeRectangular)
	boom := errors.New("boom")
	first := p.request(v, point{10, 10})
	second := p.request(v, point{10, 10})

	if err := p.accept(drawnMsg{req: first, err: boom}); !errors.Is(err, ErrStale) {
		t.Errorf("superseded failure: err = %v, want ErrStale", err)
	}
	if err := p.accept(drawnMsg{req: second, err: boom}); !errors.Is(err, boom) {
		t.Errorf("latest failure: err = %v, want boom", err)
	}
}

func TestRequestSnapshotsView(t *testing.T) {
	var p pipeline
	v := newViewState(ShapeRectangular)
	req := p.request(v, point{10, 10})
	v.Apply(PanBy{5, 5})
	v.Apply(ToggleTag{"[0]"})
	if req.view.Offset != (point{}) || req.view.Tagged["[0]"] {
		t.Error("request view follows later changes")
	}
}

func TestFetchScene(t *testing.T) {
	var p pipeline
	d := &fakeDrawer{}
	v := newViewState(ShapeRectangular)
	v.Zoom = point{2, 2}
	req := p.request(v, point{800, 600})
	msg := fetchScene(context.Background(), d, "t1", req, testOptions())
	if msg.err != nil {
		t.Fatal(msg.err)
	}
	if d.calls != 1 || msg.scene.Seq != req.seq || msg.scene.Nodes != 1 {
		t.Errorf("calls %d seq %d nodes %d", d.calls, msg.scene.Seq, msg.scene.Nodes)
	}
	if got := d.queries[0].Get("w"); got != "400" {
		t.Errorf("query w = %q, want 400", got)
	}

	d.err = errors.New("down")
	if msg := fetchScene(context.Background(), d, "t1", p.request(v, point{1, 1}), testOptions()); msg.err == nil {
		t.Error("draw failure should be reported")
	}
}

func TestAlignTo(t *testing.T) {
	snap := newViewState(ShapeRectangular)
	s := newScene(1, snap.Clone(), point{100, 100})

	cur := snap.Clone()
	cur.Zoom = point{2, 2}
	cur.Offset = point{10, 0}
	s.alignTo(cur)
	if s.Scale != (point{2, 2}) || s.Shift != (point{-20, 0}) {
		t.Fatalf("scale %v shift %v", s.Scale, s.Shift)
	}
	// pixel 10 of the snapshot is tree x 10, the left edge of cur
	if got := s.project(point{10, 0}); !nearPoint(got, point{0, 0}) {
		t.Errorf("project = %v, want origin", got)
	}
}
