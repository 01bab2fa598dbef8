package main

import (
	"context"
	"errors"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
)

var ErrStale = errors.New("draw response superseded by a newer request")

// drawer fetches drawing items for a query. *Client implements it.
type drawer interface {
	Draw(ctx context.Context, treeID string, query url.Values) ([]DrawItem, error)
}

// drawRequest is one draw round trip. view is a private snapshot so the
// fetch can run while the live state keeps changing.
type drawRequest struct {
	seq     uint64
	view    *ViewState
	size    point
	minimap bool
}

type drawnMsg struct {
	req   drawRequest
	scene *Scene
	err   error
}

// pipeline numbers draw requests and decides which responses may replace
// the shown scene. Responses are installed only in increasing order, so a
// slow old response never overwrites a newer scene.
type pipeline struct {
	issued    uint64
	installed uint64
}

func (p *pipeline) request(v *ViewState, size point) drawRequest {
	p.issued++
	return drawRequest{seq: p.issued, view: v.Clone(), size: size}
}

// accept reports whether msg may be installed. Failures of superseded
// requests are dropped as stale.
func (p *pipeline) accept(msg drawnMsg) error {
	if msg.req.seq <= p.installed {
		return ErrStale
	}
	if msg.err != nil {
		if msg.req.seq < p.issued {
			return ErrStale
		}
		return msg.err
	}
	p.installed = msg.req.seq
	return nil
}

// fetchScene runs the whole draw round trip for req: query, fetch and
// conversion.
func fetchScene(ctx context.Context, d drawer, treeID string, req drawRequest, opts sceneOptions) drawnMsg {
	items, err := d.Draw(ctx, treeID, drawQuery(req.view, req.size))
	if err != nil {
		return drawnMsg{req: req, err: err}
	}
	scene, err := buildScene(req.seq, items, req.view, req.size, opts)
	return drawnMsg{req: req, scene: scene, err: err}
}

func fetchCmd(d drawer, treeID string, req drawRequest, opts sceneOptions) tea.Cmd {
	return func() tea.Msg {
		return fetchScene(context.Background(), d, treeID, req, opts)
	}
}

// alignTo sets the scene's visual transform so a scene drawn for its
// snapshot view shows correctly under cur.
func (s *Scene) alignTo(cur *ViewState) {
	if s.view == nil || s.view.Shape != cur.Shape {
		return
	}
	s.Scale = cur.Zoom.div(s.view.Zoom)
	s.Shift = s.view.Offset.sub(cur.Offset).mul(cur.Zoom)
}
