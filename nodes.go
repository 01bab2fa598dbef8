package main

import (
	"slices"
	"strings"
)

// nodeDepth is the number of steps from the root; -1 for malformed ids.
func nodeDepth(id string) int {
	path, err := parseNodeID(id)
	if err != nil {
		return -1
	}
	return len(path)
}

func parentNodeID(id string) (string, bool) {
	path, err := parseNodeID(id)
	if err != nil || len(path) == 0 {
		return "", false
	}
	return formatNodeID(path[:len(path)-1]), true
}

// visibleChildren returns the visible children of id in child order.
func visibleChildren(ids []string, id string) []string {
	parent, err := parseNodeID(id)
	if err != nil {
		return nil
	}
	type child struct {
		id  string
		idx int
	}
	var children []child
	for _, other := range ids {
		path, err := parseNodeID(other)
		if err != nil || len(path) != len(parent)+1 || !slices.Equal(path[:len(parent)], parent) {
			continue
		}
		children = append(children, child{other, path[len(parent)]})
	}
	slices.SortFunc(children, func(a, b child) int { return a.idx - b.idx })
	out := make([]string, len(children))
	for i, c := range children {
		out[i] = c.id
	}
	return out
}

// selectParent walks up from the selection to the nearest visible ancestor.
func (vw *viewer) selectParent() bool {
	if vw.scene == nil || vw.view.Selected == "" {
		return false
	}
	ids := vw.scene.nodeIDs()
	id := vw.view.Selected
	for {
		parent, ok := parentNodeID(id)
		if !ok {
			return false
		}
		if slices.Contains(ids, parent) {
			return vw.selectNode(parent)
		}
		id = parent
	}
}

func (vw *viewer) selectFirstChild() bool {
	if vw.scene == nil || vw.view.Selected == "" {
		return false
	}
	children := visibleChildren(vw.scene.nodeIDs(), vw.view.Selected)
	if len(children) == 0 {
		return false
	}
	return vw.selectNode(children[0])
}

// selectSibling moves the selection by step among its visible siblings,
// wrapping at the ends.
func (vw *viewer) selectSibling(step int) bool {
	if vw.scene == nil || vw.view.Selected == "" {
		return false
	}
	parent, ok := parentNodeID(vw.view.Selected)
	if !ok {
		return false
	}
	siblings := visibleChildren(vw.scene.nodeIDs(), parent)
	i := slices.Index(siblings, vw.view.Selected)
	if i < 0 || len(siblings) < 2 {
		return false
	}
	i = (i + step + len(siblings)) % len(siblings)
	return vw.selectNode(siblings[i])
}

// selectRoot selects the shallowest visible node.
func (vw *viewer) selectRoot() bool {
	if vw.scene == nil {
		return false
	}
	ids := vw.scene.nodeIDs()
	if len(ids) == 0 {
		return false
	}
	best := ids[0]
	for _, id := range ids[1:] {
		if nodeDepth(id) < nodeDepth(best) {
			best = id
		}
	}
	return vw.selectNode(best)
}

func (vw *viewer) selectNode(id string) bool {
	if !vw.apply(Select{id}) {
		return false
	}
	vw.recolor()
	return true
}

// selectedName is the name of the selected node as drawn, or its id.
func (vw *viewer) selectedName() string {
	if vw.view.Selected == "" {
		return ""
	}
	if vw.scene != nil {
		for _, it := range vw.scene.Items {
			var n node
			switch it := it.(type) {
			case *NodeRect:
				n = it.node
			case *NodeSector:
				n = it.node
			default:
				continue
			}
			if n.NodeID == vw.view.Selected && strings.TrimSpace(n.Name) != "" {
				return n.Name
			}
		}
	}
	return vw.view.Selected
}
