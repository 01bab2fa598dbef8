package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type treeInfoMsg struct {
	refit bool
	size  TreeSize
	count NodeCount
	err   error
}

type commandDoneMsg struct {
	command string
	message string
	err     error
}

type searchDoneMsg struct {
	text   string
	result SearchResult
	err    error
}

type statusMsg struct {
	text string
	err  error
}

func newModel(client *Client, cfg *Config, treeID string, shape Shape, exact measurer) model {
	return model{
		treeID: treeID,
		client: client,
		config: cfg,
		viewer: newViewer(cfg, shape, exact),
		mode:   ModeLoading,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadTreeInfo(true)
}

func (m model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.config.timeout())
}

// loadTreeInfo fetches the tree extent and node counts. refit resets the
// view to show the whole tree.
func (m model) loadTreeInfo(refit bool) tea.Cmd {
	client, treeID := m.client, m.treeID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		size, err := client.Size(ctx, treeID)
		if err != nil {
			return treeInfoMsg{err: fmt.Errorf("failed to load tree %s: %w", treeID, err)}
		}
		count, err := client.NodeCount(ctx, treeID)
		return treeInfoMsg{refit: refit, size: size, count: count, err: err}
	}
}

// run turns an Effect into the commands that carry it out.
func (m model) run(e Effect) tea.Cmd {
	var cmds []tea.Cmd
	if e.Redraw {
		cmds = append(cmds, fetchCmd(m.client, m.treeID, m.viewer.drawRequest(), m.viewer.opts))
	}
	if e.Minimap && m.viewer.mini.show {
		cmds = append(cmds, fetchCmd(m.client, m.treeID, m.viewer.minimapRequest(), m.viewer.opts))
	}
	if e.Debounce != 0 {
		cmds = append(cmds, m.viewer.debounce.tick(e.Debounce))
	}
	return tea.Batch(cmds...)
}

// treeCmd runs a server command and reports back with commandDoneMsg.
func (m model) treeCmd(command string, params ...any) tea.Cmd {
	client, treeID := m.client, m.treeID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		message, err := client.Command(ctx, treeID, command, params...)
		return commandDoneMsg{command: command, message: message, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		first := m.width == 0
		m.width = msg.Width
		m.height = msg.Height
		e := m.viewer.Dispatch(Resize{Size: m.viewSize()})
		if first {
			m.viewer.fit()
			e = e.merge(Effect{Minimap: true})
		}
		if m.mode == ModeLoading {
			return m, nil
		}
		return m, m.run(e)

	case treeInfoMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			log.Printf("smartview: %v", msg.err)
			return m, nil
		}
		m.totalNodes, m.totalLeaves = msg.count.Nodes, msg.count.Leaves
		m.viewer.setTreeSize(msg.size, msg.refit)
		if m.shared != nil {
			if err := m.shared.apply(m.viewer.view, m.viewer.size); err != nil {
				m.errorMessage = err.Error()
			}
			m.viewer.placeMinimap()
			m.shared = nil
		}
		m.mode = ModeNormal
		return m, m.run(Effect{Redraw: true, Minimap: true})

	case drawnMsg:
		if err := m.viewer.install(msg); err != nil {
			if errors.Is(err, ErrStale) {
				return m, nil
			}
			log.Printf("smartview: draw failed: %v", err)
			m.errorMessage = err.Error()
			return m, nil
		}
		if !msg.req.minimap {
			m.errorMessage = ""
		}
		return m, nil

	case debounceMsg:
		return m, m.run(m.viewer.fire(msg.token))

	case commandDoneMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("%s: %v", msg.command, msg.err)
			return m, nil
		}
		m.statusMessage = msg.message
		if m.statusMessage == "" {
			m.statusMessage = msg.command + " done"
		}
		if msg.command == CommandRemove || msg.command == CommandRootAt {
			m.viewer.apply(Select{""})
		}
		return m, m.loadTreeInfo(false)

	case searchDoneMsg:
		if msg.err != nil {
			m.viewer.apply(RemoveSearch{msg.text})
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		for i := range m.viewer.view.Searches {
			s := &m.viewer.view.Searches[i]
			if s.Text == msg.text {
				s.NResults, s.NParents = msg.result.NResults, msg.result.NParents
			}
		}
		m.statusMessage = fmt.Sprintf("%q: %d results, %d parents", msg.text, msg.result.NResults, msg.result.NParents)
		return m, m.run(m.viewer.redraw())

	case statusMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		} else {
			m.statusMessage = msg.text
		}
		return m, nil

	case tea.MouseMsg:
		if m.mode != ModeNormal || m.help {
			return m, nil
		}
		return m, m.run(m.handleMouse(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleMouse maps terminal mouse events to pointer events at the centre of
// the cell under the mouse.
func (m *model) handleMouse(msg tea.MouseMsg) Effect {
	at := m.cellToPixel(msg.X, msg.Y)
	switch msg.Type {
	case tea.MouseLeft:
		if m.viewer.drag.active() {
			return m.viewer.Dispatch(PointerMove{At: at})
		}
		return m.viewer.Dispatch(PointerDown{At: at})
	case tea.MouseMotion:
		return m.viewer.Dispatch(PointerMove{At: at})
	case tea.MouseRelease:
		return m.viewer.Dispatch(PointerUp{At: at})
	case tea.MouseWheelUp:
		return m.viewer.Dispatch(Wheel{At: at, Steps: 1, Ctrl: msg.Ctrl, Alt: msg.Alt})
	case tea.MouseWheelDown:
		return m.viewer.Dispatch(Wheel{At: at, Steps: -1, Ctrl: msg.Ctrl, Alt: msg.Alt})
	}
	return Effect{}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.help {
		switch msg.String() {
		case "esc", "q", "?":
			m.help = false
			m.helpScroll = 0
		case "j", "down":
			if m.helpScroll < len(helpLines)-1 {
				m.helpScroll++
			}
		case "k", "up":
			if m.helpScroll > 0 {
				m.helpScroll--
			}
		}
		return m, nil
	}

	switch m.mode {
	case ModeLoading:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case ModeSearch:
		switch msg.Type {
		case tea.KeyEscape:
			m.mode = ModeNormal
			m.searchText = ""
		case tea.KeyEnter:
			m.mode = ModeNormal
			text := m.searchText
			m.searchText = ""
			return m, m.search(text)
		case tea.KeyBackspace:
			if r := []rune(m.searchText); len(r) > 0 {
				m.searchText = string(r[:len(r)-1])
			}
		case tea.KeyRunes, tea.KeySpace:
			m.searchText += cleanInput(string(msg.Runes))
		}
		return m, nil

	case ModeConfirm:
		switch msg.String() {
		case "y", "Y":
			m.mode = ModeNormal
			switch m.confirmAction {
			case ConfirmQuit:
				return m, tea.Quit
			case ConfirmRemoveNode:
				return m, m.nodeCommand(CommandRemove)
			}
		case "n", "N", "esc":
			m.mode = ModeNormal
		}
		return m, nil
	}

	m.errorMessage = ""
	m.statusMessage = ""
	if e, ok := m.viewer.handleNavigation(msg.String()); ok {
		return m, m.run(e)
	}

	switch msg.String() {
	case "q":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmQuit
	case "?":
		m.help = true
	case "esc":
		m.viewer.selectNode("")
	case "/":
		m.mode = ModeSearch
		m.searchText = ""
	case "\\":
		m.viewer.apply(RemoveSearch{""})
		return m, tea.Batch(m.removeSearches(), m.run(m.viewer.redraw()))
	case "m":
		m.viewer.mini.show = !m.viewer.mini.show
		return m, m.run(Effect{Minimap: true})
	case "t":
		if m.viewer.view.Selected != "" {
			m.viewer.change(ToggleTag{m.viewer.view.Selected})
			m.viewer.recolor()
		}
	case "x":
		if m.viewer.view.Selected != "" && m.viewer.change(ToggleCollapse{m.viewer.view.Selected}) {
			return m, m.run(m.viewer.redraw())
		}
	case "R":
		return m, m.nodeCommand(CommandRootAt)
	case "o":
		return m, m.nodeCommand(CommandSort)
	case "D":
		if m.viewer.view.Selected == "" {
			m.errorMessage = "no node selected"
			return m, nil
		}
		m.mode = ModeConfirm
		m.confirmAction = ConfirmRemoveNode
	case "y":
		if err := writeClipboardText(m.shareURL()); err != nil {
			m.errorMessage = fmt.Sprintf("failed to copy url: %v", err)
		} else {
			m.statusMessage = "view url copied"
		}
	case "Y":
		return m, m.copyNewick()
	case "s":
		m.export(".svg", m.exportSVG)
	case "S":
		m.export(".png", m.exportPNG)
	}
	return m, nil
}

// nodeCommand runs command on the selected node. The node is sent as its
// child-index path.
func (m *model) nodeCommand(command string) tea.Cmd {
	id := m.viewer.view.Selected
	if id == "" {
		m.errorMessage = "no node selected"
		return nil
	}
	path, err := parseNodeID(id)
	if err != nil {
		m.errorMessage = err.Error()
		return nil
	}
	m.statusMessage = command + "..."
	return m.treeCmd(command, nodeParams(command, path)...)
}

func nodeParams(command string, path []int) []any {
	if command == CommandSort {
		return []any{path, "name", false}
	}
	params := make([]any, len(path))
	for i, idx := range path {
		params[i] = idx
	}
	return params
}

// search adds the search locally so its color shows at once, then asks the
// server for the result counts.
func (m *model) search(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		m.errorMessage = ErrEmptySearch.Error()
		return nil
	}
	if !m.viewer.change(AddSearch{Search{Text: text}}) {
		m.errorMessage = "search rejected"
		return nil
	}
	client, treeID := m.client, m.treeID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		res, err := client.Search(ctx, treeID, text)
		return searchDoneMsg{text: text, result: res, err: err}
	}
}

func (m model) removeSearches() tea.Cmd {
	client, treeID := m.client, m.treeID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		err := client.RemoveSearch(ctx, treeID, "")
		return statusMsg{text: "searches cleared", err: err}
	}
}

func (m model) copyNewick() tea.Cmd {
	client, treeID := m.client, m.treeID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		newick, err := client.Newick(ctx, treeID)
		if err != nil {
			return statusMsg{err: err}
		}
		if err := writeClipboardText(newick); err != nil {
			return statusMsg{err: fmt.Errorf("failed to copy newick: %w", err)}
		}
		return statusMsg{text: fmt.Sprintf("newick copied (%d bytes)", len(newick))}
	}
}

func (m *model) export(ext string, write func(string) error) {
	if m.viewer.scene == nil {
		m.errorMessage = "nothing drawn yet"
		return
	}
	name := fmt.Sprintf("%s-%s%s", safeName(m.treeID), time.Now().Format("20060102-150405"), ext)
	path := m.config.GetSavePath(name)
	if err := write(path); err != nil {
		m.errorMessage = fmt.Sprintf("export failed: %v", err)
		return
	}
	m.statusMessage = "saved " + filepath.Base(path)
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == ' ' {
			return '_'
		}
		return r
	}, s)
}
