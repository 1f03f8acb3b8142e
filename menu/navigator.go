package menu

import (
	"log/slog"

	"furitingoasis/greenhouse/encoder"
	"furitingoasis/greenhouse/param"
)

const (
	// Visible is how many menu rows fit on the panel.
	Visible = 4
	// Screens is the number of status pages cycled outside the menu.
	Screens = 5
)

// Resolver finds the tunable a leaf edits.
type Resolver func(key string) (param.Param, bool)

// View is what a renderer draws.
type View struct {
	Home   bool `json:"home"`
	Screen int  `json:"screen"`

	Title  string   `json:"title,omitempty"`
	Rows   []string `json:"rows,omitempty"`
	Cursor int      `json:"cursor"`
	Top    int      `json:"top"`

	Editing bool   `json:"editing"`
	Value   string `json:"value,omitempty"`
}

// Navigator walks a Tree from encoder input. Outside the menu turning cycles
// the status screens and a press enters the main menu.
type Navigator struct {
	tree    *Tree
	resolve Resolver

	home    bool
	screen  int
	current ID
	index   int

	leaf   ID
	editor *param.Editor
}

func NewNavigator(tree *Tree, resolve Resolver) *Navigator {
	return &Navigator{tree: tree, resolve: resolve, home: true, current: Root}
}

func (n *Navigator) OnTurn(e encoder.TurnEvent) {
	steps := int(e.Delta)
	switch {
	case n.editor != nil:
		n.editor.Step(steps)
	case n.home:
		n.screen = wrap(n.screen+steps, Screens)
	default:
		n.index = wrap(n.index+steps, len(n.tree.Node(n.current).Children))
	}
}

func (n *Navigator) OnPress() {
	switch {
	case n.editor != nil:
		n.leave()
	case n.home:
		n.home = false
		n.enter(Root)
	default:
		id := n.tree.Node(n.current).Children[n.index]
		node := n.tree.Node(id)
		switch {
		case node.Back():
			n.up()
		case node.Submenu():
			n.enter(id)
		default:
			n.edit(id, node)
		}
	}
}

func (n *Navigator) enter(id ID) {
	n.current, n.index = id, 0
}

func (n *Navigator) up() {
	parent := n.tree.Node(n.current).Parent
	if parent == None {
		n.home = true
		n.current, n.index = Root, 0
		return
	}
	n.enter(parent)
}

func (n *Navigator) edit(id ID, node Node) {
	p, ok := n.resolve(node.Key)
	if !ok {
		slog.Warn("menu entry has no tunable", "key", node.Key)
		return
	}
	n.leaf = id
	n.editor = param.NewEditor(p, node.Live)
}

// leave confirms the edit. A Bool falls back to off, so manual outputs only
// run while their editor is open.
func (n *Navigator) leave() {
	if _, ok := n.editor.Param().(param.BoolParam); ok {
		n.editor.Cancel()
	} else {
		n.editor.Commit()
	}
	n.editor = nil
}

// Editing returns the key of the open editor.
func (n *Navigator) Editing() (string, bool) {
	if n.editor == nil {
		return "", false
	}
	return n.tree.Node(n.leaf).Key, true
}

func (n *Navigator) View() View {
	if n.home {
		return View{Home: true, Screen: n.screen}
	}
	if n.editor != nil {
		return View{Title: n.tree.Node(n.leaf).Title, Editing: true, Value: n.editor.Text()}
	}
	node := n.tree.Node(n.current)
	v := View{
		Title:  node.Title,
		Cursor: n.index,
		Top:    Top(n.index, Visible),
	}
	for _, id := range node.Children {
		v.Rows = append(v.Rows, n.tree.Node(id).Title)
	}
	return v
}

// Top is the first visible row that keeps cursor on a panel of rows lines.
func Top(cursor, rows int) int {
	if cursor < rows {
		return 0
	}
	return cursor - (rows - 1)
}

func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
