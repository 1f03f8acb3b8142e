// Package menu is the encoder driven settings menu. The tree is an arena of
// nodes addressed by index; leaves name the tunable they edit by key.
package menu

// ID addresses a node in its Tree.
type ID int

const (
	// Root is the main menu.
	Root ID = 0
	// None is the parent of Root.
	None ID = -1
)

type Node struct {
	Title    string
	Key      string // tunable key of a leaf
	Parent   ID
	Children []ID
	// Live leaves write every step straight through.
	Live bool

	back bool
}

// Back reports whether the node is the "back" entry of its submenu.
func (n Node) Back() bool { return n.back }

func (n Node) Submenu() bool { return n.Children != nil }

const BackTitle = "Back"

type Tree struct {
	nodes []Node
}

// NewTree returns a tree holding only the main menu.
func NewTree(title string) *Tree {
	t := &Tree{}
	t.push(Node{Title: title, Parent: None})
	back := t.push(Node{Title: BackTitle, Parent: Root, back: true})
	t.nodes[Root].Children = []ID{back}
	return t
}

func (t *Tree) push(n Node) ID {
	t.nodes = append(t.nodes, n)
	return ID(len(t.nodes) - 1)
}

// Submenu adds a child menu under parent. Its first child is the back entry.
func (t *Tree) Submenu(parent ID, title string) ID {
	id := t.push(Node{Title: title, Parent: parent})
	back := t.push(Node{Title: BackTitle, Parent: id, back: true})
	t.nodes[id].Children = []ID{back}
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

// Leaf adds an editable entry under parent.
func (t *Tree) Leaf(parent ID, title, key string, live bool) ID {
	id := t.push(Node{Title: title, Key: key, Parent: parent, Live: live})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

func (t *Tree) Node(id ID) Node {
	return t.nodes[id]
}

func (t *Tree) Len() int { return len(t.nodes) }

// Keys lists the tunable keys of every leaf in tree order.
func (t *Tree) Keys() []string {
	var keys []string
	for _, n := range t.nodes {
		if n.Key != "" {
			keys = append(keys, n.Key)
		}
	}
	return keys
}

// Default builds the greenhouse menu.
func Default() *Tree {
	t := NewTree("Main menu")

	manual := t.Submenu(Root, "Manual mode")
	t.Leaf(manual, "Vent", "vent.direction", true)
	t.Leaf(manual, "Grow light", "led", true)
	t.Leaf(manual, "Pump", "pump", true)
	t.Leaf(manual, "Heater", "heater", true)

	settings := t.Submenu(Root, "Settings")

	relays := t.Submenu(settings, "Relays")
	t.Leaf(relays, "Switch delay", "relays.delay", false)
	t.Leaf(relays, "Max run", "relays.max_run", false)

	climate := t.Submenu(settings, "Temp & humidity")
	t.Leaf(climate, "Temp setpoint", "temp.setpoint", false)
	t.Leaf(climate, "Temp hysteresis", "temp.hys", false)
	t.Leaf(climate, "Hum setpoint", "hum.setpoint", false)
	t.Leaf(climate, "Hum hysteresis", "hum.hys", false)

	pump := t.Submenu(settings, "Pump")
	t.Leaf(pump, "Agreeing sensors", "pump.count", false)
	t.Leaf(pump, "Dryness", "pump.setpoint", false)
	t.Leaf(pump, "Run time", "pump.run", false)
	t.Leaf(pump, "Interval", "pump.interval", false)

	led := t.Submenu(settings, "Grow light")
	t.Leaf(led, "Light threshold", "led.threshold", false)
	t.Leaf(led, "Light hysteresis", "led.hys", false)
	t.Leaf(led, "Run time", "led.run", false)
	t.Leaf(led, "Interval", "led.interval", false)

	sensors := t.Submenu(settings, "Sensors")
	for _, soil := range []struct{ title, key string }{
		{"Soil 1", "soil1"},
		{"Soil 2", "soil2"},
		{"Soil 3", "soil3"},
	} {
		s := t.Submenu(sensors, soil.title)
		t.Leaf(s, "Read delay", soil.key+".delay", false)
		t.Leaf(s, "Hysteresis", soil.key+".hys", false)
	}
	t.Leaf(sensors, "Inside delay", "climate_in.delay", false)
	t.Leaf(sensors, "Outside delay", "climate_out.delay", false)
	t.Leaf(sensors, "Water delay", "water.delay", false)
	t.Leaf(sensors, "Light delay", "light.delay", false)

	return t
}
