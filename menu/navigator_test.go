package menu

import (
	"testing"

	"furitingoasis/greenhouse/encoder"
	"furitingoasis/greenhouse/param"
)

type knobs struct {
	pump  bool
	delay uint8
}

var (
	pumpDesc = param.Toggle[*knobs]{
		Access: func(k *knobs, v *bool) bool {
			if v != nil {
				k.pump = *v
			}
			return k.pump
		},
		On:  "ON",
		Off: "OFF",
	}
	delayDesc = param.Numeric[*knobs, uint8]{
		Access: func(k *knobs, v *uint8) uint8 {
			if v != nil {
				k.delay = *v
			}
			return k.delay
		},
		Range: param.Range[uint8]{Min: 25, Max: 255, Step: 1, Unit: "ms"},
	}
)

func newTestNavigator() (*Navigator, *knobs) {
	k := &knobs{delay: 50}
	t := NewTree("Main")
	manual := t.Submenu(Root, "Manual")
	t.Leaf(manual, "Pump", "pump", true)
	settings := t.Submenu(Root, "Settings")
	t.Leaf(settings, "Delay", "delay", false)
	t.Leaf(settings, "Missing", "missing", false)

	resolve := func(key string) (param.Param, bool) {
		switch key {
		case "pump":
			return pumpDesc.Bind(k), true
		case "delay":
			return delayDesc.Bind(k), true
		}
		return nil, false
	}
	return NewNavigator(t, resolve), k
}

func turn(n *Navigator, d int16) {
	n.OnTurn(encoder.TurnEvent{Delta: d, Right: d > 0})
}

func TestHomeScreensWrap(t *testing.T) {
	n, _ := newTestNavigator()
	turn(n, -1)
	if v := n.View(); !v.Home || v.Screen != Screens-1 {
		t.Fatalf("expected last screen, got %+v", v)
	}
	turn(n, 1)
	if v := n.View(); v.Screen != 0 {
		t.Errorf("expected first screen, got %d", v.Screen)
	}
}

func TestBackIsFirstChild(t *testing.T) {
	tree := Default()
	for id := ID(0); int(id) < tree.Len(); id++ {
		node := tree.Node(id)
		if !node.Submenu() {
			continue
		}
		if first := tree.Node(node.Children[0]); !first.Back() {
			t.Errorf("%q: expected back as first child, got %q", node.Title, first.Title)
		}
	}
}

func TestNavigateAndReturnHome(t *testing.T) {
	n, _ := newTestNavigator()
	n.OnPress()
	if v := n.View(); v.Home || v.Title != "Main" {
		t.Fatalf("expected main menu, got %+v", v)
	}

	turn(n, 2)
	n.OnPress()
	if v := n.View(); v.Title != "Settings" || v.Cursor != 0 {
		t.Fatalf("expected settings at back, got %+v", v)
	}

	n.OnPress()
	if v := n.View(); v.Title != "Main" {
		t.Fatalf("expected back to main, got %+v", v)
	}

	n.OnPress()
	if v := n.View(); !v.Home {
		t.Errorf("expected back on main to leave the menu, got %+v", v)
	}
}

func TestCursorWraps(t *testing.T) {
	n, _ := newTestNavigator()
	n.OnPress()
	turn(n, -1)
	if v := n.View(); v.Cursor != 2 {
		t.Errorf("expected wrap to last row, got %d", v.Cursor)
	}
	turn(n, 1)
	if v := n.View(); v.Cursor != 0 {
		t.Errorf("expected wrap to back, got %d", v.Cursor)
	}
}

func TestEditCommitsOnPress(t *testing.T) {
	n, k := newTestNavigator()
	n.OnPress()
	turn(n, 2)
	n.OnPress()
	turn(n, 1)
	n.OnPress()
	if key, ok := n.Editing(); !ok || key != "delay" {
		t.Fatalf("expected delay editor, got %q", key)
	}

	turn(n, -26)
	if v := n.View(); v.Value != "255 ms" {
		t.Errorf("expected wrap to 255 ms, got %q", v.Value)
	}
	if k.delay != 50 {
		t.Fatal("expected no write before confirm")
	}

	n.OnPress()
	if k.delay != 255 {
		t.Errorf("expected 255 after confirm, got %d", k.delay)
	}
	if _, ok := n.Editing(); ok {
		t.Error("expected editor closed")
	}
}

func TestManualBoolRunsWhileEditing(t *testing.T) {
	n, k := newTestNavigator()
	n.OnPress()
	turn(n, 1)
	n.OnPress()
	turn(n, 1)
	n.OnPress()

	turn(n, 1)
	if !k.pump {
		t.Fatal("expected live write while editing")
	}
	n.OnPress()
	if k.pump {
		t.Error("expected pump off after leaving the editor")
	}
}

func TestMissingTunableStaysInMenu(t *testing.T) {
	n, _ := newTestNavigator()
	n.OnPress()
	turn(n, 2)
	n.OnPress()
	turn(n, 2)
	n.OnPress()
	if _, ok := n.Editing(); ok {
		t.Error("expected no editor for an unknown key")
	}
}

func TestTop(t *testing.T) {
	tests := []struct{ cursor, want int }{
		{0, 0},
		{3, 0},
		{4, 1},
		{7, 4},
	}
	for _, tc := range tests {
		if got := Top(tc.cursor, 4); got != tc.want {
			t.Errorf("Top(%d): expected %d, got %d", tc.cursor, tc.want, got)
		}
	}
}
