// Package encoder reads the rotary encoder that drives the menu.
//
// Edge handlers run on the gpio event goroutine, asynchronously to the poll
// loop. They only touch State, whose fields live in atomics; the poll loop
// side takes a consistent copy and clears the changed flag in one step.
package encoder

import "sync/atomic"

const (
	// PositionTimeout is how long the knob may rest before the next turn
	// restarts counting from zero.
	PositionTimeout = 5000 // ms

	// Debounce is the minimum gap between two accepted button presses.
	Debounce = 200 // ms
)

// word layout: position in bits 0-31, pending detents in bits 32-47, the
// last direction in bit 48 and the changed flag in bit 49.
const (
	pendingShift = 32
	rightBit     = 1 << 48
	changedBit   = 1 << 49
)

// Snapshot is what the poll loop sees of the knob.
type Snapshot struct {
	// Position counts detents since the last idle reset, right positive.
	Position int32
	// Delta is the detents turned since the previous Take.
	Delta int16
	// Right is the direction of the latest detent.
	Right bool
}

func pack(s Snapshot, changed bool) uint64 {
	w := uint64(uint32(s.Position)) | uint64(uint16(s.Delta))<<pendingShift
	if s.Right {
		w |= rightBit
	}
	if changed {
		w |= changedBit
	}
	return w
}

func unpack(w uint64) Snapshot {
	return Snapshot{
		Position: int32(uint32(w)),
		Delta:    int16(uint16(w >> pendingShift)),
		Right:    w&rightBit != 0,
	}
}

// State is shared between the edge handlers and the poll loop. The zero value
// is ready to use. It must not be copied after first use.
type State struct {
	word      atomic.Uint64
	lastTurn  atomic.Uint64
	lastPress atomic.Uint64 // ms+1 of the last accepted press, 0 before any
	pressed   atomic.Bool
}

// Turn records one detent at now.
func (s *State) Turn(right bool, now uint64) {
	prev := s.lastTurn.Swap(now)
	idle := now > prev && now-prev >= PositionTimeout
	for {
		old := s.word.Load()
		snap := unpack(old)
		if old&changedBit == 0 {
			snap.Delta = 0
		}
		if idle {
			snap.Position = 0
		}
		if right {
			snap.Position++
			snap.Delta++
		} else {
			snap.Position--
			snap.Delta--
		}
		snap.Right = right
		if s.word.CompareAndSwap(old, pack(snap, true)) {
			return
		}
	}
}

// Take returns the knob state and clears the changed flag. ok is false when
// nothing turned since the previous Take.
func (s *State) Take() (snap Snapshot, ok bool) {
	for {
		old := s.word.Load()
		if old&changedBit == 0 {
			return unpack(old), false
		}
		cleared := pack(Snapshot{Position: unpack(old).Position, Right: old&rightBit != 0}, false)
		if s.word.CompareAndSwap(old, cleared) {
			return unpack(old), true
		}
	}
}

// Press records a button press at now. It reports false for a bounce inside
// the debounce window.
func (s *State) Press(now uint64) bool {
	for {
		last := s.lastPress.Load()
		if last != 0 && now+1-last < Debounce {
			return false
		}
		if s.lastPress.CompareAndSwap(last, now+1) {
			s.pressed.Store(true)
			return true
		}
	}
}

// TakePress reports and clears a pending press.
func (s *State) TakePress() bool {
	return s.pressed.Swap(false)
}
