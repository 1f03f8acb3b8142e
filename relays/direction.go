package relays

import "fmt"

// Direction is the vent actuator's commanded or resolved movement.
type Direction int8

const (
	Unknown Direction = iota - 1
	Close
	Open
	Finished
	FinishedClose
	FinishedOpen
)

var directionNames = []string{"unknown", "close", "open", "finished", "finished-close", "finished-open"}

func (d Direction) String() string {
	if d < Unknown || d > FinishedOpen {
		return fmt.Sprintf("direction(%d)", int8(d))
	}
	return directionNames[d+1]
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Opening reports whether the vent is moving or came to rest open.
func (d Direction) Opening() bool {
	return d == Open || d == FinishedOpen
}

// Closing reports whether the vent is moving or came to rest closed.
func (d Direction) Closing() bool {
	return d == Close || d == FinishedClose
}

// ParseDirection accepts the names produced by String.
func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i - 1), true
		}
	}
	return Unknown, false
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", b)
	}
	*d = v
	return nil
}
