package encoder

import "furitingoasis/greenhouse/bus"

// TurnEvent reports the detents turned since the previous poll.
type TurnEvent struct {
	Position int32 `json:"position"`
	Delta    int16 `json:"delta"`
	Right    bool  `json:"right"`
}

type Subscriber interface {
	OnTurn(TurnEvent)
	OnPress()
}

// Encoder moves what the edge handlers recorded into the poll loop.
type Encoder struct {
	state   *State
	turns   bus.Feed[TurnEvent]
	presses bus.Feed[struct{}]
}

func New(state *State) *Encoder {
	e := &Encoder{state: state}
	e.turns.Name = "encoder turn"
	e.presses.Name = "encoder press"
	return e
}

func (e *Encoder) Subscribe(s Subscriber) {
	e.turns.Subscribe(s.OnTurn)
	e.presses.Subscribe(func(struct{}) { s.OnPress() })
}

// Update publishes a pending turn, then a pending press.
func (e *Encoder) Update() {
	if snap, ok := e.state.Take(); ok && snap.Delta != 0 {
		e.turns.Publish(TurnEvent(snap))
	}
	if e.state.TakePress() {
		e.presses.Publish(struct{}{})
	}
}
