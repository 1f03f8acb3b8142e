// Package relays owns every physical output of the greenhouse: the vent
// actuator's run and direction relays, and the heater, grow light and pump.
//
// The actuator is reversed in steps, one relay action per tick with a settle
// delay after each: stop the motor, flip the direction relay, start the
// motor. The run relay and the direction relay are therefore never switched
// within the same tick. A running motor is stopped once the maximum run time
// elapses and the direction then resolves to finished-open or
// finished-close.
package relays

import (
	"log/slog"

	"furitingoasis/greenhouse/bus"
)

// Output is one relay channel. gobot's gpio.RelayDriver satisfies it.
type Output interface {
	On() error
	Off() error
	State() bool
}

// Outputs groups the channels. Direction is energised for open.
type Outputs struct {
	Run       Output
	Direction Output
	Pump      Output
	Light     Output
	Heater    Output
}

// State is the snapshot published after any output changed.
type State struct {
	Direction Direction `json:"direction"`
	Motor     bool      `json:"motor"`
	Light     bool      `json:"light"`
	Heater    bool      `json:"heater"`
	Pump      bool      `json:"pump"`
}

type Subscriber interface {
	OnRelays(State)
}

const (
	defaultRelayDelay = 50 // ms
	defaultMaxRun     = 30 // min
)

type Relays struct {
	out Outputs
	now func() uint64

	// commanded is what was asked for and what readers see. current is the
	// direction the motor was last started in, Unknown while a new command
	// is being worked towards, Finished while stopping.
	commanded Direction
	current   Direction

	lastAction uint64
	delay      uint64

	// runUntil is the max run deadline of the movement in progress. lastRun
	// is the direction the motor was last started in, Unknown before any.
	running  bool
	runUntil uint64
	lastRun  Direction

	relayDelay uint8
	maxRun     uint8

	pump   bool
	light  bool
	heater bool

	dirty bool
	feed  bus.Feed[State]
}

func New(out Outputs, now func() uint64) *Relays {
	r := &Relays{
		out:        out,
		now:        now,
		commanded:  Unknown,
		current:    Unknown,
		lastRun:    Unknown,
		relayDelay: defaultRelayDelay,
		maxRun:     defaultMaxRun,
	}
	r.feed.Name = "relays"
	return r
}

func (r *Relays) Subscribe(s Subscriber) {
	r.feed.Subscribe(s.OnRelays)
}

// Reset drives every output off. It is called once the outputs are connected.
func (r *Relays) Reset() {
	for name, o := range r.channels() {
		if err := o.Off(); err != nil {
			slog.Error("relay reset failed", "relay", name, "error", err)
		}
	}
	r.pump, r.light, r.heater = false, false, false
	r.dirty = true
}

func (r *Relays) channels() map[string]Output {
	return map[string]Output{
		"run":       r.out.Run,
		"direction": r.out.Direction,
		"pump":      r.out.Pump,
		"light":     r.out.Light,
		"heater":    r.out.Heater,
	}
}

// Update advances the actuator by at most one relay action and publishes a
// snapshot if anything changed since the last tick.
func (r *Relays) Update() {
	now := r.now()
	switch {
	case !r.settled(now):
	case r.commanded != r.current:
		r.advance(now)
	case r.running && now >= r.runUntil:
		slog.Warn("actuator reached maximum run time", "direction", r.current, "minutes", r.maxRun)
		r.stop(now)
	}

	if r.dirty {
		r.dirty = false
		r.feed.Publish(r.State())
	}
}

func (r *Relays) advance(now uint64) {
	open := r.commanded == Open
	switch {
	case r.current == Finished:
		r.commanded = r.resolved()
		r.current = r.commanded
		r.dirty = true
	case r.out.Run.State():
		r.switchRelay("run", r.out.Run, false)
		r.running = false
		r.arm(now, uint64(r.relayDelay))
	case r.out.Direction.State() != open:
		r.switchRelay("direction", r.out.Direction, open)
		r.arm(now, uint64(r.relayDelay))
	default:
		r.arm(now, uint64(r.relayDelay))
		if !r.switchRelay("run", r.out.Run, true) {
			return
		}
		r.running = true
		r.runUntil = now + uint64(r.maxRun)*60*1000
		r.lastRun = r.commanded
		r.current = r.commanded
	}
}

// resolved is where a stopped vent came to rest: the side of the last
// movement, or Unknown if the motor never ran.
func (r *Relays) resolved() Direction {
	switch r.lastRun {
	case Open:
		return FinishedOpen
	case Close:
		return FinishedClose
	}
	return Unknown
}

// stop de-energises the motor only. The direction relay is left where it
// is so the stop never shares a tick with a direction change.
func (r *Relays) stop(now uint64) {
	r.switchRelay("run", r.out.Run, false)
	r.running = false
	r.arm(now, uint64(r.relayDelay))
	r.current = Finished
	r.dirty = true
}

func (r *Relays) arm(now, delay uint64) {
	r.lastAction = now
	r.delay = delay
}

func (r *Relays) settled(now uint64) bool {
	return now-r.lastAction >= r.delay
}

func (r *Relays) switchRelay(name string, o Output, on bool) bool {
	var err error
	if on {
		err = o.On()
	} else {
		err = o.Off()
	}
	if err != nil {
		slog.Error("relay write failed", "relay", name, "on", on, "error", err)
		return false
	}
	r.dirty = true
	return true
}

// Command asks for a new actuator movement. Close and Open start a
// reversal sequence, Finished stops the motor where it is. Anything else is
// ignored.
func (r *Relays) Command(d Direction) {
	switch d {
	case Close, Open:
		if r.commanded == d && (r.current == d || r.current == Unknown) {
			return
		}
		slog.Info("actuator commanded", "direction", d, "was", r.commanded)
		r.commanded = d
		r.current = Unknown
	case Finished:
		if r.current == Finished || (!r.running && r.commanded == r.current) {
			return
		}
		slog.Info("actuator stop requested", "direction", r.commanded)
		r.stop(r.now())
	}
}

func (r *Relays) Direction() Direction { return r.commanded }

// Moving reports whether the run relay is energised.
func (r *Relays) Moving() bool { return r.out.Run.State() }

func (r *Relays) Heater() bool { return r.heater }

func (r *Relays) Light() bool { return r.light }

func (r *Relays) Pump() bool { return r.pump }

func (r *Relays) SetHeater(on bool) {
	r.setOutput("heater", r.out.Heater, &r.heater, on)
}

func (r *Relays) SetLight(on bool) {
	r.setOutput("light", r.out.Light, &r.light, on)
}

func (r *Relays) SetPump(on bool) {
	r.setOutput("pump", r.out.Pump, &r.pump, on)
}

func (r *Relays) setOutput(name string, o Output, state *bool, on bool) {
	if *state == on {
		return
	}
	if r.switchRelay(name, o, on) {
		*state = on
	}
}

func (r *Relays) State() State {
	return State{
		Direction: r.commanded,
		Motor:     r.out.Run.State(),
		Light:     r.light,
		Heater:    r.heater,
		Pump:      r.pump,
	}
}
