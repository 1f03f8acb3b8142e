package relays

import "furitingoasis/greenhouse/param"

// modeCommands are the actuator commands by descriptor index.
var modeCommands = []Direction{Close, Open, Finished}

var (
	directionDesc = param.Choice[*Relays]{
		Access: func(r *Relays, v *int) int {
			if v != nil {
				r.Command(modeCommands[*v])
			}
			return r.mode()
		},
		Labels: []string{"close", "open", "stop"},
	}

	heaterDesc = param.Toggle[*Relays]{
		Access: func(r *Relays, v *bool) bool {
			if v != nil {
				r.SetHeater(*v)
			}
			return r.heater
		},
		On: "ON", Off: "OFF",
	}

	lightDesc = param.Toggle[*Relays]{
		Access: func(r *Relays, v *bool) bool {
			if v != nil {
				r.SetLight(*v)
			}
			return r.light
		},
		On: "ON", Off: "OFF",
	}

	pumpDesc = param.Toggle[*Relays]{
		Access: func(r *Relays, v *bool) bool {
			if v != nil {
				r.SetPump(*v)
			}
			return r.pump
		},
		On: "ON", Off: "OFF",
	}

	relayDelayDesc = param.Numeric[*Relays, uint8]{
		Access: func(r *Relays, v *uint8) uint8 {
			if v != nil {
				r.relayDelay = *v
			}
			return r.relayDelay
		},
		Range: param.Range[uint8]{Min: 25, Max: 255, Step: 1, Unit: "ms"},
	}

	maxRunDesc = param.Numeric[*Relays, uint8]{
		Access: func(r *Relays, v *uint8) uint8 {
			if v != nil {
				r.maxRun = *v
			}
			return r.maxRun
		},
		Range: param.Range[uint8]{Min: 1, Max: 255, Step: 1, Unit: "min"},
	}
)

// DirectionParam selects the actuator command: close, open or stop. A vent
// at rest or with no known end reads as stop.
func (r *Relays) DirectionParam() param.EnumParam { return directionDesc.Bind(r) }

func (r *Relays) HeaterParam() param.BoolParam { return heaterDesc.Bind(r) }

func (r *Relays) LightParam() param.BoolParam { return lightDesc.Bind(r) }

func (r *Relays) PumpParam() param.BoolParam { return pumpDesc.Bind(r) }

func (r *Relays) RelayDelayParam() param.NumericParam[uint8] { return relayDelayDesc.Bind(r) }

// MaxRunParam caps one actuator movement, in minutes.
func (r *Relays) MaxRunParam() param.NumericParam[uint8] { return maxRunDesc.Bind(r) }

func (r *Relays) mode() int {
	if r.current == Finished {
		return 2
	}
	switch r.commanded {
	case Close:
		return 0
	case Open:
		return 1
	}
	return 2
}
