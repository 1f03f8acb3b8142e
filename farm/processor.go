// Package farm is the greenhouse control loop. It turns climate, soil, light
// and water events into heater, vent, pump and grow light decisions and
// drives the status lamps.
package farm

import (
	"log/slog"

	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
)

// Actuators is the part of the relay owner the loop drives. *relays.Relays
// implements it.
type Actuators interface {
	Direction() relays.Direction
	Command(relays.Direction)
	Heater() bool
	SetHeater(bool)
	Light() bool
	SetLight(bool)
	Pump() bool
	SetPump(bool)
}

// Lamp is one status indicator.
type Lamp interface {
	Set(on bool)
}

// Indicators are the panel lamps: red follows the heater, green warns of low
// water and blue shows the pump is allowed to run. Nil lamps are skipped.
type Indicators struct {
	Red   Lamp
	Green Lamp
	Blue  Lamp
}

func (i Indicators) set(l Lamp, on bool) {
	if l != nil {
		l.Set(on)
	}
}

const (
	soilSensors   = 3
	lowWaterLevel = 15 // %
)

// Status is a read-only view of the loop's inputs and decisions.
type Status struct {
	Inside        sensors.ClimateEvent          `json:"inside"`
	Outside       sensors.ClimateEvent          `json:"outside"`
	HasInside     bool                          `json:"has_inside"`
	HasOutside    bool                          `json:"has_outside"`
	Soil          [soilSensors]sensors.Moisture `json:"soil"`
	Light         uint8                         `json:"light"`
	Water         uint8                         `json:"water"`
	PumpEligible  bool                          `json:"pump_eligible"`
	LightEligible bool                          `json:"light_eligible"`
	LowWater      bool                          `json:"low_water"`
}

type Processor struct {
	act Actuators
	ind Indicators
	now func() uint64

	tempSetpoint float32
	tempHys      float32
	humSetpoint  float32
	humHys       float32

	pumpCount    uint8
	pumpSetpoint int // index into sensors.Bands
	pumpRun      uint8
	pumpInterval uint8

	lightThreshold uint8
	lightHys       uint8
	ledRun         uint16
	ledInterval    uint16

	inside, outside       sensors.ClimateEvent
	hasInside, hasOutside bool

	soil          [soilSensors]sensors.Moisture
	light, water  uint8
	pumpEligible  bool
	lightEligible bool
	lowWater      bool

	pump DutyCycle
	led  DutyCycle
}

func NewProcessor(act Actuators, ind Indicators, now func() uint64) *Processor {
	return &Processor{
		act: act,
		ind: ind,
		now: now,

		tempSetpoint: 24,
		tempHys:      2,
		humSetpoint:  55,
		humHys:       5,

		pumpCount:    2,
		pumpSetpoint: sensors.DrySoil.Band(),
		pumpRun:      10,
		pumpInterval: 10,

		lightThreshold: 55,
		lightHys:       10,
		ledRun:         120,
		ledInterval:    120,
	}
}

// OnClimate records a sample. Heater and vent are re-derived on every Update
// from the latest inside and outside samples.
func (p *Processor) OnClimate(e sensors.ClimateEvent) {
	switch e.Place {
	case sensors.Inside:
		p.inside, p.hasInside = e, true
	case sensors.Outside:
		p.outside, p.hasOutside = e, true
	}
}

func (p *Processor) OnSoil(e sensors.SoilEvent) {
	if e.ID < 0 || e.ID >= soilSensors {
		slog.Warn("soil event from unknown sensor", "sensor", e.ID)
		return
	}
	p.soil[e.ID] = e.State
	p.checkSoil()
	p.Update()
}

func (p *Processor) OnLevel(e sensors.LevelEvent) {
	switch e.Kind {
	case sensors.LightLevel:
		p.light = e.Level
		level := int(e.Level)
		if level < int(p.lightThreshold)-int(p.lightHys) {
			p.lightEligible = true
		} else if level > int(p.lightThreshold)+int(p.lightHys) {
			p.lightEligible = false
		}
		p.Update()
	case sensors.WaterLevel:
		p.water = e.Level
		p.lowWater = e.Level <= lowWaterLevel
		p.ind.set(p.ind.Green, p.lowWater)
	}
}

// checkSoil counts the sensors at or beyond the dryness setpoint. Until all
// of them have reported the pump stays ineligible.
func (p *Processor) checkSoil() {
	eligible := false
	if p.soilReady() {
		setpoint := sensors.Bands[p.pumpSetpoint]
		count := 0
		for _, s := range p.soil {
			if s >= setpoint {
				count++
			}
		}
		eligible = count >= int(p.pumpCount)
	}
	if eligible != p.pumpEligible {
		slog.Info("pump eligibility changed", "eligible", eligible, "soil", p.soil)
	}
	p.pumpEligible = eligible
	p.ind.set(p.ind.Blue, eligible)
}

func (p *Processor) soilReady() bool {
	for _, s := range p.soil {
		if s == sensors.Uninitialized {
			return false
		}
	}
	return true
}

// Update runs one tick of the loop.
func (p *Processor) Update() {
	p.regulateClimate()

	now := p.now()
	if on, drive := p.pump.Step(now, p.pumpEligible, uint64(p.pumpRun)*1000, uint64(p.pumpInterval)*1000); drive {
		p.act.SetPump(on)
	}
	if on, drive := p.led.Step(now, p.lightEligible, uint64(p.ledRun)*60*1000, uint64(p.ledInterval)*60*1000); drive {
		p.act.SetLight(on)
	}
}

func (p *Processor) regulateClimate() {
	if !p.hasInside {
		return
	}
	temp, hum := p.inside.Temperature, p.inside.Humidity
	low, high := p.tempSetpoint-p.tempHys, p.tempSetpoint+p.tempHys

	heater := p.act.Heater()
	if heater && temp > high {
		heater = false
	} else if !heater && temp < low {
		heater = true
	}
	p.act.SetHeater(heater)
	p.ind.set(p.ind.Red, heater)

	if !p.hasOutside {
		return
	}
	if d := p.ventDirection(temp, hum, p.outside.Temperature); d != relays.Unknown {
		p.act.Command(d)
	}
}

// ventDirection returns the new vent command, or Unknown to leave the vent
// alone.
func (p *Processor) ventDirection(temp, hum, out float32) relays.Direction {
	low, high := p.tempSetpoint-p.tempHys, p.tempSetpoint+p.tempHys
	humHigh := p.humSetpoint + p.humHys

	current := p.act.Direction()
	switch {
	case current.Opening():
		if (out > high && hum < humHigh) || (temp < low && out < high) {
			return relays.Close
		}
	case current.Closing():
		if (hum > humHigh && out > low) || (temp > high && out > low) || (temp < low && out > high) {
			return relays.Open
		}
	default:
		// No known end position yet.
		return relays.Close
	}
	return relays.Unknown
}

func (p *Processor) Status() Status {
	return Status{
		Inside:        p.inside,
		Outside:       p.outside,
		HasInside:     p.hasInside,
		HasOutside:    p.hasOutside,
		Soil:          p.soil,
		Light:         p.light,
		Water:         p.water,
		PumpEligible:  p.pumpEligible,
		LightEligible: p.lightEligible,
		LowWater:      p.lowWater,
	}
}
