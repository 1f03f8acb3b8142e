package controller

import (
	"strconv"

	"furitingoasis/greenhouse/param"
)

// register builds the key table shared by the menu, the web API and MQTT.
func (c *Controller) register() {
	add := func(key string, p param.Param) {
		c.keys = append(c.keys, key)
		c.params[key] = p
	}

	add("vent.direction", c.relays.DirectionParam())
	add("led", c.relays.LightParam())
	add("pump", c.relays.PumpParam())
	add("heater", c.relays.HeaterParam())
	add("relays.delay", c.relays.RelayDelayParam())
	add("relays.max_run", c.relays.MaxRunParam())

	p := c.processor
	add("temp.setpoint", p.TempSetpointParam())
	add("temp.hys", p.TempHysParam())
	add("hum.setpoint", p.HumSetpointParam())
	add("hum.hys", p.HumHysParam())
	add("pump.count", p.PumpCountParam())
	add("pump.setpoint", p.PumpSetpointParam())
	add("pump.run", p.PumpRunParam())
	add("pump.interval", p.PumpIntervalParam())
	add("led.threshold", p.LightThresholdParam())
	add("led.hys", p.LightHysParam())
	add("led.run", p.LedRunParam())
	add("led.interval", p.LedIntervalParam())

	for i, s := range c.soil {
		prefix := "soil" + strconv.Itoa(i+1)
		add(prefix+".delay", s.DelayParam())
		add(prefix+".hys", s.HysteresisParam())
	}
	add("climate_in.delay", c.inside.DelayParam())
	add("climate_out.delay", c.outside.DelayParam())
	add("water.delay", c.water.DelayParam())
	add("light.delay", c.light.DelayParam())
}
