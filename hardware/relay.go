// Package hardware adapts the Raspberry Pi peripherals to the narrow
// interfaces the greenhouse core consumes.
package hardware

import (
	"gobot.io/x/gobot/v2/drivers/gpio"
)

// Relay is one relay channel. Boards that energise on a low pin are wired
// active low: the driver's logical state is then the inverse of the relay's.
type Relay struct {
	driver    *gpio.RelayDriver
	activeLow bool
}

func NewRelay(d *gpio.RelayDriver, activeLow bool) *Relay {
	return &Relay{driver: d, activeLow: activeLow}
}

func (r *Relay) On() error {
	if r.activeLow {
		return r.driver.Off()
	}
	return r.driver.On()
}

func (r *Relay) Off() error {
	if r.activeLow {
		return r.driver.On()
	}
	return r.driver.Off()
}

func (r *Relay) State() bool {
	return r.driver.State() != r.activeLow
}
