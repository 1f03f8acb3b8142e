package hardware

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio"
)

// OpenGPIO maps the gpio registers for the indicator lamps. Call CloseGPIO
// on shutdown.
func OpenGPIO() error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("open gpio: %w", err)
	}
	return nil
}

func CloseGPIO() error {
	return rpio.Close()
}

// Lamp is one panel indicator on a BCM pin.
type Lamp struct {
	Name string
	pin  rpio.Pin
	on   bool
}

func NewLamp(name string, bcm int) *Lamp {
	l := &Lamp{Name: name, pin: rpio.Pin(bcm)}
	l.pin.Output()
	l.pin.Low()
	return l
}

func (l *Lamp) Set(on bool) {
	if on == l.on {
		return
	}
	l.on = on
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
	slog.Debug("lamp switched", "lamp", l.Name, "on", on)
}
