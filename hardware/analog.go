package hardware

import (
	"strconv"

	"gobot.io/x/gobot/v2/drivers/i2c"
)

// AnalogReader is gobot's analog pin read. The ADS1115 driver implements it.
type AnalogReader interface {
	AnalogRead(pin string) (int, error)
}

var _ AnalogReader = (*i2c.ADS1x15Driver)(nil)

// Channel is one input of a multi channel ADC.
type Channel struct {
	adc AnalogReader
	pin string
}

func NewChannel(adc AnalogReader, channel int) *Channel {
	return &Channel{adc: adc, pin: strconv.Itoa(channel)}
}

func (c *Channel) Read() (int, error) {
	v, err := c.adc.AnalogRead(c.pin)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = 0
	}
	return v, nil
}
