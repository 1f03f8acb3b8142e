package hardware

import (
	"fmt"

	"github.com/yryz/ds18b20"
	"gobot.io/x/gobot/v2/drivers/i2c"
)

// Thermohygrometer is what an SHT2x driver offers.
type Thermohygrometer interface {
	Temperature() (float32, error)
	Humidity() (float32, error)
}

var _ Thermohygrometer = (*i2c.SHT2xDriver)(nil)

// SHT2x reads one SHT2x probe. HumidityOffset corrects a probe that reads
// consistently high or low.
type SHT2x struct {
	dev            Thermohygrometer
	HumidityOffset float32
}

func NewSHT2x(dev Thermohygrometer, humidityOffset float32) *SHT2x {
	return &SHT2x{dev: dev, HumidityOffset: humidityOffset}
}

func (s *SHT2x) ReadClimate() (float32, float32, error) {
	temp, err := s.dev.Temperature()
	if err != nil {
		return 0, 0, fmt.Errorf("sht2x temperature: %w", err)
	}
	hum, err := s.dev.Humidity()
	if err != nil {
		return 0, 0, fmt.Errorf("sht2x humidity: %w", err)
	}
	hum += s.HumidityOffset
	switch {
	case hum < 0:
		hum = 0
	case hum > 100:
		hum = 100
	}
	return temp, hum, nil
}

// OneWire reads a DS18B20 probe. It has no humidity channel and reports 0.
type OneWire struct {
	Address string
	Offset  float64
	read    func(string) (float64, error)
}

func NewOneWire(address string, offset float64) *OneWire {
	return &OneWire{Address: address, Offset: offset, read: ds18b20.Temperature}
}

func (o *OneWire) ReadClimate() (float32, float32, error) {
	t, err := o.read(o.Address)
	if err != nil {
		return 0, 0, fmt.Errorf("ds18b20 %s: %w", o.Address, err)
	}
	return float32(t + o.Offset), 0, nil
}

// FirstOneWire returns the address of the first probe on the bus.
func FirstOneWire() (string, error) {
	sensors, err := ds18b20.Sensors()
	if err != nil {
		return "", fmt.Errorf("list ds18b20 probes: %w", err)
	}
	if len(sensors) == 0 {
		return "", fmt.Errorf("no ds18b20 probe found")
	}
	return sensors[0], nil
}
