package hardware

import (
	"fmt"
	"io"
)

// The water level board carries 20 capacitive pads read by two ATtiny
// chips: the low chip reports the bottom 8 pads, the high chip the top 12.
const (
	WaterLowAddress  = 0x77
	WaterHighAddress = 0x78

	lowPads      = 8
	highPads     = 12
	padThreshold = 100
	padPercent   = 5
)

// WaterBoard reads the water level board over two i2c connections.
type WaterBoard struct {
	low  io.Reader
	high io.Reader
}

// NewWaterBoard takes the connections to the low and high chips. gobot's
// i2c.Connection satisfies io.Reader.
func NewWaterBoard(low, high io.Reader) *WaterBoard {
	return &WaterBoard{low: low, high: high}
}

func (w *WaterBoard) ReadPercent() (uint8, error) {
	var low [lowPads]byte
	var high [highPads]byte
	if _, err := io.ReadFull(w.low, low[:]); err != nil {
		return 0, fmt.Errorf("water board low chip: %w", err)
	}
	if _, err := io.ReadFull(w.high, high[:]); err != nil {
		return 0, fmt.Errorf("water board high chip: %w", err)
	}
	return WaterLevel(low, high), nil
}

// WaterLevel counts the wet pads from the bottom up, stopping at the first
// dry one, at 5% per pad.
func WaterLevel(low [lowPads]byte, high [highPads]byte) uint8 {
	pads := append(low[:], high[:]...)
	n := 0
	for _, v := range pads {
		if v <= padThreshold {
			break
		}
		n++
	}
	return uint8(n * padPercent)
}
