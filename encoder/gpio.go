package encoder

import (
	"errors"
	"fmt"
	"log/slog"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// Lines are the encoder's gpio line offsets on one chip.
type Lines struct {
	Chip   string `json:"chip"`
	CLK    int    `json:"clk"`
	DT     int    `json:"dt"`
	Switch int    `json:"switch"`
}

// Device holds the requested lines. Close releases them.
type Device struct {
	chip   *gpiod.Chip
	clk    *gpiod.Line
	dt     *gpiod.Line
	button *gpiod.Line
}

// Open requests the encoder lines and routes their edges into state. now is
// the millisecond clock shared with the poll loop.
func Open(cfg Lines, state *State, now func() uint64) (*Device, error) {
	chip, err := gpiod.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", cfg.Chip, err)
	}
	d := &Device{chip: chip}

	d.dt, err = chip.RequestLine(cfg.DT, gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request dt line %d: %w", cfg.DT, err)
	}

	d.clk, err = chip.RequestLine(cfg.CLK,
		gpiod.AsInput,
		gpiod.WithPullUp,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(d.onClock(state, now)))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request clk line %d: %w", cfg.CLK, err)
	}

	d.button, err = chip.RequestLine(cfg.Switch,
		gpiod.AsInput,
		gpiod.WithPullUp,
		gpiod.WithFallingEdge,
		gpiod.WithEventHandler(func(gpiod.LineEvent) { state.Press(now()) }))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request switch line %d: %w", cfg.Switch, err)
	}
	return d, nil
}

// onClock compares the clock edge with the data line: when they differ the
// knob went right.
func (d *Device) onClock(state *State, now func() uint64) func(gpiod.LineEvent) {
	return func(evt gpiod.LineEvent) {
		clk := 0
		if evt.Type == gpiod.LineEventRisingEdge {
			clk = 1
		}
		dt, err := d.dt.Value()
		if err != nil {
			slog.Error("encoder dt read failed", "error", err)
			return
		}
		state.Turn(clk != dt, now())
	}
}

func (d *Device) Close() error {
	var errs []error
	for _, l := range []*gpiod.Line{d.button, d.clk, d.dt} {
		if l != nil {
			if err := l.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
