// Package controller assembles the greenhouse core and runs its poll tick.
//
// Every component is single threaded. Poll and every exported method take
// the controller's lock, so the web, MQTT and telemetry collaborators can be
// called from their own goroutines. Subscribers are called from Poll with the
// lock held and must not call back into the controller.
package controller

import (
	"fmt"
	"sync"
	"time"

	"furitingoasis/greenhouse/encoder"
	"furitingoasis/greenhouse/farm"
	"furitingoasis/greenhouse/menu"
	"furitingoasis/greenhouse/param"
	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
)

// Hardware is what the core reads and drives.
type Hardware struct {
	Outputs relays.Outputs
	Lamps   farm.Indicators

	Inside  sensors.ClimateReader
	Outside sensors.ClimateReader

	Soil       [3]sensors.Analog
	SoilSteps  int
	Light      sensors.Analog
	LightSteps int
	Water      sensors.PercentReader

	// Knob is fed by the encoder's edge handlers. Nil disables the menu.
	Knob *encoder.State
}

type Controller struct {
	mu sync.Mutex

	relays    *relays.Relays
	processor *farm.Processor
	inside    *sensors.Climate
	outside   *sensors.Climate
	soil      [3]*sensors.Soil
	light     *sensors.Level
	water     *sensors.Level
	encoder   *encoder.Encoder
	menu      *menu.Navigator

	keys    []string
	params  map[string]param.Param
	stopped bool
}

// Monotonic returns a millisecond clock starting at zero.
func Monotonic() func() uint64 {
	start := time.Now()
	return func() uint64 { return uint64(time.Since(start).Milliseconds()) }
}

func New(hw Hardware, now func() uint64) *Controller {
	c := &Controller{
		relays:  relays.New(hw.Outputs, now),
		inside:  sensors.NewClimate(sensors.Inside, hw.Inside, now),
		outside: sensors.NewClimate(sensors.Outside, hw.Outside, now),
		light:   sensors.NewLight(hw.Light, hw.LightSteps, now),
		water:   sensors.NewWater(hw.Water, now),
		params:  make(map[string]param.Param),
	}
	c.processor = farm.NewProcessor(c.relays, hw.Lamps, now)
	for i, r := range hw.Soil {
		c.soil[i] = sensors.NewSoil(i, r, hw.SoilSteps, now)
	}

	c.inside.Subscribe(c.processor)
	c.outside.Subscribe(c.processor)
	for _, s := range c.soil {
		s.Subscribe(c.processor)
	}
	c.light.Subscribe(c.processor)
	c.water.Subscribe(c.processor)

	c.register()

	if hw.Knob != nil {
		c.encoder = encoder.New(hw.Knob)
		c.menu = menu.NewNavigator(menu.Default(), c.lookup)
		c.encoder.Subscribe(c.menu)
	}
	return c
}

// Start drives every output off. Call it once before the first Poll.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relays.Reset()
	c.relays.Update()
}

// Stop drives every output off. Later calls to Poll do nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.relays.Reset()
	c.relays.Update()
}

// Subscribe attaches s to every feed whose capability it implements:
// sensors.ClimateSubscriber, sensors.SoilSubscriber, sensors.LevelSubscriber,
// relays.Subscriber and encoder.Subscriber. It reports whether any matched.
func (c *Controller) Subscribe(s any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := false
	if s, ok := s.(sensors.ClimateSubscriber); ok {
		c.inside.Subscribe(s)
		c.outside.Subscribe(s)
		matched = true
	}
	if s, ok := s.(sensors.SoilSubscriber); ok {
		for _, soil := range c.soil {
			soil.Subscribe(s)
		}
		matched = true
	}
	if s, ok := s.(sensors.LevelSubscriber); ok {
		c.light.Subscribe(s)
		c.water.Subscribe(s)
		matched = true
	}
	if s, ok := s.(relays.Subscriber); ok {
		c.relays.Subscribe(s)
		matched = true
	}
	if s, ok := s.(encoder.Subscriber); ok && c.encoder != nil {
		c.encoder.Subscribe(s)
		matched = true
	}
	return matched
}

// Poll runs one tick: sensors publish, the processor decides, the relays
// act and the menu consumes encoder input.
func (c *Controller) Poll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	c.inside.Update()
	c.outside.Update()
	for _, s := range c.soil {
		s.Update()
	}
	c.light.Update()
	c.water.Update()

	c.processor.Update()
	c.relays.Update()

	if c.encoder != nil {
		c.encoder.Update()
	}
}

// Do runs fn on the core's logical thread.
func (c *Controller) Do(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Snapshot is the live view served to the outer surfaces.
type Snapshot struct {
	Status     farm.Status  `json:"status"`
	Relays     relays.State `json:"relays"`
	SoilValues [3]int       `json:"soil_values"`
	Menu       *menu.View   `json:"menu,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Status: c.processor.Status(),
		Relays: c.relays.State(),
	}
	for i, soil := range c.soil {
		s.SoilValues[i] = soil.Value()
	}
	if c.menu != nil {
		v := c.menu.View()
		s.Menu = &v
	}
	return s
}

// Keys lists every tunable key in a stable order.
func (c *Controller) Keys() []string {
	return append([]string(nil), c.keys...)
}

func (c *Controller) Read(key string) (param.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.lookup(key)
	if !ok {
		return param.Info{}, fmt.Errorf("%w: %q", param.ErrUnknownKey, key)
	}
	return param.Describe(p), nil
}

// Write assigns a loosely typed value to the tunable key. Out of range values
// are clamped; the returned Info holds what was applied.
func (c *Controller) Write(key string, v any) (param.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.lookup(key)
	if !ok {
		return param.Info{}, fmt.Errorf("%w: %q", param.ErrUnknownKey, key)
	}
	info, err := param.Assign(p, v)
	if err != nil {
		return param.Info{}, fmt.Errorf("write %s: %w", key, err)
	}
	return info, nil
}

// Params describes every tunable, keyed like Keys.
func (c *Controller) Params() map[string]param.Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]param.Info, len(c.params))
	for k, p := range c.params {
		out[k] = param.Describe(p)
	}
	return out
}

func (c *Controller) lookup(key string) (param.Param, bool) {
	p, ok := c.params[key]
	return p, ok
}
