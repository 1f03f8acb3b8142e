package sensors

import (
	"log/slog"

	"furitingoasis/greenhouse/bus"
	"furitingoasis/greenhouse/param"
)

// Place tells the inside probe from the outside one.
type Place uint8

const (
	Inside Place = iota
	Outside
)

func (p Place) String() string {
	if p == Outside {
		return "outside"
	}
	return "inside"
}

func (p Place) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ClimateReader reads one temperature and humidity sample.
type ClimateReader interface {
	ReadClimate() (temperature, humidity float32, err error)
}

type ClimateEvent struct {
	Place       Place   `json:"place"`
	Temperature float32 `json:"temperature"`
	Humidity    float32 `json:"humidity"`
}

type ClimateSubscriber interface {
	OnClimate(ClimateEvent)
}

// Climate publishes when either the temperature or the humidity of its probe
// changed since the last read.
type Climate struct {
	schedule
	place  Place
	reader ClimateReader

	temperature float32
	humidity    float32
	known       bool

	feed bus.Feed[ClimateEvent]
}

func NewClimate(place Place, reader ClimateReader, now Clock) *Climate {
	c := &Climate{
		schedule: newSchedule(now),
		place:    place,
		reader:   reader,
	}
	c.feed.Name = "climate " + place.String()
	return c
}

func (c *Climate) Subscribe(s ClimateSubscriber) {
	c.feed.Subscribe(s.OnClimate)
}

// Update reads the probe when its delay has passed. A Climate without a
// reader never publishes.
func (c *Climate) Update() {
	if c.reader == nil {
		return
	}
	now, ok := c.due()
	if !ok {
		return
	}
	c.mark(now)

	temp, hum, err := c.reader.ReadClimate()
	if err != nil {
		slog.Error("climate read failed", "place", c.place, "error", err)
		return
	}
	if c.known && temp == c.temperature && hum == c.humidity {
		return
	}
	c.temperature, c.humidity, c.known = temp, hum, true
	c.feed.Publish(c.Last())
}

// Last returns the latest sample. It is zero until Known.
func (c *Climate) Last() ClimateEvent {
	return ClimateEvent{Place: c.place, Temperature: c.temperature, Humidity: c.humidity}
}

func (c *Climate) Known() bool { return c.known }

func (c *Climate) DelayParam() param.NumericParam[uint16] {
	return readDelayDesc.Bind(&c.schedule)
}
