package sensors

import (
	"log/slog"

	"furitingoasis/greenhouse/bus"
	"furitingoasis/greenhouse/param"
)

type LevelKind uint8

const (
	LightLevel LevelKind = iota
	WaterLevel
)

func (k LevelKind) String() string {
	if k == WaterLevel {
		return "water"
	}
	return "light"
}

func (k LevelKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// PercentReader returns a reading already scaled to 0..100.
type PercentReader interface {
	ReadPercent() (uint8, error)
}

type LevelEvent struct {
	Kind  LevelKind `json:"kind"`
	Level uint8     `json:"level"`
}

type LevelSubscriber interface {
	OnLevel(LevelEvent)
}

// Level is a single percentage channel.
type Level struct {
	schedule
	kind   LevelKind
	sample func() (uint8, error)
	level  uint8
	known  bool

	feed bus.Feed[LevelEvent]
}

// NewLight scales the photo resistor channel to percent of full scale.
func NewLight(r Analog, steps int, now Clock) *Level {
	return newLevel(LightLevel, func() (uint8, error) {
		raw, err := r.Read()
		if err != nil {
			return 0, err
		}
		return uint8(scale(raw, steps, 100)), nil
	}, now)
}

func NewWater(r PercentReader, now Clock) *Level {
	return newLevel(WaterLevel, r.ReadPercent, now)
}

func newLevel(kind LevelKind, read func() (uint8, error), now Clock) *Level {
	l := &Level{schedule: newSchedule(now), kind: kind, sample: read}
	l.feed.Name = kind.String()
	return l
}

func (l *Level) Subscribe(s LevelSubscriber) {
	l.feed.Subscribe(s.OnLevel)
}

func (l *Level) Update() {
	now, ok := l.due()
	if !ok {
		return
	}
	l.mark(now)

	v, err := l.sample()
	if err != nil {
		slog.Error("level read failed", "sensor", l.kind, "error", err)
		return
	}
	if v > 100 {
		v = 100
	}
	if l.known && v == l.level {
		return
	}
	l.level, l.known = v, true
	l.feed.Publish(LevelEvent{Kind: l.kind, Level: v})
}

func (l *Level) Kind() LevelKind { return l.kind }

func (l *Level) Level() uint8 { return l.level }

func (l *Level) Known() bool { return l.known }

func (l *Level) DelayParam() param.NumericParam[uint16] {
	return readDelayDesc.Bind(&l.schedule)
}
