package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
)

// Devices names the outputs whose on-time is tracked.
var Devices = []string{"motor", "pump", "heater", "light"}

// Extremes are the day's highest and lowest inside readings.
type Extremes struct {
	HighTemp     float32 `json:"daily_high_temp"`
	LowTemp      float32 `json:"daily_low_temp"`
	HighHumidity float32 `json:"daily_high_humidity"`
	LowHumidity  float32 `json:"daily_low_humidity"`
	Known        bool    `json:"known"`
}

// Tracker totals how long each output has been on during the current UTC
// day. Days roll over at midnight; Roll hands back the finished day.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	date     string
	totals   map[string]time.Duration
	on       map[string]bool
	since    time.Time
	extremes Extremes
	finished []Day
}

func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{now: now, on: make(map[string]bool)}
	t.reset(now().UTC())
	return t
}

func (t *Tracker) reset(at time.Time) {
	t.date = at.Format(time.DateOnly)
	t.totals = make(map[string]time.Duration, len(Devices))
	t.since = at
	t.extremes = Extremes{}
}

// advance credits the running outputs with the time up to at, closing out
// every day boundary on the way.
func (t *Tracker) advance(at time.Time) {
	at = at.UTC()
	for at.After(t.since) && at.Format(time.DateOnly) != t.date {
		midnight := t.since.Truncate(24 * time.Hour).Add(24 * time.Hour)
		t.credit(midnight)
		t.finished = append(t.finished, Day{Date: t.date, Totals: t.totals})
		t.reset(midnight)
	}
	t.credit(at)
}

func (t *Tracker) credit(at time.Time) {
	if !at.After(t.since) {
		return
	}
	d := at.Sub(t.since)
	for name, on := range t.on {
		if on {
			t.totals[name] += d
		}
	}
	t.since = at
}

func (t *Tracker) OnRelays(s relays.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advance(t.now())
	t.on["motor"] = s.Motor
	t.on["pump"] = s.Pump
	t.on["heater"] = s.Heater
	t.on["light"] = s.Light
}

// OnClimate keeps the day's extremes of the inside probe.
func (t *Tracker) OnClimate(e sensors.ClimateEvent) {
	if e.Place != sensors.Inside {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advance(t.now())

	x := &t.extremes
	if !x.Known {
		*x = Extremes{e.Temperature, e.Temperature, e.Humidity, e.Humidity, true}
		return
	}
	x.HighTemp = max(x.HighTemp, e.Temperature)
	x.LowTemp = min(x.LowTemp, e.Temperature)
	x.HighHumidity = max(x.HighHumidity, e.Humidity)
	x.LowHumidity = min(x.LowHumidity, e.Humidity)
}

// Today returns the on-time of every device so far today.
func (t *Tracker) Today() map[string]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advance(t.now())

	out := make(map[string]time.Duration, len(Devices))
	for _, name := range Devices {
		out[name] = t.totals[name]
	}
	return out
}

func (t *Tracker) Extremes() Extremes {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advance(t.now())
	return t.extremes
}

// Roll returns the days that ended since the last call.
func (t *Tracker) Roll() []Day {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advance(t.now())
	days := t.finished
	t.finished = nil
	return days
}

// Run saves finished days to s every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, s *Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, d := range t.Roll() {
				if err := s.SaveDay(ctx, d); err != nil {
					slog.Error("saving daily on-time failed", "date", d.Date, "error", err)
					continue
				}
				slog.Info("daily on-time saved", "date", d.Date)
			}
		}
	}
}
