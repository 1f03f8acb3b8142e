// Package telemetry exports the greenhouse readings: a periodic Influx point
// and a set of Prometheus gauges. Both are plain feed subscribers.
package telemetry

import (
	"strconv"
	"sync"

	"furitingoasis/greenhouse/sensors"
)

// Sample is the latest value of every exported reading.
type Sample struct {
	TempIn     float32
	TempOut    float32
	HumIn      float32
	HumOut     float32
	WaterLevel uint8
	LightLevel uint8
	Soil       [3]sensors.Moisture
}

// Fields renders the sample as Influx fields. Soil is the moisture band
// threshold.
func (s Sample) Fields() map[string]any {
	f := map[string]any{
		"temp_in":     s.TempIn,
		"temp_out":    s.TempOut,
		"hum_in":      s.HumIn,
		"hum_out":     s.HumOut,
		"water_level": int(s.WaterLevel),
		"light_level": int(s.LightLevel),
	}
	for i, m := range s.Soil {
		f["soil_hum_"+strconv.Itoa(i+1)] = int(m)
	}
	return f
}

// latest collects a Sample from the sensor feeds. The poll loop writes it and
// the sender goroutine reads it.
type latest struct {
	mu sync.Mutex
	s  Sample
}

func (l *latest) OnClimate(e sensors.ClimateEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Place == sensors.Outside {
		l.s.TempOut, l.s.HumOut = e.Temperature, e.Humidity
	} else {
		l.s.TempIn, l.s.HumIn = e.Temperature, e.Humidity
	}
}

func (l *latest) OnSoil(e sensors.SoilEvent) {
	if e.ID < 0 || e.ID >= len(l.s.Soil) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.s.Soil[e.ID] = e.State
}

func (l *latest) OnLevel(e sensors.LevelEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch e.Kind {
	case sensors.WaterLevel:
		l.s.WaterLevel = e.Level
	case sensors.LightLevel:
		l.s.LightLevel = e.Level
	}
}

func (l *latest) Sample() Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s
}
