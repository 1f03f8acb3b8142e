package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
)

// Metrics mirrors the feeds into Prometheus gauges.
type Metrics struct {
	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	soil        *prometheus.GaugeVec
	level       *prometheus.GaugeVec
	relay       *prometheus.GaugeVec
	direction   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "greenhouse",
			Name:      "temperature_celsius",
			Help:      "Latest temperature per probe.",
		}, []string{"place"}),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "greenhouse",
			Name:      "humidity_percent",
			Help:      "Latest relative humidity per probe.",
		}, []string{"place"}),
		soil: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "greenhouse",
			Name:      "soil_moisture_band",
			Help:      "Moisture band threshold per soil sensor, 0 until the first reading.",
		}, []string{"sensor"}),
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "greenhouse",
			Name:      "level_percent",
			Help:      "Ambient light and water tank level.",
		}, []string{"kind"}),
		relay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "greenhouse",
			Name:      "relay_on",
			Help:      "1 while the relay is energised.",
		}, []string{"relay"}),
		direction: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "greenhouse",
			Name:      "vent_direction",
			Help:      "Vent direction: -1 unknown, 0 close, 1 open, 2 finished, 3 finished close, 4 finished open.",
		}),
	}
	reg.MustRegister(m.temperature, m.humidity, m.soil, m.level, m.relay, m.direction)
	return m
}

func (m *Metrics) OnClimate(e sensors.ClimateEvent) {
	m.temperature.WithLabelValues(e.Place.String()).Set(float64(e.Temperature))
	m.humidity.WithLabelValues(e.Place.String()).Set(float64(e.Humidity))
}

func (m *Metrics) OnSoil(e sensors.SoilEvent) {
	m.soil.WithLabelValues(strconv.Itoa(e.ID + 1)).Set(float64(e.State))
}

func (m *Metrics) OnLevel(e sensors.LevelEvent) {
	m.level.WithLabelValues(e.Kind.String()).Set(float64(e.Level))
}

func (m *Metrics) OnRelays(s relays.State) {
	m.relay.WithLabelValues("motor").Set(bit(s.Motor))
	m.relay.WithLabelValues("light").Set(bit(s.Light))
	m.relay.WithLabelValues("heater").Set(bit(s.Heater))
	m.relay.WithLabelValues("pump").Set(bit(s.Pump))
	m.direction.Set(float64(s.Direction))
}

func bit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
