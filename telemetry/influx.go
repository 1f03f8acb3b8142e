package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"
)

// PointWriter writes points synchronously. api.WriteAPIBlocking implements
// it.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type InfluxConfig struct {
	URL         string `json:"url"`
	Token       string `json:"token"`
	Org         string `json:"org"`
	Bucket      string `json:"bucket"`
	Measurement string `json:"measurement"`
	Version     string `json:"version"`
	// Period between points, in seconds.
	Period int `json:"period"`
	// Failures trips the breaker after that many consecutive failed writes.
	Failures int `json:"failures"`
}

func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// Sender writes the latest Sample every period. Writes go through a circuit
// breaker so a dead server costs one attempt per breaker timeout.
type Sender struct {
	latest
	writer      PointWriter
	breaker     *gobreaker.CircuitBreaker
	measurement string
	tags        map[string]string
	period      time.Duration
}

// NewSender builds a Sender over w. boot tags every point so restarts are
// visible in the series.
func NewSender(cfg InfluxConfig, w PointWriter, boot string) *Sender {
	failures := cfg.Failures
	if failures <= 0 {
		failures = 3
	}
	period := time.Duration(cfg.Period) * time.Second
	if period <= 0 {
		period = 10 * time.Second
	}
	measurement := cfg.Measurement
	if measurement == "" {
		measurement = "greenhouse"
	}
	return &Sender{
		writer: w,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "influx",
			Timeout: 4 * period,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(failures)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("telemetry breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		measurement: measurement,
		tags:        map[string]string{"version": cfg.Version, "boot": boot},
		period:      period,
	}
}

// DialInflux connects the blocking write API of an Influx v2 server. Close
// the returned client on shutdown.
func DialInflux(ctx context.Context, cfg InfluxConfig) (influxdb2.Client, PointWriter, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	ok, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping influx %s: %w", cfg.URL, err)
	}
	if !ok {
		client.Close()
		return nil, nil, fmt.Errorf("influx %s is not ready", cfg.URL)
	}
	return client, client.WriteAPIBlocking(cfg.Org, cfg.Bucket), nil
}

// Send writes one point now.
func (s *Sender) Send(ctx context.Context, at time.Time) error {
	p := influxdb2.NewPoint(s.measurement, s.tags, s.Sample().Fields(), at)
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.writer.WritePoint(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("write %s point: %w", s.measurement, err)
	}
	return nil
}

// Run sends every period until ctx is done.
func (s *Sender) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			err := s.Send(ctx, now)
			switch {
			case err == nil:
			case errors.Is(err, gobreaker.ErrOpenState):
				slog.Debug("telemetry skipped", "error", err)
			default:
				slog.Error("telemetry send failed", "error", err)
			}
		}
	}
}
