package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"furitingoasis/greenhouse/controller"
	"furitingoasis/greenhouse/param"
	"furitingoasis/greenhouse/store"
)

// Client is the part of the paho client the bridge uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Core is what the bridge reads and writes.
type Core interface {
	Write(key string, v any) (param.Info, error)
	Params() map[string]param.Info
	Snapshot() controller.Snapshot
}

// Daily reports today's on-time per output and the climate extremes.
// *store.Tracker implements it.
type Daily interface {
	Today() map[string]time.Duration
	Extremes() store.Extremes
}

// overrideKeys maps override names to the manual tunables they drive.
var overrideKeys = map[string]string{
	"pump":   "pump",
	"heater": "heater",
	"lights": "led",
	"led":    "led",
	"vent":   "vent.direction",
}

// DeviceState is the JSON published on <prefix>/devices.
type DeviceState struct {
	Vent      string            `json:"vent"`
	Motor     bool              `json:"motor"`
	Pump      bool              `json:"pump"`
	Heater    bool              `json:"heater"`
	Lights    bool              `json:"lights"`
	LowWater  bool              `json:"low_water"`
	Setpoints map[string]any    `json:"setpoints"`
	TimeOn    map[string]string `json:"time_on,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// SensorState is the JSON published on <prefix>/sensors.
type SensorState struct {
	Temperature float32 `json:"temperature"`
	Humidity    float32 `json:"humidity"`
	Timestamp   string  `json:"timestamp"`
	store.Extremes
}

// Bridge publishes device state and applies remote config and overrides.
type Bridge struct {
	client Client
	prefix string
	qos    byte
	retain bool
	core   Core
	daily  Daily
	period time.Duration
}

func NewBridge(client Client, cfg MQTTConfig, core Core, daily Daily) *Bridge {
	period := time.Duration(cfg.StatePeriod) * time.Second
	if period <= 0 {
		period = 10 * time.Second
	}
	return &Bridge{
		client: client,
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:    cfg.QoS,
		retain: cfg.Retained,
		core:   core,
		daily:  daily,
		period: period,
	}
}

func (b *Bridge) topic(name string) string {
	return b.prefix + "/" + name
}

// Subscribe listens on <prefix>/config and <prefix>/override.
func (b *Bridge) Subscribe() error {
	routes := map[string]func([]byte) error{
		b.topic("config"):   b.HandleConfig,
		b.topic("override"): b.HandleOverride,
	}
	for topic, handle := range routes {
		token := b.client.Subscribe(topic, b.qos, func(_ mqtt.Client, msg mqtt.Message) {
			slog.Info("mqtt message received", "topic", msg.Topic(), "payload", string(msg.Payload()))
			if err := handle(msg.Payload()); err != nil {
				slog.Error("mqtt message rejected", "topic", msg.Topic(), "error", err)
				b.notify(err.Error())
			}
		})
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
	}
	return nil
}

// HandleConfig applies a JSON object of tunable key to value. Every key is
// tried; the error joins the ones that failed.
func (b *Bridge) HandleConfig(payload []byte) error {
	var values map[string]any
	if err := json.Unmarshal(payload, &values); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	var errs []error
	for _, key := range sortedKeys(values) {
		info, err := b.core.Write(key, values[key])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		slog.Info("config updated", "key", key, "value", info.Text)
	}
	return errors.Join(errs...)
}

// HandleOverride switches outputs by name: {"pump": "on", "vent": "open"}.
// Empty values and "no override" are ignored.
func (b *Bridge) HandleOverride(payload []byte) error {
	var values map[string]string
	if err := json.Unmarshal(payload, &values); err != nil {
		return fmt.Errorf("decode override: %w", err)
	}
	var errs []error
	for _, name := range sortedKeys(values) {
		v := strings.TrimSpace(values[name])
		if v == "" || strings.EqualFold(v, "no override") {
			continue
		}
		key, ok := overrideKeys[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: override %q", param.ErrUnknownKey, name))
			continue
		}
		if key == "vent.direction" && strings.EqualFold(v, "finished") {
			v = "stop"
		}
		if _, err := b.core.Write(key, v); err != nil {
			errs = append(errs, err)
			continue
		}
		slog.Info("override applied", "device", name, "value", v)
	}
	return errors.Join(errs...)
}

func (b *Bridge) State(now time.Time) DeviceState {
	snap := b.core.Snapshot()
	params := b.core.Params()

	s := DeviceState{
		Vent:      snap.Relays.Direction.String(),
		Motor:     snap.Relays.Motor,
		Pump:      snap.Relays.Pump,
		Heater:    snap.Relays.Heater,
		Lights:    snap.Relays.Light,
		LowWater:  snap.Status.LowWater,
		Setpoints: make(map[string]any, len(params)),
		Timestamp: now.Format(time.RFC3339),
	}
	for k, info := range params {
		s.Setpoints[k] = info.Value
	}
	if b.daily != nil {
		s.TimeOn = make(map[string]string)
		for name, d := range b.daily.Today() {
			s.TimeOn[name] = formatDuration(d)
		}
	}
	return s
}

// PublishState sends the device state to <prefix>/devices.
func (b *Bridge) PublishState(now time.Time) error {
	payload, err := json.Marshal(b.State(now))
	if err != nil {
		return fmt.Errorf("marshal device state: %w", err)
	}
	return b.publish(b.topic("devices"), payload)
}

// PublishSensors sends the inside climate and the day's extremes to
// <prefix>/sensors.
func (b *Bridge) PublishSensors(now time.Time) error {
	inside := b.core.Snapshot().Status.Inside
	s := SensorState{
		Temperature: inside.Temperature,
		Humidity:    inside.Humidity,
		Timestamp:   now.Format(time.RFC3339),
	}
	if b.daily != nil {
		s.Extremes = b.daily.Extremes()
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal sensor state: %w", err)
	}
	return b.publish(b.topic("sensors"), payload)
}

// Alert sends a text message to <prefix>/alerts.
func (b *Bridge) Alert(message string) {
	if err := b.publish(b.topic("alerts"), []byte(message)); err != nil {
		slog.Error("mqtt alert failed", "error", err)
	}
}

// notify is Alert for message handlers: it never waits on the broker, since
// the handler holds up paho's message router until it returns.
func (b *Bridge) notify(message string) {
	token := b.client.Publish(b.topic("alerts"), b.qos, b.retain, []byte(message))
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			slog.Error("mqtt alert failed", "error", err)
		}
	}()
}

func (b *Bridge) publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, b.qos, b.retain, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	slog.Debug("published", "topic", topic, "bytes", len(payload))
	return nil
}

// Run publishes device and sensor state every period until ctx is done.
func (b *Bridge) Run(ctx context.Context) {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := b.PublishState(now); err != nil {
				slog.Error("device state publish failed", "error", err)
			}
			if err := b.PublishSensors(now); err != nil {
				slog.Error("sensor state publish failed", "error", err)
			}
		}
	}
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
