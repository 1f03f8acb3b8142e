// Package config loads the controller settings from a JSON file and the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"furitingoasis/greenhouse/encoder"
	"furitingoasis/greenhouse/mqtt"
	"furitingoasis/greenhouse/telemetry"
)

const DefaultLogLevel = slog.LevelInfo

// ErrMissingFile is returned by Load when the config file does not exist.
var ErrMissingFile = errors.New("config: file not found")

// Relay is one relay board channel on the raspi header.
type Relay struct {
	Pin       string `json:"pin"`
	ActiveLow bool   `json:"active_low"`
}

type Relays struct {
	Run       Relay `json:"run"`
	Direction Relay `json:"direction"`
	Pump      Relay `json:"pump"`
	Light     Relay `json:"light"`
	Heater    Relay `json:"heater"`
}

// Lamps are the status LEDs by BCM pin number.
type Lamps struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

type I2C struct {
	Bus int `json:"bus"`
	// OutsideBus carries a second SHT2x for the outside probe, 0 for none.
	OutsideBus     int     `json:"outside_bus"`
	ADCAddress     int     `json:"adc_address"`
	WaterLow       int     `json:"water_low"`
	WaterHigh      int     `json:"water_high"`
	HumidityOffset float32 `json:"humidity_offset"`
}

// Analog maps the ADC channels.
type Analog struct {
	Soil  [3]int `json:"soil"`
	Light int    `json:"light"`
	// Steps is the full scale reading of the converter.
	Steps int `json:"steps"`
}

// OneWire is the optional outside probe. An empty address takes the first
// probe on the bus.
type OneWire struct {
	Enabled bool    `json:"enabled"`
	Address string  `json:"address"`
	Offset  float32 `json:"offset"`
}

type Admin struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

type Config struct {
	LogLevel string `json:"log_level"`
	// PollInterval is the control tick, in milliseconds.
	PollInterval int `json:"poll_interval"`

	Relays  Relays        `json:"relays"`
	Lamps   Lamps         `json:"lamps"`
	I2C     I2C           `json:"i2c"`
	Analog  Analog        `json:"analog"`
	OneWire OneWire       `json:"one_wire"`
	Encoder encoder.Lines `json:"encoder"`

	MQTT   mqtt.MQTTConfig        `json:"mqtt"`
	Influx telemetry.InfluxConfig `json:"influx"`

	HTTPAddr string `json:"http_addr"`
	WebAddr  string `json:"web_addr"`
	DBPath   string `json:"db_path"`
	Admin    Admin  `json:"admin"`
}

// Default returns the settings of the reference build.
func Default() Config {
	return Config{
		LogLevel:     "info",
		PollInterval: 20,
		Relays: Relays{
			Run:       Relay{Pin: "16", ActiveLow: true},
			Direction: Relay{Pin: "18", ActiveLow: true},
			Pump:      Relay{Pin: "37", ActiveLow: true},
			Light:     Relay{Pin: "22", ActiveLow: true},
			Heater:    Relay{Pin: "36", ActiveLow: true},
		},
		Lamps: Lamps{Red: 5, Green: 6, Blue: 13},
		I2C: I2C{
			Bus:            1,
			ADCAddress:     0x48,
			WaterLow:       0x77,
			WaterHigh:      0x78,
			HumidityOffset: -17,
		},
		Analog:  Analog{Soil: [3]int{0, 1, 2}, Light: 3, Steps: 1023},
		Encoder: encoder.Lines{Chip: "gpiochip0", CLK: 17, DT: 27, Switch: 22},
		MQTT: mqtt.MQTTConfig{
			ClientID:    "greenhouse",
			TopicPrefix: "farm",
			QoS:         1,
			MaxRetries:  3,
		},
		Influx:   telemetry.InfluxConfig{Measurement: "greenhouse", Period: 10},
		HTTPAddr: ":8080",
		WebAddr:  ":4000",
		DBPath:   "sensor_data.db",
	}
}

// Poll returns the control tick.
func (c Config) Poll() time.Duration {
	if c.PollInterval <= 0 {
		return 20 * time.Millisecond
	}
	return time.Duration(c.PollInterval) * time.Millisecond
}

// Level parses LogLevel, falling back to DefaultLogLevel.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return DefaultLogLevel
	}
	return l
}

// Load reads the JSON file at path over the defaults, then applies a .env
// file and FARM_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("%w: %s", ErrMissingFile, path)
	}
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	if err := Decode(file, &cfg); err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// Decode reads JSON from r over the values already in cfg.
func Decode(r io.Reader, cfg *Config) error {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, cfg)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	vars := []struct {
		name string
		dst  *string
	}{
		{"FARM_MQTT_BROKER", &c.MQTT.BrokerURL},
		{"FARM_INFLUX_URL", &c.Influx.URL},
		{"FARM_INFLUX_TOKEN", &c.Influx.Token},
		{"FARM_HTTP_ADDR", &c.HTTPAddr},
		{"FARM_WEB_ADDR", &c.WebAddr},
		{"FARM_DB_PATH", &c.DBPath},
		{"FARM_LOG_LEVEL", &c.LogLevel},
	}
	for _, v := range vars {
		if s, ok := lookup(v.name); ok && strings.TrimSpace(s) != "" {
			*v.dst = strings.TrimSpace(s)
		}
	}
}
