package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig holds the configuration for the MQTT client.
type MQTTConfig struct {
	BrokerURL   string `json:"broker_url"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retained    bool   `json:"retained"`
	MaxRetries  int    `json:"max_retries"`
	// RetryInterval caps the wait between connect attempts, in seconds.
	RetryInterval int `json:"retry_interval"`
	// StatePeriod is how often device state is published, in seconds.
	StatePeriod int `json:"state_period"`
}

func (c MQTTConfig) Enabled() bool {
	return c.BrokerURL != ""
}

// Connect dials the broker, retrying with exponential backoff. The client
// reconnects on its own once connected.
func Connect(ctx context.Context, cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "broker", cfg.BrokerURL, "error", err)
	})

	interval := time.Duration(cfg.RetryInterval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = interval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries-1)), ctx)

	var client mqtt.Client
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		client = mqtt.NewClient(opts)
		token := client.Connect()
		var err error
		if !token.WaitTimeout(interval) {
			err = fmt.Errorf("connect timed out after %s", interval)
		} else {
			err = token.Error()
		}
		if err != nil {
			slog.Warn("mqtt connect failed", "broker", cfg.BrokerURL, "attempt", attempt, "retries", retries, "error", err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.BrokerURL, attempt, err)
	}

	slog.Info("connected to mqtt broker", "broker", cfg.BrokerURL)
	return client, nil
}

// Close disconnects the client.
func Close(client mqtt.Client) {
	if client != nil && client.IsConnected() {
		slog.Info("disconnecting from mqtt broker")
		client.Disconnect(250) // Wait up to 250 milliseconds for inflight messages to be delivered
	}
}
