package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

const defaultTimeout = 10 * time.Second

// MQTTPublisher publishes events as JSON to <prefix>/<event type>.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte

	// Timeout bounds how long Publish waits for the broker acknowledgement.
	Timeout time.Duration
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out after %s", cfg.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	pub := newMQTTPublisher(client, cfg.TopicPrefix, cfg.QoS)
	pub.Timeout = timeout
	return pub, nil
}

func newMQTTPublisher(client mqtt.Client, topicPrefix string, qos byte) *MQTTPublisher {
	if topicPrefix == "" {
		topicPrefix = "fleet/reservations"
	}
	return &MQTTPublisher{
		client:      client,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
		qos:         qos,
		Timeout:     defaultTimeout,
	}
}

// Topic returns the topic an event type is published on.
func (p *MQTTPublisher) Topic(eventType string) string {
	return p.topicPrefix + "/" + eventType
}

// Publish implements Publisher. It waits for the broker acknowledgement
// until ctx is done or Timeout elapses, whichever comes first.
func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	token := p.client.Publish(p.Topic(event.Type), p.qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", event.Type, ctx.Err())
	}
}

// Close disconnects from the broker, allowing in-flight work a short grace period.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
