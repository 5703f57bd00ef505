package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// publisher is the part of mqtt.Client the recorder uses
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTRecorder publishes every reading as JSON to a topic
type MQTTRecorder struct {
	client publisher
	topic  string
	close  func()
}

// NewMQTTRecorder connects to broker, retrying with exponential backoff
func NewMQTTRecorder(broker, clientID, topic string) (*MQTTRecorder, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("⚠ Failed to connect to MQTT broker %s: %v", broker, token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, 4))
	if err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker after retries: %w", err)
	}

	log.Printf("✓ Connected to MQTT broker at %s", broker)

	return &MQTTRecorder{
		client: client,
		topic:  topic,
		close:  func() { client.Disconnect(250) },
	}, nil
}

func (m *MQTTRecorder) Name() string { return "mqtt" }

// Record publishes r with QoS 1
func (m *MQTTRecorder) Record(ctx context.Context, r models.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	token := m.client.Publish(m.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects from the broker
func (m *MQTTRecorder) Close() {
	if m.close != nil {
		m.close()
	}
}
