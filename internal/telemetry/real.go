package telemetry

import (
	"fmt"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/ksobolewski/multirelay-controller/internal/model"
)

// MQTTPublisher publishes to an actual MQTT broker.
type MQTTPublisher struct {
	client paho.Client
}

// NewMQTTPublisher connects to the given broker (e.g. tcp://host:1883).
func NewMQTTPublisher(broker, clientID string) (*MQTTPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &MQTTPublisher{client: client}, nil
}

func (p *MQTTPublisher) PublishButtonAction(sensorID int, action model.ButtonAction, ts time.Time) error {
	payload, err := FormatButtonPayload(sensorID, action, ts)
	if err != nil {
		return fmt.Errorf("format button payload: %w", err)
	}
	return p.publish(ButtonTopicPrefix+strconv.Itoa(sensorID), payload, false)
}

func (p *MQTTPublisher) PublishRelayState(sensorID int, on bool, ts time.Time) error {
	payload, err := FormatRelayPayload(sensorID, on, ts)
	if err != nil {
		return fmt.Errorf("format relay payload: %w", err)
	}
	// retained so late subscribers see the current state
	return p.publish(RelayTopicPrefix+strconv.Itoa(sensorID), payload, true)
}

func (p *MQTTPublisher) publish(topic string, payload []byte, retained bool) error {
	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
