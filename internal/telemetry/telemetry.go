// Package telemetry publishes button actions and relay state changes over
// MQTT. The fake publisher records events for tests.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/ksobolewski/multirelay-controller/internal/model"
)

// Topics carry one subtree per sensor id.
const (
	ButtonTopicPrefix = "multirelay/button/"
	RelayTopicPrefix  = "multirelay/relay/"
)

// Publisher sends controller events to the outside. Publishing failures
// must not disturb the control loop.
type Publisher interface {
	PublishButtonAction(sensorID int, action model.ButtonAction, ts time.Time) error
	PublishRelayState(sensorID int, on bool, ts time.Time) error
	Close() error
}

type buttonPayload struct {
	SensorID  int    `json:"sensor_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

type relayPayload struct {
	SensorID  int    `json:"sensor_id"`
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// FormatButtonPayload creates the JSON payload for a button action.
func FormatButtonPayload(sensorID int, action model.ButtonAction, ts time.Time) ([]byte, error) {
	return json.Marshal(buttonPayload{
		SensorID:  sensorID,
		Action:    action.String(),
		Timestamp: ts.UTC().Format(time.RFC3339),
	})
}

// FormatRelayPayload creates the JSON payload for a relay state change.
func FormatRelayPayload(sensorID int, on bool, ts time.Time) ([]byte, error) {
	state := "off"
	if on {
		state = "on"
	}
	return json.Marshal(relayPayload{
		SensorID:  sensorID,
		State:     state,
		Timestamp: ts.UTC().Format(time.RFC3339),
	})
}
