package telemetry

import (
	"time"

	"github.com/ksobolewski/multirelay-controller/internal/model"
)

// ButtonEvent is one recorded PublishButtonAction call.
type ButtonEvent struct {
	SensorID int
	Action   model.ButtonAction
	Time     time.Time
}

// RelayEvent is one recorded PublishRelayState call.
type RelayEvent struct {
	SensorID int
	On       bool
	Time     time.Time
}

// FakePublisher records events for tests.
type FakePublisher struct {
	ButtonEvents []ButtonEvent
	RelayEvents  []RelayEvent
	// Err, if set, is returned by every publish.
	Err    error
	Closed bool
}

func (f *FakePublisher) PublishButtonAction(sensorID int, action model.ButtonAction, ts time.Time) error {
	if f.Err != nil {
		return f.Err
	}
	f.ButtonEvents = append(f.ButtonEvents, ButtonEvent{SensorID: sensorID, Action: action, Time: ts})
	return nil
}

func (f *FakePublisher) PublishRelayState(sensorID int, on bool, ts time.Time) error {
	if f.Err != nil {
		return f.Err
	}
	f.RelayEvents = append(f.RelayEvents, RelayEvent{SensorID: sensorID, On: on, Time: ts})
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
