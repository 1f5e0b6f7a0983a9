package relay

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ksobolewski/multirelay-controller/internal/gpio"
)

// Relay drives a single output line. Logical on/off is translated to a
// physical level through the trigger polarity.
type Relay struct {
	sensorID    int
	description string
	out         gpio.OutputLine
	triggerHigh bool
	state       bool
}

func New(sensorID int, description string) *Relay {
	return &Relay{sensorID: sensorID, description: description}
}

// Attach binds the relay to its output line.
func (r *Relay) Attach(out gpio.OutputLine) {
	r.out = out
}

// SetTriggerMode sets whether logical on drives the pin high.
func (r *Relay) SetTriggerMode(activeHigh bool) {
	r.triggerHigh = activeHigh
}

// ChangeState drives the output and reports whether the logical state
// flipped. The physical level is always rewritten, so a redundant call
// refreshes the line without reporting a change.
func (r *Relay) ChangeState(on bool) bool {
	changed := r.state != on
	level := on == r.triggerHigh
	if err := r.out.Write(level); err != nil {
		log.Error().Err(err).Int("sensor_id", r.sensorID).Msg("Failed to drive relay output")
	}
	r.state = on
	if changed {
		log.Debug().
			Int("sensor_id", r.sensorID).
			Bool("on", on).
			Bool("level", level).
			Msg("Relay state changed")
	}
	return changed
}

// State returns the current logical state.
func (r *Relay) State() bool {
	return r.state
}

func (r *Relay) SensorID() int {
	return r.sensorID
}

func (r *Relay) String() string {
	return fmt.Sprintf("relay %d (%s): on=%v", r.sensorID, r.description, r.state)
}
