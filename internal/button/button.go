// Package button recognizes user intent from debounced pin transitions.
// A per-button state machine turns edges plus elapsed time into clicks,
// double clicks, long presses and contact state changes.
package button

import (
	"fmt"

	"github.com/ksobolewski/multirelay-controller/internal/clock"
	"github.com/ksobolewski/multirelay-controller/internal/model"
	"github.com/ksobolewski/multirelay-controller/internal/pininput"
)

// Event is the bitfield reported by Recognize for one tick.
type Event int

const EventNone Event = 0

const (
	EventPressed Event = 1 << iota
	EventClick
	EventDoubleClick
	EventLongPress
	EventChanged
)

type state int

const (
	stateInitial state = iota
	stateFirstChangeBi
	stateFirstPress
	stateFirstRelease
	stateSecondPress
	stateReleaseWait
)

// Intervals holds the recognizer timing thresholds. Set once at init.
type Intervals struct {
	DoubleClickMs uint32
	LongClickMs   uint32
	// MonoStableTrigger is the raw level that, while a press is active,
	// lets a button without long/double targets emit its click combined
	// with the press instead of waiting for the release edge.
	MonoStableTrigger bool
}

func DefaultIntervals() Intervals {
	return Intervals{DoubleClickMs: 350, LongClickMs: 800, MonoStableTrigger: false}
}

// Config is the immutable per-button setup. Relay targets are resolved
// coordinator indices; -1 means no target.
type Config struct {
	SensorID     int
	Kind         model.ButtonKind
	Description  string
	Exposed      bool
	PressedLevel bool

	ClickRelay       int
	LongClickRelay   int
	DoubleClickRelay int
}

// Button couples a debounced input with the event recognizer.
type Button struct {
	cfg Config
	pin *pininput.PinInput
	iv  Intervals

	state      state
	stateSince clock.Millis
	lastAction model.ButtonAction
}

func New(cfg Config, pin *pininput.PinInput, iv Intervals) *Button {
	return &Button{cfg: cfg, pin: pin, iv: iv}
}

// Update advances the underlying debounced input.
func (b *Button) Update() (bool, error) {
	return b.pin.Update()
}

// ReadLevel returns the current debounced pin level.
func (b *Button) ReadLevel() bool {
	return b.pin.Read()
}

func (b *Button) SensorID() int {
	return b.cfg.SensorID
}

func (b *Button) Exposed() bool {
	return b.cfg.Exposed
}

// Recognize advances the state machine one tick. changed and level come
// from the debounced input, now from the millisecond clock.
func (b *Button) Recognize(changed, level bool, now clock.Millis) Event {
	active := level == b.cfg.PressedLevel
	if b.cfg.Kind == model.ReedSwitch {
		active = level != b.cfg.PressedLevel
	}

	hasLong := b.cfg.Exposed || b.cfg.LongClickRelay != -1
	hasDouble := b.cfg.Exposed || b.cfg.DoubleClickRelay != -1

	var ev Event
	switch b.state {
	case stateInitial: // waiting for a change
		if changed {
			b.stateSince = now
			if b.cfg.Kind == model.BiStable {
				b.state = stateFirstChangeBi
			} else {
				b.state = stateFirstPress
				ev = EventPressed
			}
		}

	case stateFirstChangeBi: // bi-stable only: second edge or timeout
		if !hasDouble || uint32(now-b.stateSince) > b.iv.DoubleClickMs {
			ev = EventClick
			b.state = stateInitial
		} else if changed {
			ev = EventDoubleClick
			b.state = stateInitial
		}

	case stateFirstPress: // waiting for first release
		if !active {
			if !hasDouble {
				ev = EventClick
				b.state = stateInitial
			} else {
				b.state = stateFirstRelease
			}
		} else if !hasDouble && !hasLong && level == b.iv.MonoStableTrigger {
			ev = EventClick | EventPressed
			b.state = stateReleaseWait
		} else if hasLong && uint32(now-b.stateSince) > b.iv.LongClickMs {
			ev = EventLongPress | EventPressed
			b.state = stateReleaseWait
		} else {
			ev = EventPressed
		}

	case stateFirstRelease: // waiting for second press or timeout
		if uint32(now-b.stateSince) > b.iv.DoubleClickMs {
			// a double click that was still being debounced at timeout
			// is reported as a plain click
			ev = EventClick
			b.state = stateInitial
		} else if active {
			if level == b.iv.MonoStableTrigger {
				ev = EventDoubleClick | EventPressed
				b.state = stateReleaseWait
			} else {
				ev = EventPressed
				b.state = stateSecondPress
			}
		}

	case stateSecondPress: // waiting for second release
		if !active {
			ev = EventDoubleClick
			b.state = stateInitial
		}

	case stateReleaseWait: // waiting for release, nothing more to report
		if !active {
			b.state = stateInitial
		}
	}

	if changed {
		ev |= EventChanged
	}
	return ev
}

// Action translates a tick's event bits into the routed semantic action.
// Contact sensors report every edge as a short click.
func (b *Button) Action(changed bool, ev Event) model.ButtonAction {
	switch {
	case changed && (b.cfg.Kind == model.DingDong || b.cfg.Kind == model.ReedSwitch):
		return model.SingleShortClick
	case ev&EventClick != 0:
		return model.SingleShortClick
	case ev&EventDoubleClick != 0:
		return model.DoubleShortClick
	case ev&EventLongPress != 0:
		return model.SingleLongClick
	}
	return model.NoAction
}

// RelayNum returns the relay index configured for the action, or -1.
func (b *Button) RelayNum(action model.ButtonAction) int {
	switch action {
	case model.SingleShortClick:
		return b.cfg.ClickRelay
	case model.DoubleShortClick:
		return b.cfg.DoubleClickRelay
	case model.SingleLongClick:
		return b.cfg.LongClickRelay
	}
	return -1
}

// DesiredState returns the relay state an action should produce given the
// target relay's current state. Contact sensors mirror the pin level,
// everything else toggles.
func (b *Button) DesiredState(current bool) bool {
	switch b.cfg.Kind {
	case model.DingDong:
		return b.pin.Read()
	case model.ReedSwitch:
		return !b.pin.Read()
	}
	return !current
}

// ActionChanged reports whether action differs from the last one recorded.
func (b *Button) ActionChanged(action model.ButtonAction) bool {
	return b.lastAction != action
}

// SetLastAction records the action reported this tick.
func (b *Button) SetLastAction(action model.ButtonAction) {
	b.lastAction = action
}

func (b *Button) String() string {
	return fmt.Sprintf("button %d (%s): kind=%s level=%v", b.cfg.SensorID, b.cfg.Description, b.cfg.Kind, b.pin.Read())
}
