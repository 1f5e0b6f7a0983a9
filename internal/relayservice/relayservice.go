// Package relayservice coordinates all relays: startup state, persistence,
// impulse timing and inter-relay dependencies.
package relayservice

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ksobolewski/multirelay-controller/internal/clock"
	"github.com/ksobolewski/multirelay-controller/internal/eeprom"
	"github.com/ksobolewski/multirelay-controller/internal/model"
	"github.com/ksobolewski/multirelay-controller/internal/relay"
)

// OnChange is invoked after every effective relay state transition.
type OnChange func(sensorID int, on bool)

// Service owns the relay array and the derived routing tables. All lookups
// by sensor id are resolved to indices once, during Initialize.
type Service struct {
	relays []*relay.Relay
	cfg    []model.RelayConfig
	clk    *clock.Clock
	store  eeprom.Store

	impulseIntervalMs uint32
	onChange          OnChange

	storeToEEPROM  []bool
	isImpulse      []bool
	impulseStart   []clock.Millis
	dependsOn      []int
	isDependent    []bool
	anyDependentOn bool
	impulsePending int
}

func New(relays []*relay.Relay, cfg []model.RelayConfig, clk *clock.Clock, store eeprom.Store, impulseIntervalMs uint32) *Service {
	n := len(relays)
	return &Service{
		relays:            relays,
		cfg:               cfg,
		clk:               clk,
		store:             store,
		impulseIntervalMs: impulseIntervalMs,
		storeToEEPROM:     make([]bool, n),
		isImpulse:         make([]bool, n),
		impulseStart:      make([]clock.Millis, n),
		dependsOn:         make([]int, n),
		isDependent:       make([]bool, n),
	}
}

// SetOnChange registers a callback for effective state transitions. Must be
// called before Initialize so startup transitions are observed too.
func (s *Service) SetOnChange(fn OnChange) {
	s.onChange = fn
}

// Initialize resolves the derived tables and applies initial relay states.
// With resetState set, persisted "on" bytes are zeroed and those relays
// start off.
func (s *Service) Initialize(resetState bool) error {
	initial := make([]bool, len(s.relays))
	for i := range s.relays {
		rc := s.cfg[i]
		s.relays[i].SetTriggerMode(rc.Options.Has(model.TriggerHigh))

		initial[i] = rc.Options.Has(model.StartupOn)
		s.storeToEEPROM[i] = !rc.Options.Has(model.Impulse | model.StartupOn | model.StartupOff)
		if s.storeToEEPROM[i] {
			v, err := s.store.ReadByte(eeprom.RelayStateBase + i)
			if err != nil {
				log.Warn().Err(err).
					Int("sensor_id", rc.SensorID).
					Msg("Persisted relay state unavailable, using startup default")
			} else {
				initial[i] = v == 1
			}
			if resetState && initial[i] {
				if err := s.store.WriteByte(eeprom.RelayStateBase+i, 0); err != nil {
					log.Warn().Err(err).Int("sensor_id", rc.SensorID).Msg("Failed to reset persisted relay state")
				}
				initial[i] = false
			}
		}

		s.isImpulse[i] = rc.Options.Has(model.Impulse)
		s.impulseStart[i] = 0
		s.dependsOn[i] = -1
		if rc.DependsOn != rc.SensorID {
			s.dependsOn[i] = s.RelayNum(rc.DependsOn)
			if s.dependsOn[i] == -1 {
				return fmt.Errorf("relay %d depends on unknown sensor id %d", rc.SensorID, rc.DependsOn)
			}
		}
		s.isDependent[i] = false
	}

	// masters inherit "on" from any child that is on at boot
	for i := range s.relays {
		master := s.dependsOn[i]
		if master == -1 {
			continue
		}
		if !s.cfg[master].Options.Has(model.Independent) {
			s.isDependent[master] = true
			if initial[i] {
				s.anyDependentOn = true
			}
		}
		initial[master] = initial[i]
	}

	for i := range s.relays {
		if s.relays[i].ChangeState(initial[i]) && s.onChange != nil {
			s.onChange(s.cfg[i].SensorID, initial[i])
		}
	}

	log.Info().
		Int("relays", len(s.relays)).
		Bool("reset_state", resetState).
		Msg("Relay service initialized")
	return nil
}

// ChangeState switches relay num. Turning on a relay with a master first
// turns the master on. Persisted and impulse bookkeeping happen only on an
// effective transition. Returns whether the logical state flipped.
func (s *Service) ChangeState(num int, on bool) bool {
	if on && s.dependsOn[num] != -1 {
		s.ChangeState(s.dependsOn[num], true)
		s.anyDependentOn = true
	}

	changed := s.relays[num].ChangeState(on)

	if s.storeToEEPROM[num] && changed {
		var v byte
		if on {
			v = 1
		}
		if err := s.store.WriteByte(eeprom.RelayStateBase+num, v); err != nil {
			log.Warn().Err(err).Int("sensor_id", s.cfg[num].SensorID).Msg("Failed to persist relay state")
		}
	}

	if s.isImpulse[num] && changed {
		if on {
			s.impulseStart[num] = s.clk.Now()
			s.impulsePending++
		} else {
			s.impulseStart[num] = 0
			s.impulsePending--
		}
	}

	if changed && s.onChange != nil {
		s.onChange(s.cfg[num].SensorID, on)
	}
	return changed
}

// ImpulseProcess turns off relay num when its impulse interval has expired.
// Returns whether the relay changed.
func (s *Service) ImpulseProcess(num int) bool {
	if s.isImpulse[num] && s.impulseStart[num] > 0 {
		if clock.Expired(s.clk.Now(), s.impulseStart[num], s.impulseIntervalMs) {
			return s.ChangeState(num, false)
		}
	}
	return false
}

// ProcessImpulses ticks every pending impulse relay. Returns whether any
// relay changed.
func (s *Service) ProcessImpulses() bool {
	if s.impulsePending == 0 {
		return false
	}
	changed := false
	for i := range s.relays {
		if s.ImpulseProcess(i) {
			changed = true
		}
	}
	return changed
}

// TurnOffDependent turns off every dependency target (a relay that others
// depend on) whose dependents are all off. A target still held on by some
// dependent keeps the pass armed for the next tick. Returns whether any
// target is still held on.
func (s *Service) TurnOffDependent() bool {
	if !s.anyDependentOn {
		return false
	}
	s.anyDependentOn = false
	for i := range s.relays {
		if !s.isDependent[i] || !s.relays[i].State() {
			continue
		}
		allMastersOff := true
		for m := range s.relays {
			if m != i && s.dependsOn[m] == i && s.relays[m].State() {
				allMastersOff = false
				break
			}
		}
		if allMastersOff {
			s.ChangeState(i, false)
		} else {
			s.anyDependentOn = true
		}
	}
	return s.anyDependentOn
}

// QuenchImpulses turns off any relay that is mid-pulse, for shutdown.
func (s *Service) QuenchImpulses() {
	for i := range s.relays {
		if s.isImpulse[i] && s.impulseStart[i] > 0 {
			s.ChangeState(i, false)
		}
	}
	s.TurnOffDependent()
}

// RelayNum returns the index of the relay with the given sensor id, or -1.
// Only valid sensor ids (>= 0) are searched.
func (s *Service) RelayNum(sensorID int) int {
	if sensorID < 0 {
		return -1
	}
	for i := range s.cfg {
		if s.cfg[i].SensorID == sensorID {
			return i
		}
	}
	return -1
}

// State returns the logical state of relay num.
func (s *Service) State(num int) bool {
	return s.relays[num].State()
}

// AnyDependentOn reports whether the teardown pass is armed.
func (s *Service) AnyDependentOn() bool {
	return s.anyDependentOn
}

// ImpulsePending returns the number of relays currently mid-pulse.
func (s *Service) ImpulsePending() int {
	return s.impulsePending
}

// Len returns the number of relays.
func (s *Service) Len() int {
	return len(s.relays)
}
