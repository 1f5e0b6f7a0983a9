package controller

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksobolewski/multirelay-controller/internal/button"
	"github.com/ksobolewski/multirelay-controller/internal/clock"
	"github.com/ksobolewski/multirelay-controller/internal/eeprom"
	"github.com/ksobolewski/multirelay-controller/internal/gpio"
	"github.com/ksobolewski/multirelay-controller/internal/model"
	"github.com/ksobolewski/multirelay-controller/internal/pininput"
	"github.com/ksobolewski/multirelay-controller/internal/relay"
	"github.com/ksobolewski/multirelay-controller/internal/relayservice"
	"github.com/ksobolewski/multirelay-controller/internal/telemetry"
)

const none = -1

type fixture struct {
	ctl   *Controller
	svc   *relayservice.Service
	fc    clockwork.FakeClock
	pub   *telemetry.FakePublisher
	ins   []*gpio.FakeInput
	outs  []*gpio.FakeOutput
	store *eeprom.MemoryStore
}

func newFixture(t *testing.T, relayCfgs []model.RelayConfig, buttonCfgs []button.Config) *fixture {
	t.Helper()

	fc := clockwork.NewFakeClock()
	clk := clock.New(fc)
	store := eeprom.NewMemoryStore()
	pub := &telemetry.FakePublisher{}

	outs := make([]*gpio.FakeOutput, len(relayCfgs))
	relays := make([]*relay.Relay, len(relayCfgs))
	for i, rc := range relayCfgs {
		outs[i] = &gpio.FakeOutput{}
		r := relay.New(rc.SensorID, rc.Description)
		r.Attach(outs[i])
		relays[i] = r
	}
	svc := relayservice.New(relays, relayCfgs, clk, store, 250)
	require.NoError(t, svc.Initialize(false))

	ins := make([]*gpio.FakeInput, len(buttonCfgs))
	buttons := make([]*button.Button, len(buttonCfgs))
	for i, bc := range buttonCfgs {
		ins[i] = &gpio.FakeInput{}
		buttons[i] = button.New(bc, pininput.New(ins[i], clk, 0), button.DefaultIntervals())
	}

	return &fixture{
		ctl:   New(buttons, svc, clk, pub, 20*time.Millisecond),
		svc:   svc,
		fc:    fc,
		pub:   pub,
		ins:   ins,
		outs:  outs,
		store: store,
	}
}

func TestClickTogglesAndPersistsRelay(t *testing.T) {
	f := newFixture(t,
		[]model.RelayConfig{
			{SensorID: 10, Pin: 17, Options: model.TriggerHigh, DependsOn: 10},
		},
		[]button.Config{
			{SensorID: 1, Kind: model.MonoStable, PressedLevel: true,
				ClickRelay: 0, LongClickRelay: none, DoubleClickRelay: none},
		})

	f.ctl.Tick() // baseline

	// press
	f.ins[0].Level = true
	f.ctl.Tick()
	assert.False(t, f.svc.State(0))

	// release after 50 ms: click routed, relay toggles on
	f.fc.Advance(50 * time.Millisecond)
	f.ins[0].Level = false
	f.ctl.Tick()
	assert.True(t, f.svc.State(0))
	assert.True(t, f.outs[0].Level)
	assert.Equal(t, byte(1), f.store.Bytes[eeprom.RelayStateBase])

	// idle tick clears the reported action
	f.fc.Advance(20 * time.Millisecond)
	f.ctl.Tick()
	assert.True(t, f.svc.State(0))

	// second click toggles back off
	f.fc.Advance(500 * time.Millisecond)
	f.ins[0].Level = true
	f.ctl.Tick()
	f.fc.Advance(50 * time.Millisecond)
	f.ins[0].Level = false
	f.ctl.Tick()
	assert.False(t, f.svc.State(0))
	assert.Equal(t, byte(0), f.store.Bytes[eeprom.RelayStateBase])
}

func TestExposedButtonPublishesAction(t *testing.T) {
	f := newFixture(t,
		nil,
		[]button.Config{
			{SensorID: 4, Kind: model.MonoStable, PressedLevel: true, Exposed: true,
				ClickRelay: none, LongClickRelay: none, DoubleClickRelay: none},
		})

	f.ctl.Tick() // baseline

	f.ins[0].Level = true
	f.ctl.Tick()
	f.fc.Advance(50 * time.Millisecond)
	f.ins[0].Level = false
	f.ctl.Tick()
	assert.Empty(t, f.pub.ButtonEvents, "click not decided until the window closes")

	// double-click window expires: single click reported and published
	f.fc.Advance(400 * time.Millisecond)
	f.ctl.Tick()
	require.Len(t, f.pub.ButtonEvents, 1)
	assert.Equal(t, 4, f.pub.ButtonEvents[0].SensorID)
	assert.Equal(t, model.SingleShortClick, f.pub.ButtonEvents[0].Action)
}

func TestImpulseRelayWithMasterTeardown(t *testing.T) {
	f := newFixture(t,
		[]model.RelayConfig{
			{SensorID: 10, Pin: 17, Options: model.TriggerHigh | model.Impulse, DependsOn: 11},
			{SensorID: 11, Pin: 27, Options: model.TriggerHigh | model.StartupOff, DependsOn: 11},
		},
		[]button.Config{
			{SensorID: 1, Kind: model.MonoStable, PressedLevel: true,
				ClickRelay: 0, LongClickRelay: none, DoubleClickRelay: none},
		})

	f.ctl.Tick() // baseline
	f.fc.Advance(time.Millisecond)

	// click: impulse relay and its master turn on
	f.ins[0].Level = true
	f.ctl.Tick()
	f.fc.Advance(50 * time.Millisecond)
	f.ins[0].Level = false
	f.ctl.Tick()
	assert.True(t, f.svc.State(0))
	assert.True(t, f.svc.State(1))
	assert.Empty(t, f.store.Bytes, "impulse and startup relays are not persisted")

	// past the impulse interval: relay drops, teardown releases the master
	f.fc.Advance(260 * time.Millisecond)
	f.ctl.Tick()
	assert.False(t, f.svc.State(0))
	assert.False(t, f.svc.State(1))
	assert.False(t, f.outs[0].Level)
	assert.False(t, f.outs[1].Level)
}

func TestReedSwitchMirrorsDoorState(t *testing.T) {
	f := newFixture(t,
		[]model.RelayConfig{
			{SensorID: 10, Pin: 17, Options: model.TriggerHigh | model.StartupOff, DependsOn: 10},
		},
		[]button.Config{
			{SensorID: 2, Kind: model.ReedSwitch, PressedLevel: true,
				ClickRelay: 0, LongClickRelay: none, DoubleClickRelay: none},
		})

	// door closed at boot
	f.ins[0].Level = true
	f.ctl.Tick() // baseline
	assert.False(t, f.svc.State(0))

	// door opens: relay mirrors the inverted pin level
	f.ins[0].Level = false
	f.ctl.Tick()
	assert.True(t, f.svc.State(0))

	// quiet scans between the edges: the first reports the combined
	// click+pressed (same action as the edge), the second clears it
	f.fc.Advance(20 * time.Millisecond)
	f.ctl.Tick()
	f.fc.Advance(20 * time.Millisecond)
	f.ctl.Tick()

	// door closes again
	f.fc.Advance(time.Second)
	f.ins[0].Level = true
	f.ctl.Tick()
	assert.False(t, f.svc.State(0))
}

func TestInputErrorSkipsButton(t *testing.T) {
	f := newFixture(t,
		[]model.RelayConfig{
			{SensorID: 10, Pin: 17, Options: model.TriggerHigh, DependsOn: 10},
		},
		[]button.Config{
			{SensorID: 1, Kind: model.MonoStable, PressedLevel: true,
				ClickRelay: 0, LongClickRelay: none, DoubleClickRelay: none},
		})

	f.ctl.Tick()
	f.ins[0].Err = assert.AnError
	f.ctl.Tick() // must not panic or change state
	assert.False(t, f.svc.State(0))
}
