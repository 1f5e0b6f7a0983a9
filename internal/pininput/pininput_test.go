package pininput

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksobolewski/multirelay-controller/internal/clock"
	"github.com/ksobolewski/multirelay-controller/internal/gpio"
)

func testInput(level bool, debounceMs uint32) (*PinInput, *gpio.FakeInput, clockwork.FakeClock) {
	fi := &gpio.FakeInput{Level: level}
	fc := clockwork.NewFakeClock()
	return New(fi, clock.New(fc), debounceMs), fi, fc
}

func TestFirstSampleEstablishesBaseline(t *testing.T) {
	p, _, _ := testInput(true, 20)

	changed, err := p.Update()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, p.Read())
}

func TestZeroDebounceChangesImmediately(t *testing.T) {
	p, fi, _ := testInput(false, 0)
	p.Update() // baseline

	fi.Level = true
	changed, err := p.Update()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, p.Read())

	// stable level reports no further change
	changed, _ = p.Update()
	assert.False(t, changed)
}

func TestBounceWithinWindowIsFiltered(t *testing.T) {
	p, fi, fc := testInput(false, 20)
	p.Update() // baseline

	fi.Level = true
	changed, _ := p.Update()
	assert.False(t, changed)

	// bounces back before the debounce interval elapses
	fc.Advance(5 * time.Millisecond)
	fi.Level = false
	changed, _ = p.Update()
	assert.False(t, changed)
	assert.False(t, p.Read())

	// and never reports a change afterwards
	fc.Advance(50 * time.Millisecond)
	changed, _ = p.Update()
	assert.False(t, changed)
}

func TestStableChangeReportsOnce(t *testing.T) {
	p, fi, fc := testInput(false, 20)
	p.Update() // baseline

	fi.Level = true
	changed, _ := p.Update()
	assert.False(t, changed)

	fc.Advance(10 * time.Millisecond)
	changed, _ = p.Update()
	assert.False(t, changed)

	fc.Advance(10 * time.Millisecond)
	changed, _ = p.Update()
	assert.True(t, changed)
	assert.True(t, p.Read())

	changed, _ = p.Update()
	assert.False(t, changed)
	assert.True(t, p.Read())
}

func TestReadErrorPropagates(t *testing.T) {
	p, fi, _ := testInput(false, 20)
	p.Update()

	fi.Err = errors.New("line gone")
	_, err := p.Update()
	assert.Error(t, err)
}
