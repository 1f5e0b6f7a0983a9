package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestNowTracksSource(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(fc)

	assert.Equal(t, Millis(0), c.Now())

	fc.Advance(1500 * time.Millisecond)
	assert.Equal(t, Millis(1500), c.Now())

	fc.Advance(250 * time.Millisecond)
	assert.Equal(t, Millis(1750), c.Now())
}

func TestNowWrapsAt32Bits(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(fc)

	fc.Advance(time.Duration(1<<32+5) * time.Millisecond)
	assert.Equal(t, Millis(5), c.Now())
}

func TestExpired(t *testing.T) {
	tests := []struct {
		name     string
		now      Millis
		start    Millis
		interval uint32
		want     bool
	}{
		{"not yet", 100, 50, 250, false},
		{"exactly at interval", 300, 50, 250, false},
		{"past interval", 301, 50, 250, true},
		// any counter wrap expires the deadline outright
		{"wrap detected", 5, 1<<32 - 100, 250, true},
		{"wrap with short elapsed", 10, 1<<32 - 10, 250, true},
		{"wrap with long elapsed", 260, 1<<32 - 10, 250, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(tt.now, tt.start, tt.interval))
		})
	}
}
