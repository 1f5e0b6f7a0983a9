package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Millis is a wrapping 32-bit millisecond timestamp. Elapsed time is the
// unsigned difference of two Millis values; Expired adds an explicit wrap
// check on top of that and is used for impulse expiry.
type Millis uint32

// Clock produces Millis timestamps from a monotonic time source. Tests use
// clockwork.NewFakeClock() as the source.
type Clock struct {
	src   clockwork.Clock
	epoch time.Time
}

func New(src clockwork.Clock) *Clock {
	return &Clock{src: src, epoch: src.Now()}
}

// Now returns the milliseconds elapsed since the clock was created,
// truncated to 32 bits. Wraps roughly every 49.7 days.
func (c *Clock) Now() Millis {
	return Millis(c.src.Since(c.epoch).Milliseconds())
}

// Ticker returns a ticker driven by the underlying source.
func (c *Clock) Ticker(d time.Duration) clockwork.Ticker {
	return c.src.NewTicker(d)
}

// Expired reports whether interval milliseconds have elapsed since start.
// Uses unsigned subtraction plus an explicit wrap check; the two conditions
// together are authoritative.
func Expired(now, start Millis, interval uint32) bool {
	return uint32(now-start) > interval || now < start
}
