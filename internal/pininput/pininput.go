// Package pininput turns raw line reads into a stable debounced level with
// edge detection.
package pininput

import (
	"github.com/ksobolewski/multirelay-controller/internal/clock"
	"github.com/ksobolewski/multirelay-controller/internal/gpio"
)

// PinInput debounces a binary input. A raw level must hold for the debounce
// interval before it becomes the stable level. Between two Update calls that
// return true, Read is stable.
type PinInput struct {
	line     gpio.InputLine
	clk      *clock.Clock
	debounce uint32 // ms

	primed       bool
	stable       bool
	pending      bool
	hasPending   bool
	pendingSince clock.Millis
}

func New(line gpio.InputLine, clk *clock.Clock, debounceMs uint32) *PinInput {
	return &PinInput{line: line, clk: clk, debounce: debounceMs}
}

// Update ingests a fresh sample and reports whether the debounced level
// changed since the previous Update. The first sample establishes the
// baseline and never reports a change.
func (p *PinInput) Update() (bool, error) {
	raw, err := p.line.Read()
	if err != nil {
		return false, err
	}
	now := p.clk.Now()

	if !p.primed {
		p.primed = true
		p.stable = raw
		return false, nil
	}
	if raw == p.stable {
		p.hasPending = false
		return false, nil
	}
	if !p.hasPending || raw != p.pending {
		p.pending = raw
		p.pendingSince = now
		p.hasPending = true
	}
	if uint32(now-p.pendingSince) >= p.debounce {
		p.stable = raw
		p.hasPending = false
		return true, nil
	}
	return false, nil
}

// Read returns the last debounced level.
func (p *PinInput) Read() bool {
	return p.stable
}
