//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Chip wraps a GPIO character device and hands out requested lines.
type Chip struct {
	chip *gpiocdev.Chip
}

func OpenChip(name string) (*Chip, error) {
	c, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &Chip{chip: c}, nil
}

// RequestInput requests pin as an input line with the given bias.
func (c *Chip) RequestInput(pin int, pull PullMode) (InputLine, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch pull {
	case PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	}
	line, err := c.chip.RequestLine(pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &cdevInput{line: line, pin: pin}, nil
}

// RequestOutput requests pin as an output line driven to the initial level.
func (c *Chip) RequestOutput(pin int, initial bool) (OutputLine, error) {
	v := 0
	if initial {
		v = 1
	}
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(v))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &cdevOutput{line: line, pin: pin}, nil
}

func (c *Chip) Close() error {
	return c.chip.Close()
}

type cdevInput struct {
	line *gpiocdev.Line
	pin  int
}

func (l *cdevInput) Read() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", l.pin, err)
	}
	return v != 0, nil
}

func (l *cdevInput) Close() error {
	return l.line.Close()
}

type cdevOutput struct {
	line *gpiocdev.Line
	pin  int
}

func (l *cdevOutput) Write(level bool) error {
	v := 0
	if level {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", l.pin, err)
	}
	return nil
}

func (l *cdevOutput) Close() error {
	return l.line.Close()
}
