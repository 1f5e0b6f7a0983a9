//go:build !linux

package gpio

import "errors"

// Chip is unavailable off-linux; builds still compile for development.
type Chip struct{}

func OpenChip(name string) (*Chip, error) {
	return nil, errors.New("gpio character device requires linux")
}

func (c *Chip) RequestInput(pin int, pull PullMode) (InputLine, error) {
	return nil, errors.New("gpio character device requires linux")
}

func (c *Chip) RequestOutput(pin int, initial bool) (OutputLine, error) {
	return nil, errors.New("gpio character device requires linux")
}

func (c *Chip) Close() error { return nil }
