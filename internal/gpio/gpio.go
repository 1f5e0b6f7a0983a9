// Package gpio abstracts binary line I/O. The real implementation uses the
// Linux GPIO character device; fakes allow testing without hardware.
package gpio

// InputLine reads the raw level of a binary input.
type InputLine interface {
	Read() (bool, error)
	Close() error
}

// OutputLine drives a binary output.
type OutputLine interface {
	Write(level bool) error
	Close() error
}

// PullMode selects the bias applied to a requested input line.
type PullMode int

const (
	PullNone PullMode = iota
	PullUp
	PullDown
)
