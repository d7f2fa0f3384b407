package selector

import (
	"errors"
	"fmt"
)

// MaxDescriptorLength is the longest descriptor accepted, in bytes.
const MaxDescriptorLength = 256

// Result is the outcome of a resolution.
type Result int

const (
	// OK means a coordinate was found.
	OK Result = iota
	// Invalid means the descriptor was well formed but nothing qualified.
	Invalid
	// BadDescriptor means the descriptor could not be understood.
	BadDescriptor
	// BadModifiers means a modifier token was not recognised.
	BadModifiers
)

var (
	ErrInvalid       = errors.New("no matching object")
	ErrBadDescriptor = errors.New("invalid descriptor")
	ErrBadModifiers  = errors.New("invalid modifiers")
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case Invalid:
		return "invalid"
	case BadDescriptor:
		return "bad_descriptor"
	case BadModifiers:
		return "bad_modifiers"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// Err maps the result onto a sentinel error, nil for OK.
func (r Result) Err() error {
	switch r {
	case OK:
		return nil
	case Invalid:
		return ErrInvalid
	case BadModifiers:
		return ErrBadModifiers
	}
	return ErrBadDescriptor
}

// Kind names the entity a descriptor addresses.
type Kind int

const (
	KindMonitor Kind = iota
	KindDesktop
	KindNode
)

func (k Kind) String() string {
	switch k {
	case KindMonitor:
		return "monitor"
	case KindDesktop:
		return "desktop"
	}
	return "node"
}

// Describe wraps a non-OK result with the descriptor that produced it.
func (r Result) Describe(kind Kind, desc string) error {
	if r == OK {
		return nil
	}
	return fmt.Errorf("%s descriptor %q: %w", kind, desc, r.Err())
}

// FormatID renders an object id the way descriptors and listings spell it.
func FormatID(id uint32) string {
	return fmt.Sprintf("0x%08X", id)
}
