package model

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by the core wraps exactly one of these.
var (
	ErrDataUnavailable  = errors.New("data unavailable")
	ErrProvider         = errors.New("provider error")
	ErrSerialization    = errors.New("serialization error")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)

// OpError scopes a failure to one operation on one symbol.
type OpError struct {
	Op      string // "fetch", "assemble", "serialize", ...
	Symbol  string
	Section string
	Err     error
}

func (e *OpError) Error() string {
	switch {
	case e.Section != "":
		return fmt.Sprintf("%s %s [%s]: %v", e.Op, e.Symbol, e.Section, e.Err)
	case e.Symbol != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *OpError) Unwrap() error { return e.Err }

// Kind returns the taxonomy sentinel err belongs to, or nil if it is unclassified.
func Kind(err error) error {
	for _, k := range []error{ErrInvalidTimeframe, ErrDataUnavailable, ErrSerialization, ErrProvider} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
