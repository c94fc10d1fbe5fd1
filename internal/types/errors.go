package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind tells the run loop whether a failure is fatal or skip-worthy
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfig
	KindTransport
	KindData
	KindState
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindData:
		return "data"
	case KindState:
		return "state"
	}
	return "unknown"
}

// Error attaches a kind and the failing operation to an underlying error
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a kinded error
func E(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in the chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsSkippable reports whether the run may continue past err
func IsSkippable(err error) bool {
	return KindOf(err) == KindData
}
