package corrections

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable = errors.New("input source unavailable")
	ErrSinkUnavailable   = errors.New("output sink unavailable")
	ErrMalformedEvent    = errors.New("malformed event")
)

// ErrOpenFile represents an error when opening or creating a file.
type ErrOpenFile struct {
	Filename string
	Output   bool
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

func (e *ErrOpenFile) Is(target error) bool {
	if e.Output {
		return target == ErrSinkUnavailable
	}
	return target == ErrSourceUnavailable
}

// ErrRecordGroup represents a missing or unreadable record group
// (HDF5 group or ROOT tree) in the input file.
type ErrRecordGroup struct {
	GroupName string
	Err       error
}

func (e *ErrRecordGroup) Error() string {
	return fmt.Sprintf("error reading record group %q: %v", e.GroupName, e.Err)
}

func (e *ErrRecordGroup) Unwrap() error {
	return e.Err
}

func (e *ErrRecordGroup) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// ErrCreateTable represents an error when creating an output table or branch.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

func (e *ErrCreateTable) Is(target error) bool {
	return target == ErrSinkUnavailable
}

// ErrTooManyParticles is returned for events above the configured capacity.
type ErrTooManyParticles struct {
	Entry int64
	N     int
	Max   int
}

func (e *ErrTooManyParticles) Error() string {
	return fmt.Sprintf("event %d has %d muons, maximum is %d", e.Entry, e.N, e.Max)
}

func (e *ErrTooManyParticles) Is(target error) bool {
	return target == ErrMalformedEvent
}
