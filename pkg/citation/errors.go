package citation

import (
	"errors"
	"fmt"
)

// ErrNothingToParse is returned when a citation has no title area.
var ErrNothingToParse = errors.New("nothing to parse")

// ErrLineTooLong is recorded for a ParseLines line over the size limit.
var ErrLineTooLong = errors.New("line too long")

// FailureError wraps a fault recovered inside a single parse. The citation
// produces no entry; earlier and later citations are unaffected.
type FailureError struct {
	Text  string
	Value any
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("unexpected failure parsing %q: %v", e.Text, e.Value)
}

// Unwrap returns the recovered value when it is an error.
func (e *FailureError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// LineError records why one line of a batch produced no entry.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
