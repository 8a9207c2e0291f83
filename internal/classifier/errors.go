package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrClassifierTimeout is returned when the classifier did not answer
	// within the request deadline.
	ErrClassifierTimeout = errors.New("classifier timed out")

	// ErrClassifierUnavailable is returned for transport failures and
	// non-200 responses.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrClassifierMalformed is returned when a response could not be
	// repaired into the expected shape.
	ErrClassifierMalformed = errors.New("classifier response malformed")
)

// Error reports a failed classifier operation. The whole batch failed; no
// partial result accompanies it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, kind error, format string, args ...any) error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)),
	}
}
