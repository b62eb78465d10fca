package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch indicates that len(state) or len(out) is not 6*len(mu).
	ErrShapeMismatch = errors.New("kernel: state vector size mismatch")

	// ErrInvalidOptions indicates a Kernel configured with unusable options.
	ErrInvalidOptions = errors.New("kernel: invalid options")
)

// ShapeError reports the lengths that failed the size check. Out is -1 when
// no output buffer was supplied.
type ShapeError struct {
	State int
	Mu    int
	Out   int
}

func (e *ShapeError) Error() string {
	if e.Out < 0 {
		return fmt.Sprintf("%s: len(state)=%d, want 6*len(mu)=%d", ErrShapeMismatch, e.State, 6*e.Mu)
	}
	return fmt.Sprintf("%s: len(state)=%d len(out)=%d, want 6*len(mu)=%d", ErrShapeMismatch, e.State, e.Out, 6*e.Mu)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func checkShape(state, mu, out []float64, hasOut bool) error {
	want := 6 * len(mu)
	if len(state) == want && (!hasOut || len(out) == want) {
		return nil
	}
	e := &ShapeError{State: len(state), Mu: len(mu), Out: -1}
	if hasOut {
		e.Out = len(out)
	}
	return e
}
