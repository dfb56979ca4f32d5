package similarity

import (
	"context"
	"errors"
)

// ErrUnavailable wraps any oracle failure (timeout, transport error, bad
// response). Callers must not map it to a zero score; it aborts the grading
// run so the event can be redelivered.
var ErrUnavailable = errors.New("similarity oracle unavailable")

// Oracle computes a normalized textual similarity in [0,1] between two
// strings. The algorithm behind it is out of scope for the grading service.
type Oracle interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}
