package bvh

import (
	"errors"
	"fmt"
)

var (
	ErrNoTriangles     = errors.New("bvh: mesh has no triangles")
	ErrIndexCount      = errors.New("bvh: index count is not a multiple of 3")
	ErrIndexOutOfRange = errors.New("bvh: vertex index out of range")
)

// InvariantViolation reports a broken precondition inside the builder, such as
// an empty partition range. It always indicates a programming error.
type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("bvh: invariant violated in %s: %s", e.Op, e.Detail)
}

func violation(op, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// recoverViolation converts an InvariantViolation panic into err. Any other
// panic is re-raised.
func recoverViolation(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if v, ok := r.(*InvariantViolation); ok {
		*err = v
		return
	}
	panic(r)
}
