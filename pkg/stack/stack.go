// Package stack provides a fixed-capacity LIFO buffer with value
// semantics. It is intended for carrying small amounts of auxiliary
// per-sequence state (for example bracket-matching counters during
// constrained decoding) through a decode loop whose tensor shapes must
// all be known ahead of time: the buffer never grows, and every
// operation returns a new stack value instead of mutating in place.
package stack

import "errors"

var (
	// ErrConfig is returned by New for a non-positive capacity.
	ErrConfig = errors.New("stack: capacity must be positive")
	// ErrFull is returned by Push when the stack is at capacity.
	ErrFull = errors.New("stack: capacity exceeded")
	// ErrEmpty is returned by Pop and Peek on an empty stack.
	ErrEmpty = errors.New("stack: empty")
)

// sentinel fills slots past the pointer; their values are never read.
const sentinel int32 = -1

// Bounded is a fixed-capacity stack of int32 values. The zero value is
// unusable; construct with New. A Bounded is a value: Push, Pop and the
// rest return a new stack and leave the receiver observably unchanged,
// so a caller may hold on to any intermediate version.
type Bounded struct {
	buf []int32
	ptr int
}

// New returns an empty stack with the given fixed capacity.
func New(capacity int) (Bounded, error) {
	if capacity <= 0 {
		return Bounded{}, ErrConfig
	}
	buf := make([]int32, capacity)
	for i := range buf {
		buf[i] = sentinel
	}
	return Bounded{buf: buf}, nil
}

// Push returns a new stack with v on top. The receiver's buffer is
// copied so that earlier stack values stay valid.
func (s Bounded) Push(v int32) (Bounded, error) {
	if s.ptr >= len(s.buf) {
		return s, ErrFull
	}
	buf := make([]int32, len(s.buf))
	copy(buf, s.buf)
	buf[s.ptr] = v
	return Bounded{buf: buf, ptr: s.ptr + 1}, nil
}

// Pop returns the top value and a new stack without it. Popping only
// moves the pointer; the buffer is shared with the receiver, which is
// safe because slots past the pointer are never read.
func (s Bounded) Pop() (int32, Bounded, error) {
	if s.ptr == 0 {
		return 0, s, ErrEmpty
	}
	return s.buf[s.ptr-1], Bounded{buf: s.buf, ptr: s.ptr - 1}, nil
}

// Peek returns the top value without removing it.
func (s Bounded) Peek() (int32, error) {
	if s.ptr == 0 {
		return 0, ErrEmpty
	}
	return s.buf[s.ptr-1], nil
}

// Len reports the number of values on the stack.
func (s Bounded) Len() int { return s.ptr }

// Cap reports the fixed capacity.
func (s Bounded) Cap() int { return len(s.buf) }
