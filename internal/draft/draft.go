// Package draft tracks a staged edit on a single editable value: the value
// keeps its committed state until the staged state is explicitly committed
// or discarded. It sits alongside the tree, decorating what a client shows,
// and never feeds back into grouping.
//
// The package is a library for presentation-layer callers: nothing on the
// server side consumes it, and that is deliberate. Staged edits live wherever
// the edit form lives, and only the committed value ever reaches the store.
package draft

import "context"

// Value holds a committed value and, while an edit is pending, a staged
// replacement. The zero value is a clean, empty value.
type Value[T any] struct {
	committed T
	staged    T
	pending   bool
}

// NewValue returns a clean value holding v as its committed state.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{committed: v}
}

// Stage records a candidate value without committing it. Staging again
// replaces the previous candidate.
func (v *Value[T]) Stage(next T) {
	v.staged = next
	v.pending = true
}

// Commit persists the staged value through save and promotes it to the
// committed state. If save fails the staged value stays pending so the
// caller can retry or discard. Committing a clean value is a no-op.
func (v *Value[T]) Commit(ctx context.Context, save func(context.Context, T) error) error {
	if !v.pending {
		return nil
	}
	if save != nil {
		if err := save(ctx, v.staged); err != nil {
			return err
		}
	}
	v.committed = v.staged
	v.pending = false
	var zero T
	v.staged = zero
	return nil
}

// Discard drops the staged value and returns to the committed state.
func (v *Value[T]) Discard() {
	var zero T
	v.staged = zero
	v.pending = false
}

// Current returns the value a client should display: the staged value while
// an edit is pending, the committed value otherwise.
func (v *Value[T]) Current() T {
	if v.pending {
		return v.staged
	}
	return v.committed
}

// Committed returns the last committed value regardless of pending state.
func (v *Value[T]) Committed() T {
	return v.committed
}

// Pending reports whether an uncommitted edit is staged.
func (v *Value[T]) Pending() bool {
	return v.pending
}
