// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ring provides a fixed-capacity FIFO history buffer.
package ring

// Buffer keeps the most recent Cap() values in insertion order.
// Once full, every Push evicts the oldest value.
type Buffer[T any] struct {
	data  []T
	start int
	size  int
}

// New returns an empty buffer holding at most capacity values.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	if b.size < len(b.data) {
		b.data[(b.start+b.size)%len(b.data)] = v
		b.size++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % len(b.data)
}

func (b *Buffer[T]) Len() int { return b.size }
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Items returns a copy of the contents, oldest first.
func (b *Buffer[T]) Items() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.data[(b.start+i)%len(b.data)]
	}
	return out
}

// Last returns the most recently pushed value.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.size == 0 {
		return zero, false
	}
	return b.data[(b.start+b.size-1)%len(b.data)], true
}

// Clear drops every value but keeps the capacity.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.start = 0
	b.size = 0
}
