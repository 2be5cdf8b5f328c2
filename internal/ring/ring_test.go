// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferKeepsMostRecent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		capacity int
		inserts  int
	}{
		{"empty", 5, 0},
		{"partial", 5, 3},
		{"exactly full", 5, 5},
		{"wrapped once", 5, 7},
		{"wrapped many times", 3, 100},
		{"capacity one", 1, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := New[int](tc.capacity)
			for i := 0; i < tc.inserts; i++ {
				b.Push(i)
			}

			want := min(tc.inserts, tc.capacity)
			require.Equal(t, want, b.Len())

			items := b.Items()
			require.Len(t, items, want)
			for i, v := range items {
				assert.Equal(t, tc.inserts-want+i, v)
			}
		})
	}
}

func TestBufferLastAndClear(t *testing.T) {
	t.Parallel()

	b := New[string](2)
	_, ok := b.Last()
	assert.False(t, ok)

	b.Push("a")
	b.Push("b")
	b.Push("c")
	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, "c", last)
	assert.Equal(t, []string{"b", "c"}, b.Items())

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 2, b.Cap())
	assert.Empty(t, b.Items())

	b.Push("d")
	assert.Equal(t, []string{"d"}, b.Items())
}

func TestBufferItemsIsACopy(t *testing.T) {
	t.Parallel()

	b := New[int](3)
	b.Push(1)
	items := b.Items()
	items[0] = 99
	assert.Equal(t, []int{1}, b.Items())
}

func TestNonPositiveCapacity(t *testing.T) {
	t.Parallel()

	b := New[int](0)
	b.Push(1)
	b.Push(2)
	assert.Equal(t, []int{2}, b.Items())
}
