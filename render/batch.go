// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"fmt"
)

// NewBatchBuffer creates a batch of capacity vertices.
func NewBatchBuffer[V any](capacity int) *BatchBuffer[V] {
	return &BatchBuffer[V]{
		vertices: make([]V, capacity),
	}
}

// BatchBuffer accumulates vertices up to a fixed capacity. Callers check
// Fits and flush before appending, appending past the capacity panics.
type BatchBuffer[V any] struct {
	vertices []V
	cursor   int
}

// Cap returns the capacity in vertices.
func (b *BatchBuffer[V]) Cap() int {
	return len(b.vertices)
}

// Len returns the number of vertices submitted since the last reset.
func (b *BatchBuffer[V]) Len() int {
	return b.cursor
}

// Fits reports whether n more vertices fit.
func (b *BatchBuffer[V]) Fits(n int) bool {
	return b.cursor+n <= len(b.vertices)
}

// Append adds vertices to the batch.
func (b *BatchBuffer[V]) Append(vertices ...V) {
	if !b.Fits(len(vertices)) {
		panic(fmt.Sprintf("batch buffer overflow: %d + %d > %d", b.cursor, len(vertices), len(b.vertices)))
	}
	b.cursor += copy(b.vertices[b.cursor:], vertices)
}

// Vertices returns the submitted vertices. The slice is reused after Reset.
func (b *BatchBuffer[V]) Vertices() []V {
	return b.vertices[:b.cursor]
}

// Reset empties the batch.
func (b *BatchBuffer[V]) Reset() {
	b.cursor = 0
}
