// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
)

// MeshDraw is one mesh instance to draw. Mesh and Pipeline are not owned.
type MeshDraw struct {
	Mesh      *Mesh
	Pipeline  *Pipeline
	Transform glm.Mat4
	Color     glm.Vec4
}

// NewMeshDrawList creates a list holding up to capacity draws.
func NewMeshDrawList(capacity int) *MeshDrawList {
	return &MeshDrawList{
		draws: make([]MeshDraw, capacity),
	}
}

// MeshDrawList is a fixed capacity list of mesh draws.
type MeshDrawList struct {
	draws []MeshDraw
	n     int
}

// Cap returns the capacity of the list.
func (l *MeshDrawList) Cap() int {
	return len(l.draws)
}

// Len returns the number of draws in the list.
func (l *MeshDrawList) Len() int {
	return l.n
}

// Full reports whether another draw would not fit.
func (l *MeshDrawList) Full() bool {
	return l.n == len(l.draws)
}

// Append adds d to the list, it panics when the list is full.
func (l *MeshDrawList) Append(d MeshDraw) {
	if l.Full() {
		panic(fmt.Sprintf("mesh draw list overflow: capacity %d", len(l.draws)))
	}
	l.draws[l.n] = d
	l.n++
}

// Draws returns the draws in submission order.
func (l *MeshDrawList) Draws() []MeshDraw {
	return l.draws[:l.n]
}

// Reset empties the list and drops the references it held.
func (l *MeshDrawList) Reset() {
	for i := range l.draws[:l.n] {
		l.draws[i] = MeshDraw{}
	}
	l.n = 0
}
