package entities

import (
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
)

// Node is the mutable positional wrapper around one Note inside a layout.
// Position, velocity and pin survive content replacement.
type Node struct {
	Note     Note
	Position valueobjects.Vector
	Velocity valueobjects.Vector
	Pin      *valueobjects.Vector
}

// NewNode places a note at the given position at rest
func NewNode(note Note, at valueobjects.Vector) *Node {
	return &Node{
		Note:     note.Clone(),
		Position: at,
	}
}

// ID returns the identity of the wrapped note
func (n *Node) ID() valueobjects.NoteID {
	return n.Note.ID
}

// Pinned reports whether the node is held in place by an interaction
func (n *Node) Pinned() bool {
	return n.Pin != nil
}

// PinAt fixes the node at p; forces no longer move it
func (n *Node) PinAt(p valueobjects.Vector) {
	pin := p
	n.Pin = &pin
	n.Position = p
	n.Velocity = valueobjects.Vector{}
}

// Unpin returns the node to free dynamics
func (n *Node) Unpin() {
	n.Pin = nil
}

// ReplaceContent swaps the note content, leaving the dynamics untouched
func (n *Node) ReplaceContent(note Note) {
	n.Note = note.Clone()
}

// IsFinite reports whether position and velocity are usable numbers
func (n *Node) IsFinite() bool {
	return n.Position.IsFinite() && n.Velocity.IsFinite()
}

// Snapshot returns a detached copy
func (n *Node) Snapshot() Node {
	out := *n
	out.Note = n.Note.Clone()
	if n.Pin != nil {
		pin := *n.Pin
		out.Pin = &pin
	}
	return out
}
