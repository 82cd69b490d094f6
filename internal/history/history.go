// Package history keeps bounded snapshot-based undo/redo.
package history

import (
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
)

// DefaultLimit is the number of snapshots retained.
const DefaultLimit = 50

// Step is an immutable snapshot of the editable document. Edge styles travel
// inside the graph.
type Step struct {
	Graph    *graph.Graph
	Drawings []sketch.Path
}

func (s Step) clone() Step {
	return Step{Graph: s.Graph.Clone(), Drawings: sketch.ClonePaths(s.Drawings)}
}

// Manager holds the snapshot stack and the current position in it.
type Manager struct {
	steps []Step
	index int
	limit int
}

// New returns a manager retaining at most limit steps (DefaultLimit if limit <= 0).
func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{index: -1, limit: limit}
}

// Commit snapshots the state, drops any redo entries and evicts the oldest
// step when the stack is full.
func (m *Manager) Commit(g *graph.Graph, drawings []sketch.Path) {
	step := Step{Graph: g, Drawings: drawings}.clone()
	m.steps = append(m.steps[:m.index+1], step)
	if len(m.steps) > m.limit {
		drop := len(m.steps) - m.limit
		clear(m.steps[:drop])
		m.steps = m.steps[drop:]
	}
	m.index = len(m.steps) - 1
}

// Reset replaces the history with a single baseline step.
func (m *Manager) Reset(g *graph.Graph, drawings []sketch.Path) {
	m.steps = nil
	m.index = -1
	m.Commit(g, drawings)
}

func (m *Manager) CanUndo() bool {
	return m.index > 0
}

func (m *Manager) CanRedo() bool {
	return m.index >= 0 && m.index < len(m.steps)-1
}

// Undo moves back one step and returns a copy of it.
func (m *Manager) Undo() (Step, bool) {
	if !m.CanUndo() {
		return Step{}, false
	}
	m.index--
	return m.steps[m.index].clone(), true
}

// Redo moves forward one step and returns a copy of it.
func (m *Manager) Redo() (Step, bool) {
	if !m.CanRedo() {
		return Step{}, false
	}
	m.index++
	return m.steps[m.index].clone(), true
}

// Len returns the number of retained steps.
func (m *Manager) Len() int {
	return len(m.steps)
}

// Index returns the position of the current step.
func (m *Manager) Index() int {
	return m.index
}
