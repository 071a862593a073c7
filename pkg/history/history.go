// Package history keeps a bounded undo stack of full editor snapshots.
//
// Snapshots are deep structural copies rather than diffs. With a bounded
// zone count and DefaultLimit entries the memory cost stays small.
package history

import (
	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// DefaultLimit is the number of snapshots kept before the oldest is evicted
const DefaultLimit = 50

// Snapshot is an immutable copy of the editable state
type Snapshot struct {
	Label       string
	Zones       []types.Zone
	Adjustments types.Adjustments
	Selection   []string
}

// Clone returns a deep copy of s
func (s Snapshot) Clone() Snapshot {
	s.Zones = types.CloneZones(s.Zones)
	if s.Selection != nil {
		s.Selection = append([]string(nil), s.Selection...)
	}
	return s
}

// State is the editable state the manager captures and restores
type State interface {
	Capture() Snapshot
	Restore(Snapshot)
}

// Manager owns the undo and redo stacks for one document
type Manager struct {
	state   State
	limit   int
	entries []Snapshot
	redo    []Snapshot
}

// NewManager creates a manager over state. A limit below 2 uses DefaultLimit.
func NewManager(state State, limit int) *Manager {
	if limit < 2 {
		limit = DefaultLimit
	}
	return &Manager{state: state, limit: limit}
}

// Push records the current state under label and clears the redo stack
func (m *Manager) Push(label string) {
	snap := m.state.Capture().Clone()
	snap.Label = label
	m.entries = append(m.entries, snap)
	if len(m.entries) > m.limit {
		m.entries = append([]Snapshot(nil), m.entries[len(m.entries)-m.limit:]...)
	}
	m.redo = nil
	logging.Logger().Debug("history push", "label", label, "depth", len(m.entries))
}

// Undo restores the previous snapshot. The first snapshot is the baseline and
// is never undone, so Undo needs at least two entries.
func (m *Manager) Undo() bool {
	if len(m.entries) < 2 {
		return false
	}
	current := m.entries[len(m.entries)-1]
	m.entries = m.entries[:len(m.entries)-1]
	m.redo = append([]Snapshot{current}, m.redo...)
	m.state.Restore(m.entries[len(m.entries)-1].Clone())
	logging.Logger().Debug("history undo", "label", current.Label)
	return true
}

// Redo reapplies the most recently undone snapshot
func (m *Manager) Redo() bool {
	if len(m.redo) == 0 {
		return false
	}
	next := m.redo[0]
	m.redo = m.redo[1:]
	m.entries = append(m.entries, next)
	m.state.Restore(next.Clone())
	logging.Logger().Debug("history redo", "label", next.Label)
	return true
}

// Reset drops both stacks
func (m *Manager) Reset() {
	m.entries = nil
	m.redo = nil
}

func (m *Manager) CanUndo() bool { return len(m.entries) > 1 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Labels lists the snapshot labels from oldest to newest
func (m *Manager) Labels() []string {
	labels := make([]string, len(m.entries))
	for i, s := range m.entries {
		labels[i] = s.Label
	}
	return labels
}

// RedoLabels lists the redo stack, next redo first
func (m *Manager) RedoLabels() []string {
	labels := make([]string, len(m.redo))
	for i, s := range m.redo {
		labels[i] = s.Label
	}
	return labels
}
