package reorder

import "blockeditor/internal/domain"

// Source supplies the current sequence. The Manager never keeps its own copy;
// it reads the source on every operation.
type Source interface {
	Blocks() []domain.Block
}

// SourceFunc adapts a function to Source.
type SourceFunc func() []domain.Block

func (f SourceFunc) Blocks() []domain.Block { return f() }

// ChangeFunc receives the complete new sequence after a reorder.
type ChangeFunc func(seq []domain.Block)

// RenderFunc turns one block into whatever the host draws.
type RenderFunc func(b domain.Block, index int) any

// Manager coordinates drag sessions, keyboard moves and drops for one editing
// session. It proposes new sequences through the change callback and leaves
// storing them to the host.
//
// A Manager is not safe for concurrent use; hosts drive it from one event loop.
type Manager struct {
	source   Source
	onChange ChangeFunc
	render   RenderFunc
	session  Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithRenderer sets the delegate used by Render.
func WithRenderer(fn RenderFunc) Option {
	return func(m *Manager) { m.render = fn }
}

// NewManager creates a Manager reading from source and reporting to onChange.
func NewManager(source Source, onChange ChangeFunc, opts ...Option) *Manager {
	m := &Manager{source: source, onChange: onChange}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ── Keyboard-style moves ──────────────────────────────────

// MoveUp swaps blockID with the block above it. Reports whether it moved.
func (m *Manager) MoveUp(blockID string) bool {
	next, moved := MoveUp(m.source.Blocks(), blockID)
	if moved {
		m.notify(next)
	}
	return moved
}

// MoveDown swaps blockID with the block below it. Reports whether it moved.
func (m *Manager) MoveDown(blockID string) bool {
	next, moved := MoveDown(m.source.Blocks(), blockID)
	if moved {
		m.notify(next)
	}
	return moved
}

func (m *Manager) CanMoveUp(blockID string) bool {
	return CanMoveUp(m.source.Blocks(), blockID)
}

func (m *Manager) CanMoveDown(blockID string) bool {
	return CanMoveDown(m.source.Blocks(), blockID)
}

// ── Drag and drop ─────────────────────────────────────────

// HandleDragStart begins a drag of blockID. Ignored for unknown blocks or
// while another drag is running.
func (m *Manager) HandleDragStart(blockID string) bool {
	if IndexOf(m.source.Blocks(), blockID) < 0 {
		return false
	}
	return m.session.Start(blockID)
}

// HandleDragOver classifies the pointer against the hovered block's box and
// records the resulting drop target. Hovering an id that is not in the
// sequence is ignored.
func (m *Manager) HandleDragOver(targetID string, pointerY, blockTop, blockHeight float64) (DropTarget, bool) {
	if IndexOf(m.source.Blocks(), targetID) < 0 {
		return DropTarget{}, false
	}
	pos := Classify(pointerY, blockTop, blockHeight)
	if !m.session.Over(targetID, pos) {
		return DropTarget{}, false
	}
	return DropTarget{TargetID: targetID, Position: pos}, true
}

// HandleDragLeave clears the hover on targetID.
func (m *Manager) HandleDragLeave(targetID string) bool {
	return m.session.Leave(targetID)
}

// HandleDragEnd abandons the gesture. Always leaves the session Idle.
func (m *Manager) HandleDragEnd() {
	m.session.End()
}

// HandleDrop moves draggedID to pos relative to targetID and ends the drag.
// Unknown ids, self-drops and drops that leave the order unchanged do not
// notify. Reports whether the sequence changed.
func (m *Manager) HandleDrop(draggedID, targetID string, pos Position) bool {
	defer m.session.End()

	seq := m.source.Blocks()
	next := Reorder(seq, draggedID, targetID, pos)
	if SameOrder(seq, next) {
		return false
	}
	m.notify(next)
	return true
}

// DropOnTarget completes the running drag onto the current hover target.
// Without a hover target the drag simply ends.
func (m *Manager) DropOnTarget() bool {
	target, ok := m.session.Target()
	if !ok {
		m.session.End()
		return false
	}
	return m.HandleDrop(m.session.DraggedID(), target.TargetID, target.Position)
}

// ── Read side ─────────────────────────────────────────────

// Session returns a snapshot of the drag state.
func (m *Manager) Session() Snapshot {
	return m.session.Snapshot()
}

// Visual returns the drag feedback for blockID.
func (m *Manager) Visual(blockID string) Visual {
	return m.session.Visual(blockID)
}

// Render calls the render delegate for each block in current order.
// Returns nil when no renderer was configured.
func (m *Manager) Render() []any {
	if m.render == nil {
		return nil
	}
	seq := m.source.Blocks()
	out := make([]any, len(seq))
	for i, b := range seq {
		out[i] = m.render(b, i)
	}
	return out
}

func (m *Manager) notify(seq []domain.Block) {
	if m.onChange != nil {
		m.onChange(seq)
	}
}
