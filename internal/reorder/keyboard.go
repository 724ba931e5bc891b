package reorder

// Key is a keyboard control understood by the Manager.
type Key string

const (
	KeyArrowUp   Key = "ArrowUp"
	KeyArrowDown Key = "ArrowDown"
	KeyHome      Key = "Home"
	KeyEnd       Key = "End"
	KeyEscape    Key = "Escape"
)

// HandleKey gives keyboard users the same reach as pointer drags. Arrow keys
// move one step, Home and End move to the ends of the sequence, Escape
// cancels a running drag. Reports whether the sequence changed.
func (m *Manager) HandleKey(blockID string, key Key) bool {
	switch key {
	case KeyArrowUp:
		return m.MoveUp(blockID)
	case KeyArrowDown:
		return m.MoveDown(blockID)
	case KeyHome:
		seq := m.source.Blocks()
		if !CanMoveUp(seq, blockID) {
			return false
		}
		m.notify(Reorder(seq, blockID, seq[0].ID, Above))
		return true
	case KeyEnd:
		seq := m.source.Blocks()
		if !CanMoveDown(seq, blockID) {
			return false
		}
		m.notify(Reorder(seq, blockID, seq[len(seq)-1].ID, Below))
		return true
	case KeyEscape:
		m.HandleDragEnd()
	}
	return false
}
